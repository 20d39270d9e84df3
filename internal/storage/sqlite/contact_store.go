// Package sqlite implements storage.ContactStore on an embedded SQLite
// database using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/scrypster/rolodex/internal/storage"
	"github.com/scrypster/rolodex/pkg/types"
)

const contactColumns = `id, name, title, company, email, phone, linkedin, location,
	industry, classification, notes, research, created_at, updated_at`

// ContactStore implements storage.ContactStore using SQLite.
type ContactStore struct {
	db *sql.DB
}

// NewContactStore opens (creating if needed) the SQLite database at dsn.
// If the initial open fails due to stale WAL files left behind by a crashed
// process, it verifies no other process holds them and retries once after
// removing the stale -shm/-wal files.
func NewContactStore(dsn string) (*ContactStore, error) {
	store, err := openContactStore(dsn)
	if err == nil {
		return store, nil
	}

	if !isRecoverableWALError(err) {
		return nil, err
	}

	dbPath := dbPathFromDSN(dsn)
	if dbPath == "" || !isWALStale(dbPath) {
		return nil, err
	}

	removeStaleWAL(dbPath)

	store, retryErr := openContactStore(dsn)
	if retryErr != nil {
		return nil, fmt.Errorf("failed after WAL recovery: %w (original: %v)", retryErr, err)
	}

	log.Printf("[sqlite] recovered from stale WAL files for %s", dbPath)
	return store, nil
}

func openContactStore(dsn string) (*ContactStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One writer at a time; a single connection also keeps ":memory:"
	// databases alive across calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &ContactStore{db: db}, nil
}

// GetContactByName returns the contact whose normalized name matches name.
func (s *ContactStore) GetContactByName(ctx context.Context, name string) (*types.Contact, error) {
	key := types.NormalizeName(name)
	if key == "" {
		return nil, fmt.Errorf("%w: name is required", storage.ErrInvalidInput)
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE normalized_name = ?`, key)
	c, err := scanContact(row)
	if err != nil {
		return nil, fmt.Errorf("get contact %q: %w", name, err)
	}
	return c, nil
}

// GetContact returns the contact with the given ID.
func (s *ContactStore) GetContact(ctx context.Context, id string) (*types.Contact, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id)
	c, err := scanContact(row)
	if err != nil {
		return nil, fmt.Errorf("get contact %s: %w", id, err)
	}
	return c, nil
}

// AddContact inserts c. Timestamps default to now.
func (s *ContactStore) AddContact(ctx context.Context, c *types.Contact) error {
	if c == nil || c.ID == "" {
		return fmt.Errorf("%w: contact ID is required", storage.ErrInvalidInput)
	}
	if err := c.Validate(); err != nil {
		return errors.Join(storage.ErrInvalidInput, err)
	}

	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contacts (`+contactColumns+`, normalized_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Title, c.Company, c.Email, c.Phone, c.LinkedIn, c.Location,
		c.Industry, string(c.Classification), c.Notes, c.Research,
		c.CreatedAt.UTC(), c.UpdatedAt.UTC(), c.NormalizedName(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", storage.ErrAlreadyExists, c.Name)
		}
		return fmt.Errorf("failed to insert contact: %w", err)
	}
	return nil
}

// UpdateContact applies updates to the named contact inside a transaction.
// Renaming onto another stored contact's name fails with ErrAlreadyExists.
func (s *ContactStore) UpdateContact(ctx context.Context, name string, updates map[types.ContactField]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := scanContact(tx.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE normalized_name = ?`, types.NormalizeName(name)))
	if err != nil {
		return fmt.Errorf("update contact %q: %w", name, err)
	}

	next, err := storage.PrepareUpdate(current, updates)
	if err != nil {
		return err
	}
	next.UpdatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx, `
		UPDATE contacts SET
			name = ?, normalized_name = ?, title = ?, company = ?, email = ?, phone = ?,
			linkedin = ?, location = ?, industry = ?, classification = ?, notes = ?,
			research = ?, updated_at = ?
		WHERE id = ?`,
		next.Name, next.NormalizedName(), next.Title, next.Company, next.Email, next.Phone,
		next.LinkedIn, next.Location, next.Industry, string(next.Classification), next.Notes,
		next.Research, next.UpdatedAt, current.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", storage.ErrAlreadyExists, next.Name)
		}
		return fmt.Errorf("failed to update contact: %w", err)
	}
	return tx.Commit()
}

// ListContacts returns contacts matching opts, most recently updated first.
func (s *ContactStore) ListContacts(ctx context.Context, opts storage.ListOptions) ([]*types.Contact, error) {
	opts = opts.Normalize()

	var (
		conditions []string
		args       []interface{}
	)
	if opts.Query != "" {
		conditions = append(conditions, `(
			lower(name) LIKE ? ESCAPE '\' OR lower(title) LIKE ? ESCAPE '\' OR
			lower(company) LIKE ? ESCAPE '\' OR lower(industry) LIKE ? ESCAPE '\' OR
			lower(location) LIKE ? ESCAPE '\' OR lower(notes) LIKE ? ESCAPE '\')`)
		p := storage.LikePattern(opts.Query)
		args = append(args, p, p, p, p, p, p)
	}
	if opts.Classification != "" {
		conditions = append(conditions, "classification = ?")
		args = append(args, string(opts.Classification))
	}

	query := `SELECT ` + contactColumns + ` FROM contacts`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY updated_at DESC, name ASC LIMIT ? OFFSET ?"
	args = append(args, opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	var out []*types.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteContact removes the named contact.
func (s *ContactStore) DeleteContact(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM contacts WHERE normalized_name = ?`, types.NormalizeName(name))
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete contact %q: %w", name, storage.ErrNotFound)
	}
	return nil
}

// Close flushes the WAL into the main database file and releases resources.
// The TRUNCATE checkpoint removes the -shm and -wal files so that the next
// process to open the database does not see stale WAL state.
func (s *ContactStore) Close() error {
	if s.db == nil {
		return nil
	}
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		log.Printf("[sqlite] WAL checkpoint on close failed (non-fatal): %v", err)
	}
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContact(row rowScanner) (*types.Contact, error) {
	var (
		c              types.Contact
		classification string
	)
	err := row.Scan(
		&c.ID, &c.Name, &c.Title, &c.Company, &c.Email, &c.Phone, &c.LinkedIn, &c.Location,
		&c.Industry, &classification, &c.Notes, &c.Research, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan contact: %w", err)
	}
	c.Classification = types.Classification(classification)
	return &c, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// dbPathFromDSN extracts the filesystem path from a SQLite DSN.
// Handles bare paths ("/path/to/contacts.db") and file: URIs
// ("file:/path/to/contacts.db?mode=rwc"). Returns empty string for in-memory
// databases or unparseable DSNs.
func dbPathFromDSN(dsn string) string {
	if dsn == ":memory:" || dsn == "" {
		return ""
	}

	if strings.HasPrefix(dsn, "file:") {
		u, err := url.Parse(dsn)
		if err != nil {
			return ""
		}
		path := u.Path
		if path == "" {
			path = u.Opaque
		}
		if path == ":memory:" || path == "" {
			return ""
		}
		return path
	}

	return dsn
}

// isRecoverableWALError returns true if the error matches patterns caused by
// stale WAL files left behind after a crash (SIGKILL, OOM, etc.).
func isRecoverableWALError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "disk I/O error") ||
		strings.Contains(msg, "database is locked")
}

// isWALStale checks whether -shm/-wal files exist for the given database path
// and no other process currently holds them open (via lsof).
// Returns false if lsof is unavailable.
func isWALStale(dbPath string) bool {
	shmPath := dbPath + "-shm"
	walPath := dbPath + "-wal"

	if !fileExists(shmPath) && !fileExists(walPath) {
		return false
	}

	lsofPath, err := exec.LookPath("lsof")
	if err != nil {
		return false
	}

	output, err := exec.Command(lsofPath, "-t", dbPath, shmPath, walPath).Output()
	if err != nil {
		// lsof exits 1 when no process has the files open.
		return true
	}
	return strings.TrimSpace(string(output)) == ""
}

func removeStaleWAL(dbPath string) {
	for _, suffix := range []string{"-shm", "-wal"} {
		path := dbPath + suffix
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("[sqlite] failed to remove stale %s: %v", path, err)
		}
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

var _ storage.ContactStore = (*ContactStore)(nil)
