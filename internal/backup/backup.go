// Package backup takes periodic point-in-time copies of the SQLite contact
// database and keeps the most recent ones.
package backup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	filePrefix = "rolodex-"
	fileSuffix = ".db"
	stampFmt   = "20060102-150405.000000"
)

// Config configures a Service.
type Config struct {
	DBPath   string        // SQLite file to copy
	Dir      string        // Where snapshots are written
	Interval time.Duration // Time between scheduled snapshots (default: 1h)
	Keep     int           // Snapshots kept after pruning (default: 24)
}

// Info describes one snapshot file.
type Info struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

// Service writes and prunes snapshots.
type Service struct {
	cfg Config
	now func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used to name snapshots.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New validates cfg and creates the snapshot directory.
func New(cfg Config, opts ...Option) (*Service, error) {
	if cfg.DBPath == "" {
		return nil, errors.New("backup: database path is required")
	}
	if cfg.Dir == "" {
		return nil, errors.New("backup: backup directory is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Keep <= 0 {
		cfg.Keep = 24
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("backup: failed to create %s: %w", cfg.Dir, err)
	}

	s := &Service{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run snapshots on every interval until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	log.Printf("[backup] started: interval=%v dir=%s keep=%d", s.cfg.Interval, s.cfg.Dir, s.cfg.Keep)
	for {
		select {
		case <-ctx.Done():
			log.Println("[backup] stopped")
			return
		case <-ticker.C:
			info, err := s.BackupNow(ctx)
			if err != nil {
				log.Printf("[backup] scheduled backup failed: %v", err)
				continue
			}
			log.Printf("[backup] wrote %s (%d bytes)", info.Path, info.Size)
		}
	}
}

// BackupNow writes a verified snapshot and prunes old ones. A pruning
// failure is logged and does not fail the backup.
func (s *Service) BackupNow(ctx context.Context) (*Info, error) {
	if _, err := os.Stat(s.cfg.DBPath); err != nil {
		return nil, fmt.Errorf("backup: database not found: %w", err)
	}

	ts := s.now().UTC()
	dest := filepath.Join(s.cfg.Dir, filePrefix+ts.Format(stampFmt)+fileSuffix)

	if err := snapshot(ctx, s.cfg.DBPath, dest); err != nil {
		return nil, err
	}
	if err := verify(ctx, dest); err != nil {
		_ = os.Remove(dest)
		return nil, err
	}

	st, err := os.Stat(dest)
	if err != nil {
		return nil, fmt.Errorf("backup: failed to stat %s: %w", dest, err)
	}

	if err := s.prune(); err != nil {
		log.Printf("[backup] warning: failed to prune old backups: %v", err)
	}
	return &Info{Path: dest, Timestamp: ts, Size: st.Size()}, nil
}

// List returns the snapshots in the backup directory, newest first.
func (s *Service) List() ([]Info, error) {
	entries, err := os.ReadDir(s.cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("backup: failed to read %s: %w", s.cfg.Dir, err)
	}

	var out []Info
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		ts, err := time.Parse(stampFmt, strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix))
		if err != nil {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Info{Path: filepath.Join(s.cfg.Dir, name), Timestamp: ts, Size: fi.Size()})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (s *Service) prune() error {
	backups, err := s.List()
	if err != nil {
		return err
	}
	if len(backups) <= s.cfg.Keep {
		return nil
	}

	var errs []error
	for _, b := range backups[s.cfg.Keep:] {
		if err := os.Remove(b.Path); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// snapshot copies src to dest with VACUUM INTO, which is consistent under WAL.
func snapshot(ctx context.Context, src, dest string) error {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", src))
	if err != nil {
		return fmt.Errorf("backup: failed to open source database: %w", err)
	}
	defer func() { _ = db.Close() }()

	quoted := strings.ReplaceAll(dest, "'", "''")
	if _, err := db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", quoted)); err != nil {
		return fmt.Errorf("backup: failed to copy database: %w", err)
	}
	return nil
}

func verify(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return fmt.Errorf("backup: failed to open snapshot: %w", err)
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("backup: failed to run integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("backup: integrity check failed: %s", result)
	}
	return nil
}
