package storage

import (
	"errors"
	"strings"

	"github.com/scrypster/rolodex/pkg/types"
)

var (
	// ErrNotFound indicates that the requested contact was not found.
	ErrNotFound = errors.New("contact not found")

	// ErrAlreadyExists indicates a contact with the same normalized name is
	// already stored.
	ErrAlreadyExists = errors.New("contact already exists")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// Pagination limits for ListContacts.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ListOptions filters and paginates ListContacts.
type ListOptions struct {
	// Query matches case-insensitively against name, title, company,
	// industry, location and notes. Empty matches everything.
	Query string

	// Classification restricts results to one category. Empty means any.
	Classification types.Classification

	// Limit is the page size (default: 20, max: 100).
	Limit int

	// Offset skips this many results.
	Offset int
}

// Normalize applies defaults and bounds to the options.
func (o ListOptions) Normalize() ListOptions {
	o.Query = strings.TrimSpace(o.Query)
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// PrepareUpdate applies updates to a copy of c and validates the result.
// It returns the updated copy, or an error wrapping ErrInvalidInput. Both
// backends use it so that field semantics (notes append, classification
// canonicalization) match the in-memory draft behavior.
func PrepareUpdate(c *types.Contact, updates map[types.ContactField]string) (*types.Contact, error) {
	next := c.Clone()
	if _, err := next.ApplyFields(updates); err != nil {
		return nil, errors.Join(ErrInvalidInput, err)
	}
	if err := next.Validate(); err != nil {
		return nil, errors.Join(ErrInvalidInput, err)
	}
	return next, nil
}

// LikePattern builds a lowercase substring LIKE pattern for q, escaping
// LIKE wildcards with a backslash. Queries must declare ESCAPE '\'.
func LikePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(q)) + "%"
}
