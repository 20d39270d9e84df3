// Package storage defines the persistence boundary for saved contacts.
//
// The conversation layer only touches a ContactStore at the edges of a
// draft's life: when it is saved, when a saved contact is unlocked for
// editing, and when the user asks about a contact. In-progress drafts live
// in session memory and never reach the store.
package storage

import (
	"context"

	"github.com/scrypster/rolodex/pkg/types"
)

// ContactStore persists saved contacts. Names are matched case-insensitively
// with whitespace collapsed, the same normalization session locks use.
type ContactStore interface {
	// GetContactByName returns the contact with the given name.
	// Returns ErrNotFound if no such contact exists.
	GetContactByName(ctx context.Context, name string) (*types.Contact, error)

	// GetContact returns the contact with the given storage identifier.
	// Returns ErrNotFound if no such contact exists.
	GetContact(ctx context.Context, id string) (*types.Contact, error)

	// AddContact inserts a new contact. The contact must carry an ID and
	// pass validation. Returns ErrAlreadyExists when a contact with the same
	// normalized name is already stored.
	AddContact(ctx context.Context, c *types.Contact) error

	// UpdateContact applies field updates to the named contact. Empty values
	// are ignored. Returns ErrNotFound if no such contact exists.
	UpdateContact(ctx context.Context, name string, updates map[types.ContactField]string) error

	// ListContacts returns contacts matching opts, most recently updated first.
	ListContacts(ctx context.Context, opts ListOptions) ([]*types.Contact, error)

	// DeleteContact removes the named contact.
	// Returns ErrNotFound if no such contact exists.
	DeleteContact(ctx context.Context, name string) error

	// Close releases any resources held by the store.
	Close() error
}
