package types

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// Contact is a person or organization record, either a draft under
// construction in a conversation or a persisted row in the contact store.
type Contact struct {
	// ID is the opaque storage identifier, empty until persisted.
	ID string `json:"id,omitempty"`

	Name           string         `json:"name" validate:"required,max=200"`
	Title          string         `json:"title,omitempty" validate:"max=200"`
	Company        string         `json:"company,omitempty" validate:"max=200"`
	Email          string         `json:"email,omitempty" validate:"omitempty,email"`
	Phone          string         `json:"phone,omitempty" validate:"max=40"`
	LinkedIn       string         `json:"linkedin,omitempty" validate:"omitempty,url"`
	Location       string         `json:"location,omitempty"`
	Industry       string         `json:"industry,omitempty"`
	Classification Classification `json:"classification,omitempty" validate:"omitempty,oneof=founder investor enabler professional"`
	Notes          string         `json:"notes,omitempty"`
	Research       string         `json:"research,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func contactValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// NewContact returns a draft contact with the given name.
func NewContact(name string) *Contact {
	now := time.Now()
	return &Contact{
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NormalizeName lowercases a name, trims it and collapses internal
// whitespace. It is the key used for locked-contact and store lookups.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// HasIdentity reports whether the contact has been given a name.
func (c *Contact) HasIdentity() bool {
	return c != nil && strings.TrimSpace(c.Name) != ""
}

// IsPersisted reports whether the contact carries a storage identifier.
func (c *Contact) IsPersisted() bool {
	return c != nil && c.ID != ""
}

// NormalizedName returns NormalizeName(c.Name).
func (c *Contact) NormalizedName() string {
	if c == nil {
		return ""
	}
	return NormalizeName(c.Name)
}

// Validate checks the contact's struct tags. It is run before a contact is
// persisted; drafts may be incomplete.
func (c *Contact) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: contact is nil", ErrInvalidContact)
	}
	if err := contactValidator().Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, formatFieldError(fe))
			}
			return fmt.Errorf("%w: %s", ErrInvalidContact, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidContact, err)
	}
	return nil
}

func formatFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// Clone returns a copy of the contact. Contacts only hold value fields so a
// shallow copy is sufficient.
func (c *Contact) Clone() *Contact {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// Summary renders a short one-line description, e.g.
// "Jane Doe, CTO at Acme (founder)".
func (c *Contact) Summary() string {
	if c == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(c.Name)
	switch {
	case c.Title != "" && c.Company != "":
		fmt.Fprintf(&b, ", %s at %s", c.Title, c.Company)
	case c.Title != "":
		fmt.Fprintf(&b, ", %s", c.Title)
	case c.Company != "":
		fmt.Fprintf(&b, " at %s", c.Company)
	}
	if c.Classification != "" {
		fmt.Fprintf(&b, " (%s)", c.Classification)
	}
	return b.String()
}

// Details renders every non-empty field on its own line.
func (c *Contact) Details() string {
	if c == nil {
		return ""
	}
	var lines []string
	for _, f := range AllContactFields {
		if v := c.Get(f); v != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", f.Label(), v))
		}
	}
	return strings.Join(lines, "\n")
}

// MissingFields returns the commonly collected fields that are still empty,
// used to prompt the user for more information.
func (c *Contact) MissingFields() []ContactField {
	var missing []ContactField
	for _, f := range []ContactField{FieldTitle, FieldCompany, FieldEmail, FieldPhone, FieldClassification} {
		if c.Get(f) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}
