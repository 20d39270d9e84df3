package types

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ContactField names one updatable attribute of a Contact. The set is
// closed: only the constants below can be written through Set.
type ContactField string

// Updatable contact fields
const (
	FieldName           ContactField = "name"
	FieldTitle          ContactField = "title"
	FieldCompany        ContactField = "company"
	FieldEmail          ContactField = "email"
	FieldPhone          ContactField = "phone"
	FieldLinkedIn       ContactField = "linkedin"
	FieldLocation       ContactField = "location"
	FieldIndustry       ContactField = "industry"
	FieldClassification ContactField = "classification"
	FieldNotes          ContactField = "notes"
	FieldResearch       ContactField = "research"
)

// AllContactFields lists every updatable field in display order.
var AllContactFields = []ContactField{
	FieldName,
	FieldTitle,
	FieldCompany,
	FieldEmail,
	FieldPhone,
	FieldLinkedIn,
	FieldLocation,
	FieldIndustry,
	FieldClassification,
	FieldNotes,
	FieldResearch,
}

var fieldAliases = map[string]ContactField{
	"name":           FieldName,
	"full_name":      FieldName,
	"title":          FieldTitle,
	"role":           FieldTitle,
	"position":       FieldTitle,
	"job_title":      FieldTitle,
	"company":        FieldCompany,
	"organization":   FieldCompany,
	"organisation":   FieldCompany,
	"org":            FieldCompany,
	"employer":       FieldCompany,
	"email":          FieldEmail,
	"email_address":  FieldEmail,
	"phone":          FieldPhone,
	"phone_number":   FieldPhone,
	"mobile":         FieldPhone,
	"linkedin":       FieldLinkedIn,
	"linkedin_url":   FieldLinkedIn,
	"location":       FieldLocation,
	"address":        FieldLocation,
	"city":           FieldLocation,
	"industry":       FieldIndustry,
	"sector":         FieldIndustry,
	"classification": FieldClassification,
	"contact_type":   FieldClassification,
	"type":           FieldClassification,
	"category":       FieldClassification,
	"notes":          FieldNotes,
	"note":           FieldNotes,
	"research":       FieldResearch,
}

// ParseContactField resolves a raw key (canonical name or alias,
// case-insensitive) to a ContactField.
func ParseContactField(key string) (ContactField, error) {
	k := strings.ToLower(strings.TrimSpace(key))
	k = strings.ReplaceAll(k, " ", "_")
	k = strings.ReplaceAll(k, "-", "_")
	if f, ok := fieldAliases[k]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, key)
}

// Label returns the display label for the field.
func (f ContactField) Label() string {
	switch f {
	case FieldLinkedIn:
		return "LinkedIn"
	case FieldClassification:
		return "Type"
	default:
		s := string(f)
		if s == "" {
			return ""
		}
		return strings.ToUpper(s[:1]) + s[1:]
	}
}

// Get returns the string value of the given field.
func (c *Contact) Get(f ContactField) string {
	if c == nil {
		return ""
	}
	switch f {
	case FieldName:
		return c.Name
	case FieldTitle:
		return c.Title
	case FieldCompany:
		return c.Company
	case FieldEmail:
		return c.Email
	case FieldPhone:
		return c.Phone
	case FieldLinkedIn:
		return c.LinkedIn
	case FieldLocation:
		return c.Location
	case FieldIndustry:
		return c.Industry
	case FieldClassification:
		return string(c.Classification)
	case FieldNotes:
		return c.Notes
	case FieldResearch:
		return c.Research
	}
	return ""
}

// Set writes value into field f. Empty values are ignored and report
// (false, nil): a field is never overwritten with an empty value. Notes are
// appended rather than replaced.
func (c *Contact) Set(f ContactField, value string) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return false, nil
	}
	switch f {
	case FieldName:
		c.Name = value
	case FieldTitle:
		c.Title = value
	case FieldCompany:
		c.Company = value
	case FieldEmail:
		c.Email = strings.ToLower(value)
	case FieldPhone:
		c.Phone = value
	case FieldLinkedIn:
		c.LinkedIn = value
	case FieldLocation:
		c.Location = value
	case FieldIndustry:
		c.Industry = value
	case FieldClassification:
		cl, ok := ParseClassification(value)
		if !ok {
			return false, fmt.Errorf("%w: %q", ErrInvalidClassification, value)
		}
		c.Classification = cl
	case FieldNotes:
		if c.Notes == "" {
			c.Notes = value
		} else if !strings.Contains(c.Notes, value) {
			c.Notes = c.Notes + "\n" + value
		}
	case FieldResearch:
		c.Research = value
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownField, string(f))
	}
	c.UpdatedAt = time.Now()
	return true, nil
}

// ApplyFields applies typed updates in a stable order and returns the fields
// that changed. Invalid values are reported in the joined error while the
// remaining updates still apply.
func (c *Contact) ApplyFields(updates map[ContactField]string) ([]ContactField, error) {
	keys := make([]ContactField, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var applied []ContactField
	var errs []error
	for _, k := range keys {
		ok, err := c.Set(k, updates[k])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			applied = append(applied, k)
		}
	}
	return applied, errors.Join(errs...)
}

// Apply is ApplyFields for raw string keys. Unknown keys fail the
// ParseContactField step and are reported in the joined error.
func (c *Contact) Apply(updates map[string]string) ([]ContactField, error) {
	typed, err := ParseFieldMap(updates)
	applied, applyErr := c.ApplyFields(typed)
	return applied, errors.Join(err, applyErr)
}

// ParseFieldMap converts raw keys to ContactFields, dropping unknown keys
// (reported in the joined error) and empty values.
func ParseFieldMap(raw map[string]string) (map[ContactField]string, error) {
	out := make(map[ContactField]string, len(raw))
	var errs []error
	for k, v := range raw {
		f, err := ParseContactField(k)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if strings.TrimSpace(v) == "" {
			continue
		}
		out[f] = v
	}
	return out, errors.Join(errs...)
}
