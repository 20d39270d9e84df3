package types_test

import (
	"errors"
	"testing"

	"github.com/scrypster/rolodex/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContactField(t *testing.T) {
	tests := []struct {
		key  string
		want types.ContactField
	}{
		{"email", types.FieldEmail},
		{"Role", types.FieldTitle},
		{"organization", types.FieldCompany},
		{"linkedin_url", types.FieldLinkedIn},
		{"contact type", types.FieldClassification},
		{"phone-number", types.FieldPhone},
		{"address", types.FieldLocation},
	}
	for _, tt := range tests {
		got, err := types.ParseContactField(tt.key)
		require.NoError(t, err, tt.key)
		assert.Equal(t, tt.want, got, tt.key)
	}

	_, err := types.ParseContactField("favourite_colour")
	assert.True(t, errors.Is(err, types.ErrUnknownField))
}

func TestContact_SetIgnoresEmpty(t *testing.T) {
	c := &types.Contact{Name: "Jane", Email: "jane@example.com"}
	changed, err := c.Set(types.FieldEmail, "   ")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "jane@example.com", c.Email)
}

func TestContact_SetClassification(t *testing.T) {
	c := &types.Contact{Name: "Jane"}

	changed, err := c.Set(types.FieldClassification, "VC")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, types.ClassificationInvestor, c.Classification)

	_, err = c.Set(types.FieldClassification, "wizard")
	assert.True(t, errors.Is(err, types.ErrInvalidClassification))
	assert.Equal(t, types.ClassificationInvestor, c.Classification, "invalid value must not overwrite")
}

func TestContact_SetNotesAppends(t *testing.T) {
	c := &types.Contact{Name: "Jane"}
	_, _ = c.Set(types.FieldNotes, "met at demo day")
	_, _ = c.Set(types.FieldNotes, "likes climate tech")
	_, _ = c.Set(types.FieldNotes, "likes climate tech")
	assert.Equal(t, "met at demo day\nlikes climate tech", c.Notes)
}

func TestContact_SetEmailLowercases(t *testing.T) {
	c := &types.Contact{Name: "Jane"}
	_, err := c.Set(types.FieldEmail, "Jane@Example.COM")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", c.Email)
}

func TestContact_ApplyRejectsUnknownKeys(t *testing.T) {
	c := &types.Contact{Name: "Jane"}
	applied, err := c.Apply(map[string]string{
		"email":    "jane@example.com",
		"company":  "Acme",
		"shoesize": "42",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrUnknownField))
	assert.ElementsMatch(t, []types.ContactField{types.FieldEmail, types.FieldCompany}, applied)
	assert.Equal(t, "Acme", c.Company)
}

func TestContact_GetRoundTrip(t *testing.T) {
	c := &types.Contact{}
	for _, f := range types.AllContactFields {
		value := "value-" + string(f)
		if f == types.FieldClassification {
			value = "enabler"
		}
		_, err := c.Set(f, value)
		require.NoError(t, err, f)
		assert.Equal(t, value, c.Get(f), f)
	}
}

func TestContact_MissingFields(t *testing.T) {
	c := &types.Contact{Name: "Jane", Email: "jane@example.com", Title: "CTO"}
	assert.Equal(t, []types.ContactField{types.FieldCompany, types.FieldPhone, types.FieldClassification}, c.MissingFields())
}
