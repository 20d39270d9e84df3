package types_test

import (
	"errors"
	"testing"

	"github.com/scrypster/rolodex/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Jane Doe", "jane doe"},
		{"  JANE   doe ", "jane doe"},
		{"Ahmed", "ahmed"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, types.NormalizeName(tt.in), "input %q", tt.in)
	}
}

func TestContact_Identity(t *testing.T) {
	var nilContact *types.Contact
	assert.False(t, nilContact.HasIdentity())

	c := &types.Contact{}
	assert.False(t, c.HasIdentity())
	assert.False(t, c.IsPersisted())

	c.Name = "Ryan"
	assert.True(t, c.HasIdentity())

	c.ID = "abc"
	assert.True(t, c.IsPersisted())
}

func TestContact_Validate(t *testing.T) {
	tests := []struct {
		name    string
		contact types.Contact
		wantErr bool
	}{
		{"minimal", types.Contact{Name: "Jane"}, false},
		{"missing name", types.Contact{Email: "jane@example.com"}, true},
		{"bad email", types.Contact{Name: "Jane", Email: "not-an-email"}, true},
		{"bad linkedin", types.Contact{Name: "Jane", LinkedIn: "linkedin jane"}, true},
		{"good linkedin", types.Contact{Name: "Jane", LinkedIn: "https://linkedin.com/in/jane"}, false},
		{"bad classification", types.Contact{Name: "Jane", Classification: "wizard"}, true},
		{"good classification", types.Contact{Name: "Jane", Classification: types.ClassificationInvestor}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.contact.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, types.ErrInvalidContact))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestContact_Summary(t *testing.T) {
	c := &types.Contact{Name: "Jane Doe", Title: "CTO", Company: "Acme", Classification: types.ClassificationFounder}
	assert.Equal(t, "Jane Doe, CTO at Acme (founder)", c.Summary())

	c2 := &types.Contact{Name: "Ryan", Company: "Initech"}
	assert.Equal(t, "Ryan at Initech", c2.Summary())
}

func TestContact_CloneIsIndependent(t *testing.T) {
	c := &types.Contact{Name: "Ryan", Email: "ryan@example.com"}
	cp := c.Clone()
	cp.Email = "other@example.com"
	assert.Equal(t, "ryan@example.com", c.Email)
}

func TestParseClassification(t *testing.T) {
	tests := []struct {
		in   string
		want types.Classification
		ok   bool
	}{
		{"Founder", types.ClassificationFounder, true},
		{"VC", types.ClassificationInvestor, true},
		{"mentor", types.ClassificationEnabler, true},
		{"professional", types.ClassificationProfessional, true},
		{"wizard", "", false},
	}
	for _, tt := range tests {
		got, ok := types.ParseClassification(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
