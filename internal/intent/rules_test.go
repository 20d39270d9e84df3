package intent

import (
	"context"
	"testing"

	"github.com/scrypster/rolodex/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	idle       = types.ConversationContext{State: types.StateIdle}
	collecting = types.ConversationContext{
		State:          types.StateCollecting,
		PendingName:    "Jane Doe",
		HasActiveTask:  true,
		ActiveTaskType: types.TaskContactDraft,
	}
)

func TestRuleResolver_Keywords(t *testing.T) {
	tests := []struct {
		text string
		ctx  types.ConversationContext
		want types.Intent
	}{
		{"cancel", collecting, types.IntentCancel},
		{"never mind", collecting, types.IntentCancel},
		{"done", collecting, types.IntentFinish},
		{"That's all!", collecting, types.IntentFinish},
		{"save it", collecting, types.IntentFinish},
		{"hello", idle, types.IntentGreeting},
		{"hi there!", idle, types.IntentGreeting},
		{"thanks!", idle, types.IntentThanks},
		{"help", idle, types.IntentHelp},
		{"summarize", idle, types.IntentSummarize},
		{"yes", idle, types.IntentConfirm},
		{"Yes", collecting, types.IntentConfirm},
		{"ok", collecting, types.IntentConfirm},
		{"nope", collecting, types.IntentDeny},
		{"asdfgh", idle, types.IntentUnknown},
		{"", idle, types.IntentUnknown},
	}
	r := NewRuleResolver()
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			res, err := r.Resolve(context.Background(), tt.text, tt.ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Intent)
			assert.Equal(t, types.SourceRules, res.Source)
			assert.NotNil(t, res.Entities)
		})
	}
}

func TestRuleResolver_YesWithEntitiesIsNotConfirm(t *testing.T) {
	res, err := NewRuleResolver().Resolve(context.Background(), "yes, her email is jane@acme.com", collecting)
	require.NoError(t, err)
	assert.Equal(t, types.IntentUpdateContact, res.Intent)
	assert.Equal(t, "jane@acme.com", res.Entities[types.FieldEmail])
	assert.Empty(t, res.TargetContact)
}

func TestRuleResolver_AddWithDetails(t *testing.T) {
	res, err := NewRuleResolver().Resolve(context.Background(), "add Jane Doe, CTO at Acme, jane@acme.com", idle)
	require.NoError(t, err)
	assert.Equal(t, types.IntentAddContact, res.Intent)
	assert.Equal(t, "Jane Doe", res.TargetContact)
	assert.Equal(t, map[types.ContactField]string{
		types.FieldTitle:   "CTO",
		types.FieldCompany: "Acme",
		types.FieldEmail:   "jane@acme.com",
	}, res.Entities)
}

func TestRuleResolver_AddVariants(t *testing.T) {
	r := NewRuleResolver()

	res, _ := r.Resolve(context.Background(), "add contact", idle)
	assert.Equal(t, types.IntentAddContact, res.Intent)
	assert.Empty(t, res.TargetContact)

	res, _ = r.Resolve(context.Background(), "add alice walker", idle)
	assert.Equal(t, types.IntentAddContact, res.Intent)
	assert.Equal(t, "Alice Walker", res.TargetContact)

	res, _ = r.Resolve(context.Background(), "new contact: Ryan", idle)
	assert.Equal(t, types.IntentAddContact, res.Intent)
	assert.Equal(t, "Ryan", res.TargetContact)

	res, _ = r.Resolve(context.Background(), "add a note: likes golf", collecting)
	assert.Equal(t, types.IntentUpdateContact, res.Intent)
	assert.Equal(t, "likes golf", res.Entities[types.FieldNotes])
}

func TestRuleResolver_NewPersonMidDraft(t *testing.T) {
	res, err := NewRuleResolver().Resolve(context.Background(), "Bob Smith is the CFO at Initech", collecting)
	require.NoError(t, err)
	assert.Equal(t, types.IntentAddContact, res.Intent)
	assert.Equal(t, "Bob Smith", res.TargetContact)
	assert.Equal(t, "CFO", res.Entities[types.FieldTitle])
	assert.Equal(t, "Initech", res.Entities[types.FieldCompany])
}

func TestRuleResolver_PossessiveTargetsNamedContact(t *testing.T) {
	res, err := NewRuleResolver().Resolve(context.Background(), "Ryan's phone is 555-123-4567", collecting)
	require.NoError(t, err)
	assert.Equal(t, types.IntentUpdateContact, res.Intent)
	assert.Equal(t, "Ryan", res.TargetContact)
	assert.Equal(t, "555-123-4567", res.Entities[types.FieldPhone])
}

func TestRuleResolver_LockedNameIsTargeted(t *testing.T) {
	ctx := collecting
	ctx.LockedContacts = []string{"bob smith"}
	res, err := NewRuleResolver().Resolve(context.Background(), "Bob Smith works at Globex", ctx)
	require.NoError(t, err)
	assert.Equal(t, types.IntentUpdateContact, res.Intent)
	assert.Equal(t, "Bob Smith", res.TargetContact)
	assert.Equal(t, "Globex", res.Entities[types.FieldCompany])
}

func TestRuleResolver_TitlesOnlyWhileCollecting(t *testing.T) {
	r := NewRuleResolver()

	res, _ := r.Resolve(context.Background(), "CTO", collecting)
	assert.Equal(t, types.IntentUpdateContact, res.Intent)
	assert.Equal(t, "CTO", res.Entities[types.FieldTitle])

	res, _ = r.Resolve(context.Background(), "vp of sales", collecting)
	assert.Equal(t, "VP of Sales", res.Entities[types.FieldTitle])

	res, _ = r.Resolve(context.Background(), "CTO", idle)
	assert.Equal(t, types.IntentUnknown, res.Intent)
}

func TestRuleResolver_EntityPhrases(t *testing.T) {
	tests := []struct {
		text  string
		field types.ContactField
		want  string
	}{
		{"she is an investor", types.FieldClassification, "investor"},
		{"classify him as vc", types.FieldClassification, "investor"},
		{"works at Globex", types.FieldCompany, "Globex"},
		{"based in Berlin", types.FieldLocation, "Berlin"},
		{"in the fintech industry", types.FieldIndustry, "fintech"},
		{"linkedin.com/in/janedoe", types.FieldLinkedIn, "https://linkedin.com/in/janedoe"},
		{"+1 (415) 555-0100", types.FieldPhone, "+1 (415) 555-0100"},
		{"email: JANE@ACME.COM", types.FieldEmail, "jane@acme.com"},
	}
	r := NewRuleResolver()
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			res, err := r.Resolve(context.Background(), tt.text, collecting)
			require.NoError(t, err)
			assert.Equal(t, types.IntentUpdateContact, res.Intent)
			assert.Equal(t, tt.want, res.Entities[tt.field])
		})
	}
}

func TestRuleResolver_Commands(t *testing.T) {
	r := NewRuleResolver()

	res, _ := r.Resolve(context.Background(), "what is Jane's email?", idle)
	assert.Equal(t, types.IntentQueryContact, res.Intent)
	assert.Equal(t, "Jane", res.TargetContact)
	assert.Equal(t, types.FieldEmail, res.QueryField)

	res, _ = r.Resolve(context.Background(), "what's the phone number of Bob Smith", idle)
	assert.Equal(t, types.IntentQueryContact, res.Intent)
	assert.Equal(t, "Bob Smith", res.TargetContact)
	assert.Equal(t, types.FieldPhone, res.QueryField)

	res, _ = r.Resolve(context.Background(), "show Jane Doe", idle)
	assert.Equal(t, types.IntentViewContact, res.Intent)
	assert.Equal(t, "Jane Doe", res.TargetContact)

	res, _ = r.Resolve(context.Background(), "show all contacts", idle)
	assert.Equal(t, types.IntentSearch, res.Intent)
	assert.Empty(t, res.ActionRequest)

	res, _ = r.Resolve(context.Background(), "find investors in fintech", idle)
	assert.Equal(t, types.IntentSearch, res.Intent)
	assert.Equal(t, "investors in fintech", res.ActionRequest)

	res, _ = r.Resolve(context.Background(), "research Acme Corp", idle)
	assert.Equal(t, types.IntentSearch, res.Intent)
	assert.Equal(t, "Acme Corp", res.TargetContact)
	assert.Equal(t, "research", res.ActionRequest)

	res, _ = r.Resolve(context.Background(), "unlock jane doe", idle)
	assert.Equal(t, types.IntentUnlock, res.Intent)
	assert.Equal(t, "Jane Doe", res.TargetContact)

	res, _ = r.Resolve(context.Background(), "introduce Ryan to Ahmed", idle)
	assert.Equal(t, types.IntentIntro, res.Intent)
	assert.Equal(t, "Ryan", res.ActionRequest)
	assert.Equal(t, "Ahmed", res.TargetContact)

	res, _ = r.Resolve(context.Background(), "can you draft a message to Bob?", idle)
	assert.Equal(t, types.IntentGeneralRequest, res.Intent)
	assert.Equal(t, "can you draft a message to Bob?", res.ActionRequest)
}
