package llm

import (
	"testing"

	"github.com/scrypster/rolodex/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestBuildIntentPrompt_IncludesContext(t *testing.T) {
	prompt := BuildIntentPrompt("his email is jane@acme.com", types.ConversationContext{
		State:          types.StateCollecting,
		CurrentContact: "Jane Doe, CTO at Acme",
		RecentContacts: []string{"Bob Smith", "Jane Doe"},
		LockedContacts: []string{"bob smith"},
		ParkedTasks:    []string{"Contact: Carl"},
	})

	assert.Contains(t, prompt, "CONVERSATION STATE: COLLECTING")
	assert.Contains(t, prompt, "CONTACT BEING EDITED: Jane Doe, CTO at Acme")
	assert.Contains(t, prompt, "RECENT CONTACTS: Bob Smith, Jane Doe")
	assert.Contains(t, prompt, "SAVED (LOCKED) CONTACTS: bob smith")
	assert.Contains(t, prompt, "PARKED TASKS: Contact: Carl")
	assert.Contains(t, prompt, "his email is jane@acme.com")
	for _, i := range types.ValidIntents {
		assert.Contains(t, prompt, string(i))
	}
}

func TestBuildIntentPrompt_EmptyContext(t *testing.T) {
	prompt := BuildIntentPrompt("hello", types.ConversationContext{State: types.StateIdle})
	assert.Contains(t, prompt, "CONTACT BEING EDITED: none")
	assert.Contains(t, prompt, "RECENT CONTACTS: none")
	assert.Contains(t, prompt, "PARKED TASKS: none")
}
