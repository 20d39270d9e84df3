package llm

import (
	"fmt"
	"strings"

	"github.com/scrypster/rolodex/pkg/types"
)

// BuildIntentPrompt renders the strict JSON-only intent classification
// prompt for message, given the current conversation context.
func BuildIntentPrompt(message string, c types.ConversationContext) string {
	intents := make([]string, 0, len(types.ValidIntents))
	for _, i := range types.ValidIntents {
		intents = append(intents, string(i))
	}
	fields := make([]string, 0, len(types.AllContactFields))
	for _, f := range types.AllContactFields {
		fields = append(fields, string(f))
	}

	current := c.CurrentContact
	if current == "" {
		current = "none"
	}
	recent := "none"
	if len(c.RecentContacts) > 0 {
		recent = strings.Join(c.RecentContacts, ", ")
	}
	locked := "none"
	if len(c.LockedContacts) > 0 {
		locked = strings.Join(c.LockedContacts, ", ")
	}
	parked := "none"
	if len(c.ParkedTasks) > 0 {
		parked = strings.Join(c.ParkedTasks, "; ")
	}

	return fmt.Sprintf(`TASK: Classify a chat message sent to a contact-management assistant.
OUTPUT: ONLY valid JSON. NO markdown. NO code blocks. NO backticks.

CONVERSATION STATE: %s
CONTACT BEING EDITED: %s
RECENT CONTACTS: %s
SAVED (LOCKED) CONTACTS: %s
PARKED TASKS: %s

INTENTS (choose exactly one): %s
ENTITY FIELDS (only these keys): %s
CLASSIFICATION VALUES: founder, investor, enabler, professional

RULES:
- A new person's name with details means add_contact.
- Details about the contact being edited mean update_contact with no target_contact.
- Naming a different person than the one being edited sets target_contact to that name.
- "done", "save", "that's all" mean finish. "cancel", "never mind" mean cancel.
- "edit <name>" or "unlock <name>" for a saved contact means unlock.
- "introduce A to B" means intro with target_contact B and action_request A.
- Questions like "what is X's email" mean query_contact with query_field set to the field.
- Only include entities that are stated in the message. Never invent values.
- Remove filler words from values ("his email is x" -> "x").

REQUIRED JSON STRUCTURE:
{"intent": "<intent>", "target_contact": "<name or null>", "entities": {"<field>": "<value>"}, "query_field": "<field or null>", "action_request": "<short description or null>", "confidence": 0.0}

MESSAGE:
%s

JSON:`, c.State, current, recent, locked, parked,
		strings.Join(intents, ", "), strings.Join(fields, ", "), message)
}
