package types

import "strings"

// Intent is the classified purpose of a user message.
type Intent string

// Intent constants
const (
	IntentAddContact     Intent = "add_contact"
	IntentUpdateContact  Intent = "update_contact"
	IntentQueryContact   Intent = "query_contact"
	IntentViewContact    Intent = "view_contact"
	IntentFinish         Intent = "finish"
	IntentCancel         Intent = "cancel"
	IntentSearch         Intent = "search"
	IntentSummarize      Intent = "summarize"
	IntentConfirm        Intent = "confirm"
	IntentDeny           Intent = "deny"
	IntentGeneralRequest Intent = "general_request"
	IntentGreeting       Intent = "greeting"
	IntentThanks         Intent = "thanks"
	IntentHelp           Intent = "help"
	IntentUnlock         Intent = "unlock"
	IntentIntro          Intent = "intro"
	IntentUnknown        Intent = "unknown"
)

// ValidIntents contains every intent the resolver may return.
var ValidIntents = []Intent{
	IntentAddContact,
	IntentUpdateContact,
	IntentQueryContact,
	IntentViewContact,
	IntentFinish,
	IntentCancel,
	IntentSearch,
	IntentSummarize,
	IntentConfirm,
	IntentDeny,
	IntentGeneralRequest,
	IntentGreeting,
	IntentThanks,
	IntentHelp,
	IntentUnlock,
	IntentIntro,
	IntentUnknown,
}

// ParseIntent maps a raw label (case-insensitive, "ADD_CONTACT" or
// "add-contact" style) to an Intent.
func ParseIntent(raw string) (Intent, bool) {
	k := strings.ToLower(strings.TrimSpace(raw))
	k = strings.ReplaceAll(k, "-", "_")
	k = strings.ReplaceAll(k, " ", "_")
	for _, i := range ValidIntents {
		if Intent(k) == i {
			return i, true
		}
	}
	return IntentUnknown, false
}

// Resolution sources
const (
	SourceLLM   = "llm"
	SourceRules = "rules"
)

// IntentResult is the structured output of intent resolution.
type IntentResult struct {
	Intent        Intent
	TargetContact string
	Entities      map[ContactField]string
	QueryField    ContactField
	ActionRequest string
	Confidence    float64
	Source        string
}

// UnknownResult is the worst-case resolution: no intent, no entities.
func UnknownResult(source string) *IntentResult {
	return &IntentResult{
		Intent:   IntentUnknown,
		Entities: map[ContactField]string{},
		Source:   source,
	}
}

// HasEntities reports whether any entity field was extracted.
func (r *IntentResult) HasEntities() bool {
	return r != nil && len(r.Entities) > 0
}

// ConversationContext is the snapshot of session state handed to the
// intent resolver.
type ConversationContext struct {
	State          ConversationState
	CurrentContact string   // summary of the pending contact, empty if none
	PendingName    string   // name of the pending contact, empty if none
	RecentContacts []string // names, most recent last
	LockedContacts []string // normalized names
	ParkedTasks    []string // labels, most recently parked first
	HasActiveTask  bool
	ActiveTaskType TaskType
}
