package types

// ConversationState is the coarse dialog state of a user session.
type ConversationState string

// Conversation state constants
const (
	StateIdle       ConversationState = "IDLE"       // No draft in progress
	StateCollecting ConversationState = "COLLECTING" // Gathering fields for the active task
	StateConfirming ConversationState = "CONFIRMING" // Waiting for a yes/no on the active task
)

// IsValidConversationState checks if the given state is a known value.
func IsValidConversationState(s ConversationState) bool {
	switch s {
	case StateIdle, StateCollecting, StateConfirming:
		return true
	}
	return false
}
