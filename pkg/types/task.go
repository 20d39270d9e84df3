package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskType identifies the kind of dialog work an ActiveTask carries.
type TaskType string

// Task type constants
const (
	TaskContactDraft TaskType = "CONTACT_DRAFT"
	TaskIntroDraft   TaskType = "INTRO_DRAFT"
)

// TaskStatus is the position of a task in the stack lifecycle.
type TaskStatus string

// Task status constants
const (
	TaskActive    TaskStatus = "ACTIVE"
	TaskParked    TaskStatus = "PARKED"
	TaskCompleted TaskStatus = "COMPLETED"
)

// TaskSlots is the task-type-specific payload of an ActiveTask. The set of
// implementations is closed by the unexported marker method; type switches
// over TaskSlots list every implementation.
type TaskSlots interface {
	TaskType() TaskType
	isTaskSlots()
}

// ContactDraftSlots holds the contact being built by a CONTACT_DRAFT task.
type ContactDraftSlots struct {
	Contact *Contact
}

// TaskType implements TaskSlots.
func (*ContactDraftSlots) TaskType() TaskType { return TaskContactDraft }
func (*ContactDraftSlots) isTaskSlots()       {}

// IntroDraftSlots holds the parties of an introduction being drafted.
type IntroDraftSlots struct {
	Connector string // who makes the introduction
	Target    string // who is being introduced
	Purpose   string
}

// TaskType implements TaskSlots.
func (*IntroDraftSlots) TaskType() TaskType { return TaskIntroDraft }
func (*IntroDraftSlots) isTaskSlots()       {}

// ActiveTask is one unit of dialog work on a user's task stack.
type ActiveTask struct {
	ID        string
	Type      TaskType
	Status    TaskStatus
	Slots     TaskSlots
	Label     string
	CreatedAt time.Time
}

// NewContactDraftTask wraps c in a CONTACT_DRAFT task.
func NewContactDraftTask(c *Contact) *ActiveTask {
	label := "New contact"
	if c.HasIdentity() {
		label = "Contact: " + c.Name
	}
	return newTask(&ContactDraftSlots{Contact: c}, label)
}

// NewIntroDraftTask creates an INTRO_DRAFT task for connector introducing target.
func NewIntroDraftTask(connector, target string) *ActiveTask {
	return newTask(&IntroDraftSlots{Connector: connector, Target: target},
		fmt.Sprintf("Intro: %s -> %s", connector, target))
}

func newTask(slots TaskSlots, label string) *ActiveTask {
	return &ActiveTask{
		ID:        uuid.NewString(),
		Type:      slots.TaskType(),
		Status:    TaskActive,
		Slots:     slots,
		Label:     label,
		CreatedAt: time.Now(),
	}
}

// ContactSlots returns the contact draft payload, or nil when the task is
// not a CONTACT_DRAFT.
func (t *ActiveTask) ContactSlots() *ContactDraftSlots {
	if t == nil {
		return nil
	}
	switch s := t.Slots.(type) {
	case *ContactDraftSlots:
		return s
	case *IntroDraftSlots:
		return nil
	}
	return nil
}

// IntroSlots returns the intro draft payload, or nil when the task is not an
// INTRO_DRAFT.
func (t *ActiveTask) IntroSlots() *IntroDraftSlots {
	if t == nil {
		return nil
	}
	switch s := t.Slots.(type) {
	case *IntroDraftSlots:
		return s
	case *ContactDraftSlots:
		return nil
	}
	return nil
}

// Contact returns the draft contact of a CONTACT_DRAFT task, or nil.
func (t *ActiveTask) Contact() *Contact {
	if s := t.ContactSlots(); s != nil {
		return s.Contact
	}
	return nil
}
