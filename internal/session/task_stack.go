// Package session holds per-user conversational state for the contact agent:
// a stack of in-progress dialog tasks, the user's locked and recently touched
// contacts, and a process-wide registry of sessions keyed by user id.
//
// Nothing in this package blocks or returns errors. Operations that find
// nothing to do report it through a bool or nil result, which callers are
// expected to turn into a reply ("nothing to cancel").
package session

import "github.com/scrypster/rolodex/pkg/types"

// TaskStack is a LIFO stack of dialog tasks. The top task is the active one;
// every task beneath it is parked.
//
// TaskStack is not safe for concurrent use.
type TaskStack struct {
	tasks []*types.ActiveTask // bottom first, top last
}

// Push makes task the active task. The previously active task, if any, is
// parked. Push never rejects a task.
func (s *TaskStack) Push(task *types.ActiveTask) {
	if task == nil {
		return
	}
	if top := s.Active(); top != nil {
		top.Status = types.TaskParked
	}
	task.Status = types.TaskActive
	s.tasks = append(s.tasks, task)
}

// Active returns the task at the top of the stack, or nil when empty.
func (s *TaskStack) Active() *types.ActiveTask {
	if len(s.tasks) == 0 {
		return nil
	}
	return s.tasks[len(s.tasks)-1]
}

// Parked returns every task below the top, most recently parked first.
func (s *TaskStack) Parked() []*types.ActiveTask {
	if len(s.tasks) < 2 {
		return nil
	}
	out := make([]*types.ActiveTask, 0, len(s.tasks)-1)
	for i := len(s.tasks) - 2; i >= 0; i-- {
		out = append(out, s.tasks[i])
	}
	return out
}

// CompleteActive pops the active task and marks it completed. The task that
// becomes the new top keeps its PARKED status; resuming it is the caller's
// decision (see Resume).
func (s *TaskStack) CompleteActive() *types.ActiveTask {
	top := s.pop()
	if top != nil {
		top.Status = types.TaskCompleted
	}
	return top
}

// CancelActive pops the active task and resumes the task beneath it, which
// is returned. It returns nil when no task becomes active.
func (s *TaskStack) CancelActive() *types.ActiveTask {
	if s.pop() == nil {
		return nil
	}
	return s.Resume()
}

// Resume marks the top task active and returns it, or nil when empty.
func (s *TaskStack) Resume() *types.ActiveTask {
	top := s.Active()
	if top != nil {
		top.Status = types.TaskActive
	}
	return top
}

// Promote moves the parked task with the given id to the top of the stack,
// parking the current active task. It returns false when no such task is
// parked.
func (s *TaskStack) Promote(taskID string) bool {
	for i := 0; i < len(s.tasks)-1; i++ {
		if s.tasks[i].ID != taskID {
			continue
		}
		task := s.tasks[i]
		s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
		s.Push(task)
		return true
	}
	return false
}

// Find returns the first task, searching from the top, for which match
// returns true.
func (s *TaskStack) Find(match func(*types.ActiveTask) bool) *types.ActiveTask {
	for i := len(s.tasks) - 1; i >= 0; i-- {
		if match(s.tasks[i]) {
			return s.tasks[i]
		}
	}
	return nil
}

// Len returns the number of tasks on the stack.
func (s *TaskStack) Len() int {
	return len(s.tasks)
}

// Tasks returns a copy of the stack, bottom first.
func (s *TaskStack) Tasks() []*types.ActiveTask {
	out := make([]*types.ActiveTask, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *TaskStack) pop() *types.ActiveTask {
	top := s.Active()
	if top == nil {
		return nil
	}
	s.tasks[len(s.tasks)-1] = nil
	s.tasks = s.tasks[:len(s.tasks)-1]
	return top
}
