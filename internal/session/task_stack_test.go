package session

import (
	"fmt"
	"testing"

	"github.com/scrypster/rolodex/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countActive(tasks []*types.ActiveTask) int {
	n := 0
	for _, t := range tasks {
		if t.Status == types.TaskActive {
			n++
		}
	}
	return n
}

func TestTaskStack_EmptyActiveIsNil(t *testing.T) {
	var s TaskStack
	assert.Nil(t, s.Active())
	assert.Nil(t, s.Parked())
	assert.Nil(t, s.CompleteActive())
	assert.Nil(t, s.CancelActive())
	assert.Equal(t, 0, s.Len())
}

// TestTaskStack_SingleActive checks that after any number of pushes exactly
// one task is ACTIVE and it is the most recently pushed one.
func TestTaskStack_SingleActive(t *testing.T) {
	var s TaskStack
	var last *types.ActiveTask
	for i := 0; i < 6; i++ {
		if i%2 == 0 {
			last = types.NewContactDraftTask(types.NewContact(fmt.Sprintf("Contact %d", i)))
		} else {
			last = types.NewIntroDraftTask("A", fmt.Sprintf("B%d", i))
		}
		s.Push(last)

		tasks := s.Tasks()
		assert.Equal(t, 1, countActive(tasks), "after push %d", i)
		assert.Same(t, last, s.Active())
		assert.Equal(t, types.TaskActive, last.Status)
	}
	assert.Len(t, s.Parked(), 5)
	for _, p := range s.Parked() {
		assert.Equal(t, types.TaskParked, p.Status)
	}
}

func TestTaskStack_ParkedOrder(t *testing.T) {
	var s TaskStack
	a := types.NewContactDraftTask(types.NewContact("A"))
	b := types.NewContactDraftTask(types.NewContact("B"))
	c := types.NewContactDraftTask(types.NewContact("C"))
	s.Push(a)
	s.Push(b)
	s.Push(c)

	parked := s.Parked()
	require.Len(t, parked, 2)
	assert.Same(t, b, parked[0], "most recently parked first")
	assert.Same(t, a, parked[1])
}

func TestTaskStack_CompleteDoesNotResume(t *testing.T) {
	var s TaskStack
	a := types.NewContactDraftTask(types.NewContact("A"))
	b := types.NewContactDraftTask(types.NewContact("B"))
	s.Push(a)
	s.Push(b)

	done := s.CompleteActive()
	assert.Same(t, b, done)
	assert.Equal(t, types.TaskCompleted, b.Status)
	assert.Same(t, a, s.Active())
	assert.Equal(t, types.TaskParked, a.Status, "complete leaves the new top parked")

	assert.Same(t, a, s.Resume())
	assert.Equal(t, types.TaskActive, a.Status)
}

// TestTaskStack_ParkResumeRoundTrip pushes B over A, cancels B and checks A
// comes back active with its slots untouched.
func TestTaskStack_ParkResumeRoundTrip(t *testing.T) {
	var s TaskStack
	ryan := &types.Contact{Name: "Ryan", Email: "ryan@example.com", Company: "Initech"}
	before := *ryan
	a := types.NewContactDraftTask(ryan)
	s.Push(a)

	b := types.NewContactDraftTask(types.NewContact("Ahmed"))
	s.Push(b)
	_, _ = b.Contact().Set(types.FieldEmail, "ahmed@example.com")
	_, _ = b.Contact().Set(types.FieldCompany, "Globex")

	resumed := s.CancelActive()
	require.NotNil(t, resumed)
	assert.Same(t, a, resumed)
	assert.Equal(t, types.TaskActive, a.Status)
	assert.Equal(t, before.Email, a.Contact().Email)
	assert.Equal(t, before.Company, a.Contact().Company)
	assert.Equal(t, 1, s.Len())
}

func TestTaskStack_Promote(t *testing.T) {
	var s TaskStack
	a := types.NewContactDraftTask(types.NewContact("A"))
	b := types.NewContactDraftTask(types.NewContact("B"))
	c := types.NewContactDraftTask(types.NewContact("C"))
	s.Push(a)
	s.Push(b)
	s.Push(c)

	require.True(t, s.Promote(a.ID))
	assert.Same(t, a, s.Active())
	assert.Equal(t, 1, countActive(s.Tasks()))
	assert.Equal(t, types.TaskParked, c.Status)
	assert.Equal(t, 3, s.Len())

	assert.False(t, s.Promote(a.ID), "the active task cannot be promoted")
	assert.False(t, s.Promote("missing"))
}
