package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/scrypster/rolodex/internal/config"
	"github.com/scrypster/rolodex/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, mutate func(*config.SessionConfig)) (*MemoryService, *fakeClock) {
	t.Helper()
	cfg := config.DefaultSessionConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	clock := newFakeClock()
	return NewMemoryService(cfg, WithClock(clock.Now)), clock
}

func TestMemoryService_LazyCreate(t *testing.T) {
	svc, _ := newTestService(t, nil)
	assert.Equal(t, 0, svc.Len())

	m := svc.Get("alice")
	require.NotNil(t, m)
	assert.Equal(t, "alice", m.UserID)
	assert.Equal(t, types.StateIdle, m.State())
	assert.Same(t, m, svc.Get("alice"), "second Get returns the same session")
	assert.Equal(t, 1, svc.Len())
}

func TestMemoryService_UsersAreIsolated(t *testing.T) {
	svc, _ := newTestService(t, nil)
	svc.StartCollecting("alice", &types.Contact{Name: "Ryan"})

	assert.Nil(t, svc.PendingContact("bob"))
	assert.Equal(t, types.StateIdle, svc.State("bob"))
	assert.Equal(t, "Ryan", svc.PendingContact("alice").Name)
}

// TestMemoryService_ExpiredMemoryIsReplaced checks that an idle session past
// the expiry is swapped for a fresh IDLE one, dropping pending and locked
// state.
func TestMemoryService_ExpiredMemoryIsReplaced(t *testing.T) {
	svc, clock := newTestService(t, nil)

	svc.StartCollecting("alice", &types.Contact{Name: "Jane"})
	svc.HardReset("alice", "Jane")
	svc.StartCollecting("alice", &types.Contact{Name: "Ryan"})
	old := svc.Get("alice")

	clock.Advance(61 * time.Minute)

	fresh := svc.Get("alice")
	assert.NotSame(t, old, fresh)
	assert.Equal(t, types.StateIdle, fresh.State())
	assert.Nil(t, fresh.PendingContact())
	assert.False(t, fresh.IsContactLocked("Jane"))
	assert.Empty(t, fresh.RecentContacts())
}

func TestMemoryService_ActivityKeepsMemoryAlive(t *testing.T) {
	svc, clock := newTestService(t, nil)
	m := svc.Get("alice")

	for i := 0; i < 5; i++ {
		clock.Advance(50 * time.Minute)
		svc.Get("alice").Touch()
	}
	assert.Same(t, m, svc.Get("alice"))
}

func TestMemoryService_OpportunisticSweep(t *testing.T) {
	svc, clock := newTestService(t, func(c *config.SessionConfig) { c.SweepThreshold = 3 })

	for i := 0; i < 3; i++ {
		svc.Get(fmt.Sprintf("user-%d", i))
	}
	assert.Equal(t, 3, svc.Len())

	clock.Advance(2 * time.Hour)
	svc.Get("late-user") // pushes the registry past the threshold

	assert.Equal(t, 1, svc.Len())
	_, ok := svc.Peek("user-0")
	assert.False(t, ok)
}

func TestMemoryService_Sweep(t *testing.T) {
	svc, clock := newTestService(t, nil)
	svc.Get("a")
	svc.Get("b")
	clock.Advance(30 * time.Minute)
	svc.Get("c")
	clock.Advance(40 * time.Minute)

	assert.Equal(t, 2, svc.Sweep())
	assert.Equal(t, 1, svc.Len())
	assert.Equal(t, 0, svc.Sweep())
}

func TestMemoryService_Reset(t *testing.T) {
	svc, _ := newTestService(t, nil)
	svc.StartCollecting("alice", &types.Contact{Name: "Ryan"})
	svc.Reset("alice")
	_, ok := svc.Peek("alice")
	assert.False(t, ok)
	assert.Nil(t, svc.PendingContact("alice"))
}

func TestMemoryService_Delegations(t *testing.T) {
	svc, _ := newTestService(t, nil)

	ok, err := svc.UpdatePending("alice", map[types.ContactField]string{types.FieldEmail: "x@y.com"})
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, svc.CancelPending("alice"))

	svc.StartCollecting("alice", &types.Contact{Name: "Ryan"})
	ok, err = svc.UpdatePending("alice", map[types.ContactField]string{types.FieldEmail: "ryan@example.com"})
	require.NoError(t, err)
	assert.True(t, ok)
	svc.HardReset("alice", "Ryan")
	assert.True(t, svc.IsContactLocked("alice", "ryan"))
	assert.Equal(t, types.StateIdle, svc.State("alice"))

	c := svc.UnlockContact("alice", "Ryan")
	require.NotNil(t, c)
	assert.Equal(t, "ryan@example.com", c.Email)
	assert.Equal(t, types.StateCollecting, svc.State("alice"))
}

func TestMemoryService_ConcurrentUsers(t *testing.T) {
	svc, _ := newTestService(t, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", i)
			svc.StartCollecting(user, &types.Contact{Name: fmt.Sprintf("Contact %d", i)})
			_, err := svc.UpdatePending(user, map[types.ContactField]string{types.FieldCompany: "Acme"})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, svc.Len())
	for i := 0; i < 50; i++ {
		c := svc.PendingContact(fmt.Sprintf("user-%d", i))
		require.NotNil(t, c)
		assert.Equal(t, fmt.Sprintf("Contact %d", i), c.Name)
		assert.Equal(t, "Acme", c.Company)
	}
}

func TestMemoryService_SweepWhileSessionsMutate(t *testing.T) {
	svc, _ := newTestService(t, nil)

	done := make(chan struct{})
	swept := make(chan struct{})
	go func() {
		defer close(swept)
		for {
			select {
			case <-done:
				return
			default:
				svc.Sweep()
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m := svc.Get(fmt.Sprintf("user-%d", i))
			for j := 0; j < 100; j++ {
				m.Touch()
				m.StartCollecting(&types.Contact{Name: "Ryan"})
			}
		}(i)
	}
	wg.Wait()
	close(done)
	<-swept

	assert.Equal(t, 8, svc.Len(), "active sessions survive the sweep")
}
