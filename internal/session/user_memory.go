package session

import (
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/scrypster/rolodex/internal/config"
	"github.com/scrypster/rolodex/pkg/types"
)

// UserMemory is the full conversational state of one user.
//
// The pending and current contact views are derived from the task stack:
// both return the contact of the active CONTACT_DRAFT task, so they can
// never drift from the stack.
//
// A UserMemory is owned by one logical session at a time and is not safe for
// concurrent use. The conversation engine serializes messages per user. The
// one exception is the activity timestamp: the registry sweep reads it
// without holding the user's lock, so it is stored atomically.
type UserMemory struct {
	UserID string

	stack  TaskStack
	locked map[string]*types.Contact // normalized name -> saved snapshot
	recent []*types.Contact          // most recent last
	state  types.ConversationState

	lastActivity  atomic.Int64 // unix nanoseconds
	lastMessageAt time.Time
	messageCount  int

	cfg config.SessionConfig
	now func() time.Time
}

// NewUserMemory creates an idle session for userID. A nil now uses time.Now.
func NewUserMemory(userID string, cfg config.SessionConfig, now func() time.Time) *UserMemory {
	if now == nil {
		now = time.Now
	}
	if cfg.RecentContacts <= 0 {
		cfg.RecentContacts = config.DefaultSessionConfig().RecentContacts
	}
	m := &UserMemory{
		UserID: userID,
		locked: make(map[string]*types.Contact),
		state:  types.StateIdle,
		cfg:    cfg,
		now:    now,
	}
	m.touch()
	return m
}

// State returns the conversation state.
func (m *UserMemory) State() types.ConversationState { return m.state }

// SetState overrides the conversation state. It is used for the CONFIRMING
// round-trip, which has no dedicated transition.
func (m *UserMemory) SetState(s types.ConversationState) {
	if types.IsValidConversationState(s) {
		m.state = s
		m.touch()
	}
}

// ActiveTask returns the top of the task stack, or nil.
func (m *UserMemory) ActiveTask() *types.ActiveTask { return m.stack.Active() }

// ParkedTasks returns the parked tasks, most recently parked first.
func (m *UserMemory) ParkedTasks() []*types.ActiveTask { return m.stack.Parked() }

// Tasks returns a copy of the task stack, bottom first.
func (m *UserMemory) Tasks() []*types.ActiveTask { return m.stack.Tasks() }

// PendingContact returns the contact of the active CONTACT_DRAFT task, or nil.
func (m *UserMemory) PendingContact() *types.Contact {
	top := m.stack.Active()
	if top == nil || top.Status != types.TaskActive {
		return nil
	}
	return top.Contact()
}

// CurrentContact is the contact in focus. It mirrors PendingContact.
func (m *UserMemory) CurrentContact() *types.Contact { return m.PendingContact() }

// LastActivity returns the time of the last mutation or message.
// It is safe to call concurrently with the session's own mutations.
func (m *UserMemory) LastActivity() time.Time {
	return time.Unix(0, m.lastActivity.Load())
}

// MessageCount returns the number of messages recorded with Touch.
func (m *UserMemory) MessageCount() int { return m.messageCount }

// StartCollecting pushes a new CONTACT_DRAFT task for c, parking whatever
// was active, and switches to COLLECTING.
func (m *UserMemory) StartCollecting(c *types.Contact) *types.ActiveTask {
	if c == nil {
		c = &types.Contact{}
	}
	task := types.NewContactDraftTask(c)
	task.CreatedAt = m.now()
	m.stack.Push(task)
	m.state = types.StateCollecting
	m.remember(c)
	m.touch()
	return task
}

// PushIntro pushes an INTRO_DRAFT task, parking whatever was active.
func (m *UserMemory) PushIntro(connector, target string) *types.ActiveTask {
	task := types.NewIntroDraftTask(connector, target)
	task.CreatedAt = m.now()
	m.stack.Push(task)
	m.state = types.StateCollecting
	m.touch()
	return task
}

// ActiveIntro returns the slots of the active INTRO_DRAFT task, or nil.
func (m *UserMemory) ActiveIntro() *types.IntroDraftSlots {
	top := m.stack.Active()
	if top == nil || top.Status != types.TaskActive {
		return nil
	}
	return top.IntroSlots()
}

// CompleteIntro completes the active INTRO_DRAFT task and resumes whatever
// was parked beneath it. It returns nil when the active task is not an intro.
func (m *UserMemory) CompleteIntro() *types.IntroDraftSlots {
	intro := m.ActiveIntro()
	if intro == nil {
		return nil
	}
	m.stack.CompleteActive()
	m.resumeOrIdle()
	m.touch()
	return intro
}

// UpdatePending applies non-empty updates to the active draft contact. It
// reports false when there is no active CONTACT_DRAFT, when the draft's name
// is locked, or when nothing changed. Values the contact rejects, such as an
// unknown classification, are returned in the joined error while the valid
// updates still apply.
func (m *UserMemory) UpdatePending(updates map[types.ContactField]string) (bool, error) {
	c := m.PendingContact()
	if c == nil {
		return false, nil
	}
	if m.IsContactLocked(c.Name) {
		return false, nil
	}
	if newName, ok := updates[types.FieldName]; ok && m.IsContactLocked(newName) {
		// Renaming a draft onto a saved contact would bypass the lock.
		filtered := make(map[types.ContactField]string, len(updates))
		for k, v := range updates {
			if k != types.FieldName {
				filtered[k] = v
			}
		}
		updates = filtered
	}

	applied, err := c.ApplyFields(updates)
	if len(applied) == 0 {
		return false, err
	}
	if top := m.stack.Active(); top != nil && c.HasIdentity() {
		top.Label = "Contact: " + c.Name
	}
	m.remember(c)
	m.touch()
	return true, err
}

// UpdatePendingRaw is UpdatePending for raw field keys. Unknown keys are
// reported in the error; valid keys are still applied.
func (m *UserMemory) UpdatePendingRaw(updates map[string]string) (bool, error) {
	typed, err := types.ParseFieldMap(updates)
	ok, applyErr := m.UpdatePending(typed)
	return ok, errors.Join(err, applyErr)
}

// HardReset is the post-save transition. The saved contact is locked under
// its normalized name, the active draft is completed, and the task beneath
// it (if any) resumes. With nothing to resume the session returns to IDLE.
//
// Attributes mentioned after a save can therefore never land on the saved
// contact: it is no longer the pending contact and its name is locked.
func (m *UserMemory) HardReset(savedName string) {
	key := types.NormalizeName(savedName)

	var saved *types.Contact
	if top := m.stack.Active(); top != nil && top.Type == types.TaskContactDraft {
		saved = top.Contact()
		m.stack.CompleteActive()
	}
	if saved == nil && key != "" {
		if saved = m.recentExact(key); saved == nil {
			saved = types.NewContact(savedName)
		}
	}

	if saved != nil {
		if key == "" {
			key = saved.NormalizedName()
		}
		if key != "" {
			snapshot := saved.Clone()
			m.locked[key] = snapshot
			m.replaceRecent(key, snapshot)
		}
	}

	m.resumeOrIdle()
	m.touch()
}

// CancelPending drops the active task and resumes the one beneath it, which
// is returned. With nothing to cancel it returns nil and leaves the state
// untouched.
func (m *UserMemory) CancelPending() *types.ActiveTask {
	if m.stack.Len() == 0 {
		return nil
	}
	m.stack.CancelActive()
	resumed := m.resumeOrIdle()
	m.touch()
	return resumed
}

// SwitchTo moves the parked CONTACT_DRAFT for name back to the top of the
// stack, parking the current task. It returns the resumed contact, or nil
// when no parked draft matches.
func (m *UserMemory) SwitchTo(name string) *types.Contact {
	task := m.findDraft(name)
	if task == nil || task == m.stack.Active() {
		return nil
	}
	if !m.stack.Promote(task.ID) {
		return nil
	}
	m.state = types.StateCollecting
	m.remember(task.Contact())
	m.touch()
	return task.Contact()
}

// IsContactLocked reports whether name (case and whitespace insensitive)
// belongs to a saved contact.
func (m *UserMemory) IsContactLocked(name string) bool {
	key := types.NormalizeName(name)
	if key == "" {
		return false
	}
	_, ok := m.locked[key]
	return ok
}

// LockedContact returns the saved snapshot for name, or nil.
func (m *UserMemory) LockedContact(name string) *types.Contact {
	return m.locked[types.NormalizeName(name)]
}

// LockedNames returns the normalized names of all locked contacts.
func (m *UserMemory) LockedNames() []string {
	names := make([]string, 0, len(m.locked))
	for k := range m.locked {
		names = append(names, k)
	}
	return names
}

// UnlockContact re-opens a saved or recently seen contact for editing by
// pushing it as a new CONTACT_DRAFT. Whatever was active is parked. It
// returns nil when the name is neither locked nor in the recent cache.
func (m *UserMemory) UnlockContact(name string) *types.Contact {
	key := types.NormalizeName(name)
	if key == "" {
		return nil
	}

	if c, ok := m.locked[key]; ok {
		delete(m.locked, key)
		draft := c.Clone()
		m.StartCollecting(draft)
		return draft
	}

	if active := m.PendingContact(); active != nil && active.NormalizedName() == key {
		return active
	}
	if c := m.SwitchTo(name); c != nil {
		return c
	}
	if c := m.FindContactByName(name); c != nil {
		draft := c.Clone()
		m.StartCollecting(draft)
		return draft
	}
	return nil
}

// LockContact marks an externally loaded contact as saved without touching
// the task stack.
func (m *UserMemory) LockContact(c *types.Contact) {
	key := c.NormalizedName()
	if key == "" {
		return
	}
	snapshot := c.Clone()
	m.locked[key] = snapshot
	m.replaceRecent(key, snapshot)
	m.touch()
}

// FindContactByName looks name up in the recent-contacts cache, most recent
// first: exact normalized match, then any single name token (first or last
// name) matching. Locked contacts that fell out of the cache are checked
// last.
func (m *UserMemory) FindContactByName(name string) *types.Contact {
	key := types.NormalizeName(name)
	if key == "" {
		return nil
	}
	if c := m.recentExact(key); c != nil {
		return c
	}
	if c, ok := m.locked[key]; ok {
		return c
	}

	queryTokens := strings.Fields(key)
	for i := len(m.recent) - 1; i >= 0; i-- {
		if tokensOverlap(queryTokens, strings.Fields(m.recent[i].NormalizedName())) {
			return m.recent[i]
		}
	}
	for _, c := range m.locked {
		if tokensOverlap(queryTokens, strings.Fields(c.NormalizedName())) {
			return c
		}
	}
	return nil
}

// RecentContacts returns a copy of the recent-contacts cache, most recent last.
func (m *UserMemory) RecentContacts() []*types.Contact {
	out := make([]*types.Contact, len(m.recent))
	copy(out, m.recent)
	return out
}

// Touch records an inbound message.
func (m *UserMemory) Touch() {
	m.lastMessageAt = m.now()
	m.messageCount++
	m.touch()
}

// IsExpired reports whether the session has been idle longer than the
// configured expiry. Like LastActivity it may be called from another
// goroutine.
func (m *UserMemory) IsExpired() bool {
	return m.now().Sub(m.LastActivity()) > m.cfg.ExpiryAfter
}

// IsContinuation reports whether the previous message arrived within the
// continuation window. It is meant to be checked before Touch records the
// current message.
func (m *UserMemory) IsContinuation() bool {
	if m.lastMessageAt.IsZero() {
		return false
	}
	return m.now().Sub(m.lastMessageAt) < m.cfg.ContinuationWindow
}

// ShouldPromptTimeout reports whether a collecting user with a pending
// contact has gone quiet for longer than the timeout-prompt window.
func (m *UserMemory) ShouldPromptTimeout() bool {
	if m.state != types.StateCollecting || m.PendingContact() == nil {
		return false
	}
	if m.lastMessageAt.IsZero() {
		return false
	}
	return m.now().Sub(m.lastMessageAt) > m.cfg.TimeoutPrompt
}

// Snapshot returns the context handed to the intent resolver.
func (m *UserMemory) Snapshot() types.ConversationContext {
	ctx := types.ConversationContext{
		State:          m.state,
		LockedContacts: m.LockedNames(),
	}
	if c := m.PendingContact(); c != nil {
		ctx.CurrentContact = c.Summary()
		ctx.PendingName = c.Name
	}
	if top := m.stack.Active(); top != nil {
		ctx.HasActiveTask = true
		ctx.ActiveTaskType = top.Type
	}
	for _, c := range m.recent {
		if c.HasIdentity() {
			ctx.RecentContacts = append(ctx.RecentContacts, c.Name)
		}
	}
	for _, t := range m.stack.Parked() {
		ctx.ParkedTasks = append(ctx.ParkedTasks, t.Label)
	}
	return ctx
}

// resumeOrIdle re-activates the top of the stack after a pop. The state is
// COLLECTING when a task resumed and IDLE otherwise.
func (m *UserMemory) resumeOrIdle() *types.ActiveTask {
	resumed := m.stack.Resume()
	if resumed == nil {
		m.state = types.StateIdle
		return nil
	}
	m.state = types.StateCollecting
	if c := resumed.Contact(); c != nil {
		m.remember(c)
	}
	return resumed
}

// remember adds c to the recent-contacts cache, or moves it to the most
// recent position, evicting the oldest entries over capacity. Unnamed
// drafts are not cached.
func (m *UserMemory) remember(c *types.Contact) {
	if !c.HasIdentity() {
		return
	}
	key := c.NormalizedName()
	for i, r := range m.recent {
		if r == c || r.NormalizedName() == key {
			m.recent = append(m.recent[:i], m.recent[i+1:]...)
			break
		}
	}
	m.recent = append(m.recent, c)
	for len(m.recent) > m.cfg.RecentContacts {
		m.recent[0] = nil
		m.recent = m.recent[1:]
	}
}

// replaceRecent swaps the cache entry for key with c without reordering,
// appending when absent.
func (m *UserMemory) replaceRecent(key string, c *types.Contact) {
	for i, r := range m.recent {
		if r.NormalizedName() == key {
			m.recent[i] = c
			return
		}
	}
	m.remember(c)
}

func (m *UserMemory) recentExact(key string) *types.Contact {
	for i := len(m.recent) - 1; i >= 0; i-- {
		if m.recent[i].NormalizedName() == key {
			return m.recent[i]
		}
	}
	return nil
}

func (m *UserMemory) findDraft(name string) *types.ActiveTask {
	key := types.NormalizeName(name)
	if key == "" {
		return nil
	}
	exact := m.stack.Find(func(t *types.ActiveTask) bool {
		return t.Contact() != nil && t.Contact().NormalizedName() == key
	})
	if exact != nil {
		return exact
	}
	tokens := strings.Fields(key)
	return m.stack.Find(func(t *types.ActiveTask) bool {
		c := t.Contact()
		return c != nil && tokensOverlap(tokens, strings.Fields(c.NormalizedName()))
	})
}

func (m *UserMemory) touch() {
	m.lastActivity.Store(m.now().UnixNano())
}

func tokensOverlap(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
