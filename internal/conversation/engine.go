// Package conversation routes resolved intents against a user's session
// memory. It decides whether a message starts, updates, saves, cancels or
// switches a draft, answers queries without mutating anything, and calls the
// contact store and web search at the edges.
package conversation

import (
	"context"
	"errors"
	"hash/fnv"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/scrypster/rolodex/internal/intent"
	"github.com/scrypster/rolodex/internal/metrics"
	"github.com/scrypster/rolodex/internal/search"
	"github.com/scrypster/rolodex/internal/session"
	"github.com/scrypster/rolodex/internal/storage"
	"github.com/scrypster/rolodex/pkg/types"
)

var (
	// ErrMissingUser is returned when Handle is called without a user ID.
	ErrMissingUser = errors.New("user ID is required")

	// ErrEmptyMessage is returned for blank messages.
	ErrEmptyMessage = errors.New("message is empty")
)

// Reply is the agent's answer to one message.
type Reply struct {
	Text    string                  `json:"text"`
	Intent  types.Intent            `json:"intent"`
	State   types.ConversationState `json:"state"`
	Contact *types.Contact          `json:"contact,omitempty"` // pending draft after handling
}

const lockStripes = 64

// userLocks serializes messages per user. Users hash onto a fixed set of
// mutexes, so two users may share a stripe but one user never runs twice at
// once.
type userLocks struct {
	stripes [lockStripes]sync.Mutex
}

func (l *userLocks) lock(userID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	mu := &l.stripes[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

// Engine is the conversation engine. It is safe for concurrent use.
type Engine struct {
	memories *session.MemoryService
	resolver intent.Resolver
	store    storage.ContactStore
	searcher search.Searcher
	metrics  *metrics.Collector
	newID    func() string

	locks userLocks
}

// Option configures an Engine.
type Option func(*Engine)

// WithSearcher enables web research.
func WithSearcher(s search.Searcher) Option {
	return func(e *Engine) { e.searcher = s }
}

// WithMetrics records message and save metrics on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(e *Engine) { e.metrics = c }
}

// WithIDGenerator overrides how new contacts get their storage ID.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// New creates an engine. A nil resolver uses the rule resolver alone.
func New(memories *session.MemoryService, resolver intent.Resolver, store storage.ContactStore, opts ...Option) *Engine {
	if resolver == nil {
		resolver = intent.NewFallbackResolver(nil, nil)
	}
	e := &Engine{
		memories: memories,
		resolver: resolver,
		store:    store,
		searcher: search.Noop{},
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Handle processes one message from userID and returns the reply. Messages
// for the same user are applied strictly one at a time in arrival order.
func (e *Engine) Handle(ctx context.Context, userID, text string) (*Reply, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrMissingUser
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	unlock := e.locks.lock(userID)
	defer unlock()

	mem := e.memories.Get(userID)
	nudge := mem.ShouldPromptTimeout()
	var nudgeName string
	if nudge {
		nudgeName = mem.PendingContact().Name
	}
	continuation := mem.IsContinuation()

	res, err := e.resolver.Resolve(ctx, text, mem.Snapshot())
	if err != nil || res == nil {
		if err != nil {
			log.Printf("[conversation] resolve failed for user %s: %v", userID, err)
		}
		res = types.UnknownResult(types.SourceRules)
	}
	if res.Entities == nil {
		res.Entities = map[types.ContactField]string{}
	}
	mem.Touch()

	t := &turn{ctx: ctx, mem: mem, res: res, text: text, continuation: continuation}
	body := e.route(t)
	if nudge && nudgeName != "" {
		body = nudgeText(nudgeName) + body
	}

	e.metrics.RecordMessage(string(res.Intent), res.Source)
	e.metrics.SetSessions(e.memories.Len())

	reply := &Reply{
		Text:   body,
		Intent: res.Intent,
		State:  mem.State(),
	}
	if c := mem.PendingContact(); c != nil {
		reply.Contact = c.Clone()
	}
	return reply, nil
}

// Reset discards userID's session.
func (e *Engine) Reset(userID string) {
	unlock := e.locks.lock(userID)
	defer unlock()
	e.memories.Reset(userID)
	e.metrics.SetSessions(e.memories.Len())
}

// turn carries the state of one Handle call through the route handlers.
type turn struct {
	ctx          context.Context
	mem          *session.UserMemory
	res          *types.IntentResult
	text         string
	continuation bool
}

func (e *Engine) route(t *turn) string {
	res := t.res

	// Terse follow-ups carrying only field values continue the current draft.
	if res.HasEntities() && t.continuation && t.mem.PendingContact() != nil {
		switch res.Intent {
		case types.IntentConfirm, types.IntentUnknown, types.IntentGeneralRequest:
			return e.updatePending(t, res.Entities)
		}
	}

	switch res.Intent {
	case types.IntentGreeting:
		return greetingText(t.mem.PendingContact())
	case types.IntentThanks:
		return "You're welcome!"
	case types.IntentHelp:
		return helpText
	case types.IntentAddContact:
		return e.handleAdd(t)
	case types.IntentUpdateContact:
		return e.handleUpdate(t)
	case types.IntentFinish:
		return e.handleFinish(t)
	case types.IntentCancel:
		return e.handleCancel(t)
	case types.IntentUnlock:
		return e.handleUnlock(t)
	case types.IntentQueryContact:
		return e.handleQuery(t)
	case types.IntentViewContact:
		return e.handleView(t)
	case types.IntentSearch:
		return e.handleSearch(t)
	case types.IntentSummarize:
		return summaryText(t.mem)
	case types.IntentIntro:
		return e.handleIntro(t)
	case types.IntentConfirm:
		return e.handleConfirm(t)
	case types.IntentDeny:
		return e.handleDeny(t)
	case types.IntentGeneralRequest:
		return "I can only help with your contacts for now. Say \"help\" to see what I can do."
	default:
		return e.handleUnknown(t)
	}
}
