// Package intent turns a free-text chat message plus a snapshot of the
// user's conversation into a structured intent with cleaned entities.
//
// Two strategies implement Resolver: LLMResolver asks a language model for a
// JSON classification, and RuleResolver applies deterministic keyword and
// pattern rules. FallbackResolver composes them so that an unreachable or
// confused model degrades the agent instead of breaking it.
package intent

import (
	"context"
	"errors"
	"log"

	"github.com/scrypster/rolodex/pkg/types"
)

// ErrNilResult is reported to the fallback hook when the primary resolver
// returns neither a result nor an error.
var ErrNilResult = errors.New("resolver returned no result")

// Resolver classifies one message in context.
type Resolver interface {
	Resolve(ctx context.Context, text string, c types.ConversationContext) (*types.IntentResult, error)
}

// FallbackResolver tries a primary resolver and falls back to a second one
// on any failure. Its Resolve never returns an error.
type FallbackResolver struct {
	primary    Resolver
	fallback   Resolver
	onFallback func(reason error)
}

// FallbackOption configures a FallbackResolver.
type FallbackOption func(*FallbackResolver)

// WithFallbackHook registers fn to be called every time the fallback path
// runs because the primary failed.
func WithFallbackHook(fn func(reason error)) FallbackOption {
	return func(r *FallbackResolver) { r.onFallback = fn }
}

// NewFallbackResolver composes primary and fallback. A nil primary means
// every message goes straight to the fallback.
func NewFallbackResolver(primary, fallback Resolver, opts ...FallbackOption) *FallbackResolver {
	if fallback == nil {
		fallback = NewRuleResolver()
	}
	r := &FallbackResolver{primary: primary, fallback: fallback}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs the primary resolver. When it errors or returns nothing the
// fallback result is used instead. When the primary succeeds, high-precision
// pattern entities (email, phone, LinkedIn) it missed are merged in; existing
// values are never overwritten. An UNKNOWN primary result defers to a
// fallback result that recognized the message.
func (r *FallbackResolver) Resolve(ctx context.Context, text string, c types.ConversationContext) (*types.IntentResult, error) {
	if r.primary == nil {
		return r.runFallback(ctx, text, c), nil
	}

	res, err := r.primary.Resolve(ctx, text, c)
	if err == nil && res == nil {
		err = ErrNilResult
	}
	if err != nil {
		log.Printf("[intent] primary resolver failed, using rules: %v", err)
		if r.onFallback != nil {
			r.onFallback(err)
		}
		return r.runFallback(ctx, text, c), nil
	}

	if res.Entities == nil {
		res.Entities = map[types.ContactField]string{}
	}

	if res.Intent == types.IntentUnknown {
		if alt := r.runFallback(ctx, text, c); alt.Intent != types.IntentUnknown {
			return alt, nil
		}
	}

	for f, v := range ExtractPatterns(text) {
		if res.Entities[f] == "" {
			res.Entities[f] = v
		}
	}
	return res, nil
}

func (r *FallbackResolver) runFallback(ctx context.Context, text string, c types.ConversationContext) *types.IntentResult {
	res, err := r.fallback.Resolve(ctx, text, c)
	if err != nil || res == nil {
		return types.UnknownResult(types.SourceRules)
	}
	if res.Entities == nil {
		res.Entities = map[types.ContactField]string{}
	}
	return res
}

var _ Resolver = (*FallbackResolver)(nil)
