package intent

import (
	"context"
	"errors"
	"fmt"

	"github.com/scrypster/rolodex/internal/llm"
	"github.com/scrypster/rolodex/pkg/types"
)

// ErrNoGenerator is returned by an LLMResolver built without a model.
var ErrNoGenerator = errors.New("no text generator configured")

// LLMResolver classifies messages with a language model.
type LLMResolver struct {
	gen llm.TextGenerator
}

// NewLLMResolver creates a resolver backed by gen.
func NewLLMResolver(gen llm.TextGenerator) *LLMResolver {
	return &LLMResolver{gen: gen}
}

// Resolve renders the intent prompt, calls the model and parses its answer.
// Any call failure, malformed JSON or unknown intent label is an error; the
// caller is expected to fall back.
func (r *LLMResolver) Resolve(ctx context.Context, text string, c types.ConversationContext) (*types.IntentResult, error) {
	if r.gen == nil {
		return nil, ErrNoGenerator
	}

	out, err := r.gen.Complete(ctx, llm.BuildIntentPrompt(text, c))
	if err != nil {
		return nil, fmt.Errorf("intent completion: %w", err)
	}

	resp, err := llm.ParseIntentResponse(out)
	if err != nil {
		return nil, err
	}

	intent, _ := types.ParseIntent(resp.Intent)
	result := &types.IntentResult{
		Intent:        intent,
		TargetContact: cleanName(resp.TargetContact),
		Entities:      CleanEntities(resp.Entities),
		ActionRequest: resp.ActionRequest,
		Confidence:    resp.Confidence,
		Source:        types.SourceLLM,
	}
	if resp.QueryField != "" {
		result.QueryField = queryField(resp.QueryField)
	}
	return result, nil
}

var _ Resolver = (*LLMResolver)(nil)
