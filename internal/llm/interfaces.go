// Package llm provides the completion clients used for intent resolution:
// Ollama, OpenAI and Anthropic providers behind one TextGenerator interface,
// each protected by a circuit breaker, plus the intent prompt and a tolerant
// parser for the JSON the models return.
package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("llm returned empty response")

// TextGenerator is the interface for LLM text completion.
// Intent prompts use single-string completion style (not chat).
type TextGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
	GetModel() string
}
