// Package search looks people up on the web so that researched background
// can be attached to a contact draft.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/scrypster/rolodex/internal/config"
)

// ErrDisabled is returned by Noop.
var ErrDisabled = errors.New("web search is not configured")

// Result is one web search hit.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Searcher finds public information about a person.
type Searcher interface {
	SearchPerson(ctx context.Context, name, company string) ([]Result, error)
}

// Noop is a Searcher that always reports ErrDisabled.
type Noop struct{}

// SearchPerson implements Searcher.
func (Noop) SearchPerson(context.Context, string, string) ([]Result, error) {
	return nil, ErrDisabled
}

// New builds the Searcher selected by cfg.
func New(cfg config.SearchConfig) (Searcher, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "none":
		return Noop{}, nil
	case "tavily":
		if cfg.TavilyAPIKey == "" {
			return nil, fmt.Errorf("tavily search requires an API key")
		}
		return NewTavilyClient(TavilyConfig{
			APIKey:     cfg.TavilyAPIKey,
			BaseURL:    cfg.TavilyURL,
			MaxResults: cfg.MaxResults,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported search provider: %s", cfg.Provider)
	}
}

// personQuery builds the query string for a person lookup.
func personQuery(name, company string) string {
	q := strings.TrimSpace(name)
	if company = strings.TrimSpace(company); company != "" {
		q += " " + company
	}
	return q + " profile"
}

// Summarize condenses results into a short research note: one line per
// hit, at most max lines, each content snippet capped at 200 characters.
func Summarize(results []Result, max int) string {
	if max <= 0 || max > len(results) {
		max = len(results)
	}
	var b strings.Builder
	for _, r := range results[:max] {
		snippet := strings.Join(strings.Fields(r.Content), " ")
		if len(snippet) > 200 {
			snippet = strings.TrimSpace(snippet[:200]) + "..."
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %s", r.Title)
		if snippet != "" {
			fmt.Fprintf(&b, ": %s", snippet)
		}
		if r.URL != "" {
			fmt.Fprintf(&b, " (%s)", r.URL)
		}
	}
	return b.String()
}
