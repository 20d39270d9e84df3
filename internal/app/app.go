// Package app assembles the conversation engine and its collaborators from
// configuration. Both binaries share it.
package app

import (
	"fmt"
	"log"

	"github.com/scrypster/rolodex/internal/config"
	"github.com/scrypster/rolodex/internal/connections"
	"github.com/scrypster/rolodex/internal/conversation"
	"github.com/scrypster/rolodex/internal/intent"
	"github.com/scrypster/rolodex/internal/llm"
	"github.com/scrypster/rolodex/internal/metrics"
	"github.com/scrypster/rolodex/internal/search"
	"github.com/scrypster/rolodex/internal/session"
	"github.com/scrypster/rolodex/internal/storage"
)

// App holds the wired components.
type App struct {
	Engine   *conversation.Engine
	Store    storage.ContactStore
	Metrics  *metrics.Collector
	Memories *session.MemoryService
}

// New opens the store and builds the engine. The caller must Close the App.
func New(cfg *config.Config) (*App, error) {
	store, err := connections.Open(cfg.Storage)
	if err != nil {
		return nil, err
	}

	collector := metrics.NewCollector("rolodex")

	resolver, err := newResolver(cfg.LLM, collector)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	searcher, err := search.New(cfg.Search)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("app: failed to configure search: %w", err)
	}

	memories := session.NewMemoryService(cfg.Session)
	engine := conversation.New(memories, resolver, store,
		conversation.WithSearcher(searcher),
		conversation.WithMetrics(collector),
	)

	return &App{
		Engine:   engine,
		Store:    store,
		Metrics:  collector,
		Memories: memories,
	}, nil
}

// newResolver puts the configured language model in front of the rule
// resolver. Without a model every message goes to the rules.
func newResolver(cfg config.LLMConfig, collector *metrics.Collector) (intent.Resolver, error) {
	gen, err := llm.NewTextGenerator(cfg)
	if err != nil {
		return nil, fmt.Errorf("app: failed to configure LLM: %w", err)
	}

	var primary intent.Resolver
	if gen != nil {
		log.Printf("[app] intent resolution via %s (%s), rules as fallback", cfg.LLMProvider, gen.GetModel())
		primary = intent.NewLLMResolver(gen)
	} else {
		log.Printf("[app] no LLM configured, using rule-based intent resolution")
	}

	return intent.NewFallbackResolver(primary, intent.NewRuleResolver(),
		intent.WithFallbackHook(func(error) { collector.RecordFallback() }),
	), nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}
