package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned while the Tavily circuit is open.
var ErrCircuitOpen = errors.New("search circuit breaker is open")

// TavilyConfig holds configuration for the Tavily client.
type TavilyConfig struct {
	APIKey     string
	BaseURL    string        // default: https://api.tavily.com
	MaxResults int           // default: 5
	Timeout    time.Duration // default: 15s
}

// TavilyClient implements Searcher using the Tavily search API.
type TavilyClient struct {
	cfg     TavilyConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewTavilyClient creates a Tavily client with the given configuration.
func NewTavilyClient(cfg TavilyConfig) *TavilyClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.tavily.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 5
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &TavilyClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "tavily",
			Timeout: 60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Printf("[search] circuit %s: %s -> %s", name, from, to)
			},
		}),
	}
}

type tavilyRequest struct {
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type tavilyResponse struct {
	Results []Result `json:"results"`
}

// SearchPerson queries Tavily for name, optionally narrowed by company.
func (c *TavilyClient) SearchPerson(ctx context.Context, name, company string) ([]Result, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("tavily: name is required")
	}
	out, err := c.breaker.Execute(func() (interface{}, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return c.search(ctx, personQuery(name, company))
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = ErrCircuitOpen
		}
		return nil, fmt.Errorf("tavily: %w", err)
	}
	results, _ := out.([]Result)
	return results, nil
}

func (c *TavilyClient) search(ctx context.Context, query string) ([]Result, error) {
	body, err := json.Marshal(tavilyRequest{
		Query:       query,
		MaxResults:  c.cfg.MaxResults,
		SearchDepth: "basic",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return parsed.Results, nil
}

var _ Searcher = (*TavilyClient)(nil)
