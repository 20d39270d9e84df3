// Package config provides configuration management for Rolodex.
// It starts from sensible defaults, overlays an optional YAML file named by
// ROLODEX_CONFIG_FILE, and finally applies environment variables with the
// ROLODEX_ prefix. Environment variables always win.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration settings for the Rolodex application.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	LLM       LLMConfig       `yaml:"llm"`
	Session   SessionConfig   `yaml:"session"`
	Search    SearchConfig    `yaml:"search"`
	Security  SecurityConfig  `yaml:"security"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"` // Server port (default: 6464)
	Host string `yaml:"host"` // Server host (default: 127.0.0.1)
}

// StorageConfig contains contact store configuration.
type StorageConfig struct {
	StorageEngine string `yaml:"engine"`       // sqlite or postgres (default: sqlite)
	DataPath      string `yaml:"data_path"`    // Directory for the SQLite file (default: ./data)
	PostgresDSN   string `yaml:"postgres_dsn"` // Connection string when engine is postgres

	BackupInterval time.Duration `yaml:"backup_interval"` // SQLite snapshot interval, 0 disables (default: 0)
	BackupKeep     int           `yaml:"backup_keep"`     // Snapshots to keep (default: 24)
}

// LLMConfig contains LLM provider configuration for intent resolution.
type LLMConfig struct {
	LLMProvider     string        `yaml:"provider"` // ollama, openai, anthropic, none (default: ollama)
	OllamaURL       string        `yaml:"ollama_url"`
	OllamaModel     string        `yaml:"ollama_model"`
	OpenAIAPIKey    string        `yaml:"openai_api_key"`
	OpenAIModel     string        `yaml:"openai_model"`
	OpenAIBaseURL   string        `yaml:"openai_base_url"`
	AnthropicAPIKey string        `yaml:"anthropic_api_key"`
	AnthropicModel  string        `yaml:"anthropic_model"`
	Timeout         time.Duration `yaml:"timeout"`          // Per-call timeout (default: 20s)
	RequestsPerMin  int           `yaml:"requests_per_min"` // Client-side limiter (default: 60, 0 disables)
}

// SessionConfig contains per-user conversation memory tuning.
type SessionConfig struct {
	ExpiryAfter        time.Duration `yaml:"expiry_after"`        // Idle time before a session is discarded (default: 60m)
	ContinuationWindow time.Duration `yaml:"continuation_window"` // Follow-up window for terse replies (default: 30s)
	TimeoutPrompt      time.Duration `yaml:"timeout_prompt"`      // Idle time before nudging a collecting user (default: 120s)
	RecentContacts     int           `yaml:"recent_contacts"`     // Recent-contacts cache capacity (default: 10)
	SweepThreshold     int           `yaml:"sweep_threshold"`     // Registry size that triggers an expiry sweep (default: 100)
}

// SearchConfig contains web research collaborator configuration.
type SearchConfig struct {
	Provider     string `yaml:"provider"` // tavily or none (default: none)
	TavilyAPIKey string `yaml:"tavily_api_key"`
	TavilyURL    string `yaml:"tavily_url"`
	MaxResults   int    `yaml:"max_results"`
}

// SecurityConfig contains security and authentication settings.
type SecurityConfig struct {
	SecurityMode string `yaml:"mode"`      // development or production (default: development)
	APIToken     string `yaml:"api_token"` // Bearer token required in production
}

// RateLimitConfig controls the HTTP rate limiter.
type RateLimitConfig struct {
	RequestsPerSec float64 `yaml:"requests_per_sec"` // default: 10
	Burst          int     `yaml:"burst"`            // default: 20
}

// DefaultSessionConfig returns the session defaults used when nothing is
// configured.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		ExpiryAfter:        60 * time.Minute,
		ContinuationWindow: 30 * time.Second,
		TimeoutPrompt:      120 * time.Second,
		RecentContacts:     10,
		SweepThreshold:     100,
	}
}

// Default returns a Config populated with defaults only.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 6464,
			Host: "127.0.0.1",
		},
		Storage: StorageConfig{
			StorageEngine: "sqlite",
			DataPath:      "./data",
			BackupKeep:    24,
		},
		LLM: LLMConfig{
			LLMProvider:    "ollama",
			OllamaURL:      "http://localhost:11434",
			OllamaModel:    "qwen2.5:7b",
			OpenAIModel:    "gpt-4o-mini",
			AnthropicModel: "claude-haiku-4-5-20251001",
			Timeout:        20 * time.Second,
			RequestsPerMin: 60,
		},
		Session: DefaultSessionConfig(),
		Search: SearchConfig{
			Provider:   "none",
			TavilyURL:  "https://api.tavily.com",
			MaxResults: 5,
		},
		Security: SecurityConfig{
			SecurityMode: "development",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSec: 10,
			Burst:          20,
		},
	}
}

// LoadConfig builds the configuration from defaults, the optional YAML file
// and environment variables, then validates it.
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("ROLODEX_CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile overlays values from a YAML file. Keys missing from the file keep
// their current values.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnvInt("ROLODEX_PORT", c.Server.Port)
	c.Server.Host = getEnv("ROLODEX_HOST", c.Server.Host)

	c.Storage.StorageEngine = getEnv("ROLODEX_STORAGE_ENGINE", c.Storage.StorageEngine)
	c.Storage.DataPath = getEnv("ROLODEX_DATA_PATH", c.Storage.DataPath)
	c.Storage.PostgresDSN = getEnv("ROLODEX_POSTGRES_DSN", c.Storage.PostgresDSN)
	c.Storage.BackupInterval = getEnvDuration("ROLODEX_BACKUP_INTERVAL", c.Storage.BackupInterval)
	c.Storage.BackupKeep = getEnvInt("ROLODEX_BACKUP_KEEP", c.Storage.BackupKeep)

	c.LLM.LLMProvider = getEnv("ROLODEX_LLM_PROVIDER", c.LLM.LLMProvider)
	c.LLM.OllamaURL = getEnv("ROLODEX_OLLAMA_URL", c.LLM.OllamaURL)
	c.LLM.OllamaModel = getEnv("ROLODEX_OLLAMA_MODEL", c.LLM.OllamaModel)
	c.LLM.OpenAIAPIKey = getEnv("ROLODEX_OPENAI_API_KEY", c.LLM.OpenAIAPIKey)
	c.LLM.OpenAIModel = getEnv("ROLODEX_OPENAI_MODEL", c.LLM.OpenAIModel)
	c.LLM.OpenAIBaseURL = getEnv("ROLODEX_OPENAI_BASE_URL", c.LLM.OpenAIBaseURL)
	c.LLM.AnthropicAPIKey = getEnv("ROLODEX_ANTHROPIC_API_KEY", c.LLM.AnthropicAPIKey)
	c.LLM.AnthropicModel = getEnv("ROLODEX_ANTHROPIC_MODEL", c.LLM.AnthropicModel)
	c.LLM.Timeout = getEnvDuration("ROLODEX_LLM_TIMEOUT", c.LLM.Timeout)
	c.LLM.RequestsPerMin = getEnvInt("ROLODEX_LLM_REQUESTS_PER_MIN", c.LLM.RequestsPerMin)

	c.Session.ExpiryAfter = getEnvDuration("ROLODEX_SESSION_EXPIRY", c.Session.ExpiryAfter)
	c.Session.ContinuationWindow = getEnvDuration("ROLODEX_SESSION_CONTINUATION", c.Session.ContinuationWindow)
	c.Session.TimeoutPrompt = getEnvDuration("ROLODEX_SESSION_TIMEOUT_PROMPT", c.Session.TimeoutPrompt)
	c.Session.RecentContacts = getEnvInt("ROLODEX_SESSION_RECENT_CONTACTS", c.Session.RecentContacts)
	c.Session.SweepThreshold = getEnvInt("ROLODEX_SESSION_SWEEP_THRESHOLD", c.Session.SweepThreshold)

	c.Search.Provider = getEnv("ROLODEX_SEARCH_PROVIDER", c.Search.Provider)
	c.Search.TavilyAPIKey = getEnv("ROLODEX_TAVILY_API_KEY", c.Search.TavilyAPIKey)
	c.Search.TavilyURL = getEnv("ROLODEX_TAVILY_URL", c.Search.TavilyURL)
	c.Search.MaxResults = getEnvInt("ROLODEX_SEARCH_MAX_RESULTS", c.Search.MaxResults)

	c.Security.SecurityMode = getEnv("ROLODEX_SECURITY_MODE", c.Security.SecurityMode)
	c.Security.APIToken = getEnv("ROLODEX_API_TOKEN", c.Security.APIToken)

	c.RateLimit.RequestsPerSec = getEnvFloat("ROLODEX_RATE_LIMIT_RPS", c.RateLimit.RequestsPerSec)
	c.RateLimit.Burst = getEnvInt("ROLODEX_RATE_LIMIT_BURST", c.RateLimit.Burst)
}

// Validate checks for values that would make the application misbehave.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port %d out of range", c.Server.Port))
	}

	switch c.Storage.StorageEngine {
	case "sqlite":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("postgres storage requires ROLODEX_POSTGRES_DSN"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage engine %q", c.Storage.StorageEngine))
	}

	if c.Storage.BackupInterval < 0 {
		errs = append(errs, errors.New("backup interval must not be negative"))
	}

	switch c.LLM.LLMProvider {
	case "ollama", "none", "":
	case "openai":
		if c.LLM.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("openai provider requires ROLODEX_OPENAI_API_KEY"))
		}
	case "anthropic":
		if c.LLM.AnthropicAPIKey == "" {
			errs = append(errs, errors.New("anthropic provider requires ROLODEX_ANTHROPIC_API_KEY"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported LLM provider %q", c.LLM.LLMProvider))
	}

	if c.Session.ExpiryAfter <= 0 {
		errs = append(errs, errors.New("session expiry must be positive"))
	}
	if c.Session.ContinuationWindow < 0 || c.Session.TimeoutPrompt < 0 {
		errs = append(errs, errors.New("session windows must not be negative"))
	}
	if c.Session.RecentContacts <= 0 {
		errs = append(errs, errors.New("recent contacts capacity must be positive"))
	}

	if c.Security.SecurityMode == "production" && c.Security.APIToken == "" {
		errs = append(errs, errors.New("production mode requires ROLODEX_API_TOKEN"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value.
// If the environment variable exists but cannot be parsed as an integer,
// it returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("90s", "1h").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
