// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings for stages that make network requests.
type HTTPConfig struct {
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries is the number of retry attempts after the first try for
	// transient failures. A component configured with R retries makes at
	// most R+1 attempts.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// SearchConfig holds settings for the trial-search stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// PageSize is the number of studies requested per search (provider max 100).
	PageSize int `json:"page_size" yaml:"page_size"`

	// Status is the default enrollment-status filter ("recruiting", "all", ...).
	Status string `json:"status" yaml:"status"`
}

// LLMConfig holds settings for the language-model provider.
type LLMConfig struct {
	// Model is the provider model identifier.
	Model string `json:"model" yaml:"model"`

	// MaxTokens bounds each provider response.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// MaxRetries is the retry count for 429/5xx/timeout provider failures.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// APIKey authenticates with the provider. Loaded from .secrets/ or the
	// environment, never from the config file checked into a repo.
	APIKey string `json:"-" yaml:"-"`

	// BaseURL overrides the provider endpoint, for tests and proxies.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// RankingWeights are the fixed weights of the relevance score. They should
// sum to 1.0 but the ranker does not enforce it.
type RankingWeights struct {
	Proximity float64 `json:"proximity" yaml:"proximity"`
	Phase     float64 `json:"phase" yaml:"phase"`
	Status    float64 `json:"status" yaml:"status"`
}

// AgentConfig holds settings for the orchestration loop.
type AgentConfig struct {
	// StepBudget is the maximum number of loop iterations before the
	// session fails with a budget-exhausted error.
	StepBudget int `json:"step_budget" yaml:"step_budget"`

	// LogDir is the directory for per-session audit logs.
	LogDir string `json:"log_dir" yaml:"log_dir"`

	// ConsoleLog echoes audit entries to stderr when true.
	ConsoleLog bool `json:"console_log" yaml:"console_log"`
}

// Config groups all stage configurations.
type Config struct {
	Search  SearchConfig   `json:"search" yaml:"search"`
	LLM     LLMConfig      `json:"llm" yaml:"llm"`
	Ranking RankingWeights `json:"ranking" yaml:"ranking"`
	Agent   AgentConfig    `json:"agent" yaml:"agent"`
}

// DefaultConfig returns the documented defaults. Callers overlay file,
// environment, and flag values on top.
func DefaultConfig() Config {
	return Config{
		Search: SearchConfig{
			HTTPConfig: HTTPConfig{
				Timeout:    30 * time.Second,
				UserAgent:  "trial-agent/0.1",
				MaxRetries: 2,
			},
			PageSize: 20,
			Status:   "recruiting",
		},
		LLM: LLMConfig{
			Model:      "claude-sonnet-4-20250514",
			MaxTokens:  4096,
			MaxRetries: 2,
		},
		Ranking: RankingWeights{
			Proximity: 0.4,
			Phase:     0.3,
			Status:    0.3,
		},
		Agent: AgentConfig{
			StepBudget: 10,
			LogDir:     "logs",
		},
	}
}
