// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "surgical-scout/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the PubMed search stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// Email is sent to NCBI with every Entrez request, as the API terms require.
	Email string `json:"email" yaml:"email"`

	// Journals restricts results to these journal names. An empty list
	// searches all of PubMed.
	Journals []string `json:"journals" yaml:"journals"`

	// WindowMonths is the rolling lookback window (default 24).
	WindowMonths int `json:"window_months" yaml:"window_months"`

	// MaxResults caps the number of articles per procedure (default 5).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// RequestsPerSecond limits request rate toward NCBI (default 3,
	// the unauthenticated Entrez limit).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
}

// ResolveConfig holds settings for the full-text resolution stage.
type ResolveConfig struct {
	HTTPConfig `yaml:",inline"`

	// Email is sent to NCBI and Unpaywall with each lookup.
	Email string `json:"email" yaml:"email"`

	// EnableSession controls whether the institutional-session tier runs.
	EnableSession bool `json:"enable_session" yaml:"enable_session"`

	// CookieFile is the path to the exported browser cookie file backing
	// the institutional session. The resolver only reads it.
	CookieFile string `json:"cookie_file,omitempty" yaml:"cookie_file,omitempty"`
}

// ExtractionConfig holds settings for the pearl extraction stage.
type ExtractionConfig struct {
	// Model is the AI model identifier (e.g. "claude-3-5-haiku-latest").
	Model string `json:"model" yaml:"model"`

	// FullTextModel optionally overrides Model for articles with
	// resolved full text. Empty means use Model for everything.
	FullTextModel string `json:"full_text_model,omitempty" yaml:"full_text_model,omitempty"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// MaxFullTextChars truncates resolved full text before prompting
	// (default 30000).
	MaxFullTextChars int `json:"max_full_text_chars" yaml:"max_full_text_chars"`
}

// DispatchConfig holds settings for email delivery.
type DispatchConfig struct {
	// Host and Port identify the SMTP relay (default smtp.gmail.com:587).
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`

	// Sender is both the From address and the SMTP username.
	Sender string `json:"sender" yaml:"sender"`

	// Password is the SMTP password (an app password for Gmail).
	Password string `json:"password,omitempty" yaml:"password,omitempty"`

	// Recipient receives the digest.
	Recipient string `json:"recipient" yaml:"recipient"`

	// MaxAttempts bounds delivery attempts (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`
}

// PipelineConfig groups all stage configurations for one run.
type PipelineConfig struct {
	// CaseList is the path to the procedure list file.
	CaseList string `json:"case_list" yaml:"case_list"`

	// OutputDir receives the rendered digest HTML and the run report.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// LogDir receives the append-only run log.
	LogDir string `json:"log_dir" yaml:"log_dir"`

	Search     SearchConfig     `json:"search" yaml:"search"`
	Resolve    ResolveConfig    `json:"resolve" yaml:"resolve"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Dispatch   DispatchConfig   `json:"dispatch" yaml:"dispatch"`
}
