// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/surgical-scout/pkg/types"
)

const defaultUserAgent = "surgical-scout/0.1"

// defaultJournals is the target journal list used when the config file
// does not override it.
var defaultJournals = []string{
	"Plastic and Reconstructive Surgery",
	"Aesthetic Surgery Journal",
	"Journal of Plastic, Reconstructive & Aesthetic Surgery",
}

func init() {
	viper.SetDefault("case_list", "cases.txt")
	viper.SetDefault("output_dir", "output")
	viper.SetDefault("log_dir", "logs")
	viper.SetDefault("search.journals", defaultJournals)
	viper.SetDefault("search.window_months", 24)
	viper.SetDefault("search.max_results", 5)
	viper.SetDefault("search.requests_per_second", 3)
	viper.SetDefault("search.timeout", 30*time.Second)
	viper.SetDefault("resolve.timeout", 45*time.Second)
	viper.SetDefault("resolve.enable_session", false)
	viper.SetDefault("resolve.cookie_file", "")
	viper.SetDefault("extraction.model", "claude-3-5-haiku-latest")
	viper.SetDefault("extraction.full_text_model", "claude-sonnet-4-5")
	viper.SetDefault("extraction.max_retries", 3)
	viper.SetDefault("extraction.max_full_text_chars", 30000)
	viper.SetDefault("dispatch.host", "smtp.gmail.com")
	viper.SetDefault("dispatch.port", 587)
	viper.SetDefault("dispatch.max_attempts", 3)
}

// buildConfig assembles the pipeline configuration from the config file,
// environment overrides, and the .secrets/ directory. Explicit config
// values win over secrets.
func buildConfig() types.PipelineConfig {
	email := secretDefault("pubmed-email", viper.GetString("search.email"))
	return types.PipelineConfig{
		CaseList:  viper.GetString("case_list"),
		OutputDir: viper.GetString("output_dir"),
		LogDir:    viper.GetString("log_dir"),
		Search: types.SearchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("search.timeout"),
				UserAgent: defaultUserAgent,
			},
			Email:             email,
			Journals:          viper.GetStringSlice("search.journals"),
			WindowMonths:      viper.GetInt("search.window_months"),
			MaxResults:        viper.GetInt("search.max_results"),
			RequestsPerSecond: viper.GetFloat64("search.requests_per_second"),
		},
		Resolve: types.ResolveConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("resolve.timeout"),
				UserAgent: defaultUserAgent,
			},
			Email:         secretDefault("unpaywall-email", viper.GetString("resolve.email")),
			EnableSession: viper.GetBool("resolve.enable_session"),
			CookieFile:    viper.GetString("resolve.cookie_file"),
		},
		Extraction: types.ExtractionConfig{
			Model:            viper.GetString("extraction.model"),
			FullTextModel:    viper.GetString("extraction.full_text_model"),
			APIKey:           secretDefault("anthropic-api-key", viper.GetString("extraction.api_key")),
			MaxRetries:       viper.GetInt("extraction.max_retries"),
			MaxFullTextChars: viper.GetInt("extraction.max_full_text_chars"),
		},
		Dispatch: types.DispatchConfig{
			Host:        viper.GetString("dispatch.host"),
			Port:        viper.GetInt("dispatch.port"),
			Sender:      viper.GetString("dispatch.sender"),
			Password:    secretDefault("smtp-password", viper.GetString("dispatch.password")),
			Recipient:   viper.GetString("dispatch.recipient"),
			MaxAttempts: viper.GetInt("dispatch.max_attempts"),
		},
	}
}

// validateRunConfig checks that every credential the pipeline needs is
// present. A missing value fails the run before any network call. Dry
// runs never dispatch, so mail-relay settings are not required for them.
func validateRunConfig(cfg types.PipelineConfig, dryRun bool) error {
	var missing []string
	if cfg.Search.Email == "" {
		missing = append(missing, "search.email (or .secrets/pubmed-email)")
	}
	if cfg.Extraction.APIKey == "" {
		missing = append(missing, "extraction.api_key (or .secrets/anthropic-api-key)")
	}
	if !dryRun {
		if cfg.Dispatch.Sender == "" {
			missing = append(missing, "dispatch.sender")
		}
		if cfg.Dispatch.Password == "" {
			missing = append(missing, "dispatch.password (or .secrets/smtp-password)")
		}
		if cfg.Dispatch.Recipient == "" {
			missing = append(missing, "dispatch.recipient")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing configuration: %v", missing)
	}
	return nil
}
