// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns article content into clinical pearls through a
// text-generation backend. The prompt depends on content provenance: a
// resolved full text gets the rich instruction, an abstract the light
// one. Exactly one request is sent per article; anything the backend
// returns that cannot be parsed or validated degrades to zero pearls.
package extract

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pdiddy/surgical-scout/pkg/types"
)

// AIBackend abstracts the text-generation API so tests can supply a mock.
type AIBackend interface {
	// Generate sends one prompt and returns the raw model text.
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Extractor selects prompts and models per provenance and validates
// responses into Pearls.
type Extractor struct {
	Backend AIBackend
	Config  types.ExtractionConfig
}

// New returns an Extractor over the given backend.
func New(backend AIBackend, cfg types.ExtractionConfig) *Extractor {
	return &Extractor{Backend: backend, Config: cfg}
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// Extract asks the backend for pearls from one article. The returned
// error covers transport failures and unparseable responses; callers
// recover it as zero pearls for the article. A well-formed response with
// no relevant findings is an empty slice and no error.
func (e *Extractor) Extract(ctx context.Context, article types.Article, procedure string) ([]types.Pearl, error) {
	prompt, err := buildPrompt(article, procedure, e.Config.MaxFullTextChars)
	if err != nil {
		return nil, fmt.Errorf("building prompt: %w", err)
	}

	model := e.Config.Model
	if article.HasFullText() && e.Config.FullTextModel != "" {
		model = e.Config.FullTextModel
	}

	raw, err := e.callWithRetry(ctx, model, prompt)
	if err != nil {
		return nil, fmt.Errorf("generating pearls for PMID %s: %w", article.PMID, err)
	}

	resp, err := parseResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing response for PMID %s: %w", article.PMID, err)
	}

	return convertPearls(resp.Pearls, article.PMID), nil
}

// callWithRetry calls the backend with exponential backoff.
func (e *Extractor) callWithRetry(ctx context.Context, model, prompt string) (string, error) {
	maxRetries := e.Config.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		raw, err := e.Backend.Generate(ctx, model, prompt)
		if err == nil {
			return raw, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

// convertPearls validates response items and stamps the source PMID.
// Invalid items are dropped, not fatal: the relevance contract is
// best-effort.
func convertPearls(items []responsePearl, pmid string) []types.Pearl {
	var pearls []types.Pearl
	for _, item := range items {
		summary := strings.TrimSpace(item.Summary)
		if summary == "" {
			continue
		}
		category := types.PearlCategory(strings.TrimSpace(strings.ToLower(item.Category)))
		if !types.ValidPearlCategory(category) {
			continue
		}
		pearls = append(pearls, types.Pearl{
			Summary:    summary,
			Category:   category,
			SourcePMID: pmid,
		})
	}
	return pearls
}
