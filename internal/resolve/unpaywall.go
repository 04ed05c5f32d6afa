// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/surgical-scout/pkg/types"
)

// unpaywallBase is the Unpaywall lookup endpoint. Declared as a var so
// tests can substitute an httptest server.
var unpaywallBase = "https://api.unpaywall.org/v2"

// UnpaywallTier queries the Unpaywall index for a legally open copy of
// the article and fetches its text.
type UnpaywallTier struct {
	Client *http.Client
	Email  string
	UA     string
}

// NewUnpaywallTier builds the tier from resolver configuration.
func NewUnpaywallTier(cfg types.ResolveConfig) *UnpaywallTier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &UnpaywallTier{
		Client: &http.Client{Timeout: timeout},
		Email:  cfg.Email,
		UA:     cfg.UserAgent,
	}
}

func (t *UnpaywallTier) Name() string { return "unpaywall" }

func (t *UnpaywallTier) Provenance() types.Provenance { return types.ProvenanceOpenAccess }

// Attempt looks the DOI up in Unpaywall and, when an open-access location
// exists, fetches its HTML landing page and extracts the article text.
// PDF-only locations are a miss: the pipeline works on text, not PDFs.
func (t *UnpaywallTier) Attempt(ctx context.Context, article types.Article) (string, error) {
	if article.DOI == "" {
		return "", ErrNoFullText
	}

	loc, err := t.lookup(ctx, article.DOI)
	if err != nil {
		return "", err
	}
	if loc == "" {
		return "", ErrNoFullText
	}

	return t.fetchText(ctx, loc)
}

// lookup returns the best open-access landing URL for the DOI, or "".
func (t *UnpaywallTier) lookup(ctx context.Context, doi string) (string, error) {
	reqURL := fmt.Sprintf("%s/%s?email=%s", unpaywallBase, doi, url.QueryEscape(t.Email))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", t.UA)

	resp, err := t.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("Unpaywall request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// DOI unknown to Unpaywall.
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Unpaywall returned HTTP %d", resp.StatusCode)
	}

	var ur unpaywallResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return "", fmt.Errorf("parsing Unpaywall response: %w", err)
	}

	if !ur.IsOA || ur.BestOALocation == nil {
		return "", nil
	}
	// Prefer the HTML landing page; url_for_landing_page is usually
	// parseable where url_for_pdf is not.
	if ur.BestOALocation.URLForLandingPage != "" {
		return ur.BestOALocation.URLForLandingPage, nil
	}
	return ur.BestOALocation.URL, nil
}

// fetchText downloads the open-access page and extracts its article text.
func (t *UnpaywallTier) fetchText(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", t.UA)

	resp, err := t.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching open-access page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("open-access page returned HTTP %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); strings.Contains(ct, "application/pdf") {
		return "", ErrNoFullText
	}

	text, err := articleText(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parsing open-access page: %w", err)
	}
	if text == "" {
		return "", ErrNoFullText
	}
	return text, nil
}

// Unpaywall JSON structures.
type unpaywallResponse struct {
	IsOA           bool        `json:"is_oa"`
	BestOALocation *oaLocation `json:"best_oa_location"`
}

type oaLocation struct {
	URL               string `json:"url"`
	URLForPDF         string `json:"url_for_pdf"`
	URLForLandingPage string `json:"url_for_landing_page"`
	Version           string `json:"version"`
	License           string `json:"license"`
}
