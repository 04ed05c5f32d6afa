// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/surgical-scout/internal/httputil"
	"github.com/pdiddy/surgical-scout/pkg/types"
)

// Entrez endpoints for the PMC tier. Declared as vars so tests can
// substitute httptest servers.
var (
	elinkBase    = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/elink.fcgi"
	pmcFetchBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"
)

// PMCTier looks the PMID up in PubMed Central and fetches the article
// body when a free full-text deposit exists.
type PMCTier struct {
	Client *http.Client
	Email  string
	UA     string
}

// NewPMCTier builds the tier from resolver configuration.
func NewPMCTier(cfg types.ResolveConfig) *PMCTier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PMCTier{
		Client: &http.Client{Timeout: timeout},
		Email:  cfg.Email,
		UA:     cfg.UserAgent,
	}
}

func (t *PMCTier) Name() string { return "pmc" }

func (t *PMCTier) Provenance() types.Provenance { return types.ProvenancePMC }

// Attempt maps the PMID to a PMC ID via ELink, then fetches the PMC
// full-text XML and flattens the body sections to plain text.
func (t *PMCTier) Attempt(ctx context.Context, article types.Article) (string, error) {
	if article.PMID == "" {
		return "", ErrNoFullText
	}

	pmcID, err := t.lookupPMCID(ctx, article.PMID)
	if err != nil {
		return "", err
	}
	if pmcID == "" {
		return "", ErrNoFullText
	}

	return t.fetchBody(ctx, pmcID)
}

// lookupPMCID converts a PMID to a PMC ID, or "" when no deposit exists.
func (t *PMCTier) lookupPMCID(ctx context.Context, pmid string) (string, error) {
	params := url.Values{
		"dbfrom":  {"pubmed"},
		"db":      {"pmc"},
		"id":      {pmid},
		"retmode": {"json"},
	}
	if t.Email != "" {
		params.Set("email", t.Email)
	}

	body, err := t.get(ctx, elinkBase+"?"+params.Encode())
	if err != nil {
		return "", err
	}
	defer body.Close()

	var elr elinkResponse
	if err := json.NewDecoder(body).Decode(&elr); err != nil {
		return "", fmt.Errorf("parsing ELink response: %w", err)
	}

	for _, ls := range elr.LinkSets {
		for _, db := range ls.LinkSetDBs {
			for _, link := range db.Links {
				if link != "" {
					return link, nil
				}
			}
		}
	}
	return "", nil
}

// fetchBody retrieves the PMC full-text XML and extracts the body text.
func (t *PMCTier) fetchBody(ctx context.Context, pmcID string) (string, error) {
	params := url.Values{
		"db":      {"pmc"},
		"id":      {pmcID},
		"retmode": {"xml"},
	}
	if t.Email != "" {
		params.Set("email", t.Email)
	}

	body, err := t.get(ctx, pmcFetchBase+"?"+params.Encode())
	if err != nil {
		return "", err
	}
	defer body.Close()

	text, err := pmcBodyText(body)
	if err != nil {
		return "", fmt.Errorf("parsing PMC article: %w", err)
	}
	if text == "" {
		// Deposit exists but holds only metadata or scanned pages.
		return "", ErrNoFullText
	}
	return text, nil
}

func (t *PMCTier) get(ctx context.Context, reqURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", t.UA)

	resp, err := httputil.DoWithRetry(ctx, t.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("PMC request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("PMC returned HTTP %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// pmcBodyText walks the JATS XML and collects paragraph and section-title
// text inside <body>, skipping tables and references.
func pmcBodyText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		parts    []string
		inBody   bool
		skip     int
		capture  int
		captured strings.Builder
	)

	flush := func() {
		s := strings.Join(strings.Fields(captured.String()), " ")
		if s != "" {
			parts = append(parts, s)
		}
		captured.Reset()
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "body":
				inBody = true
			case "table-wrap", "ref-list", "fig":
				if inBody {
					skip++
				}
			case "p", "title":
				if inBody && skip == 0 {
					capture++
				}
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "body":
				inBody = false
			case "table-wrap", "ref-list", "fig":
				if skip > 0 {
					skip--
				}
			case "p", "title":
				if capture > 0 {
					capture--
					if capture == 0 {
						flush()
					}
				}
			}
		case xml.CharData:
			if capture > 0 && skip == 0 {
				captured.Write(el)
				captured.WriteByte(' ')
			}
		}
	}

	return strings.Join(parts, "\n\n"), nil
}

// ELink JSON structures.
type elinkResponse struct {
	LinkSets []elinkSet `json:"linksets"`
}

type elinkSet struct {
	LinkSetDBs []elinkSetDB `json:"linksetdbs"`
}

type elinkSetDB struct {
	LinkName string   `json:"linkname"`
	Links    []string `json:"links"`
}
