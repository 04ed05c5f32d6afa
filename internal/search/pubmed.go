// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries PubMed for recent articles about a procedure,
// restricted to the configured journals and lookback window.
package search

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

	"golang.org/x/time/rate"

	"github.com/pdiddy/surgical-scout/internal/httputil"
	"github.com/pdiddy/surgical-scout/pkg/types"
)

// Entrez e-utility endpoints. Declared as vars so tests can substitute
// httptest servers.
var (
	esearchBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	efetchBase  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"
)

// maxAuthors is how many names are listed before "et al.".
const maxAuthors = 3

// Client searches PubMed through the Entrez e-utilities. The limiter keeps
// the request rate inside NCBI's published limit.
type Client struct {
	HTTP    *http.Client
	Limiter *rate.Limiter
}

// NewClient builds a Client from the search configuration.
func NewClient(cfg types.SearchConfig) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 3
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		HTTP:    &http.Client{Timeout: timeout},
		Limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Search returns up to cfg.MaxResults articles about the procedure,
// relevance-sorted by PubMed. A query with no matches returns an empty
// slice and no error; upstream failures return an error the caller
// recovers as an empty section.
//
// Two passes: journal-filtered first, then a broadened specialty-context
// query when the first finds nothing.
func (c *Client) Search(ctx context.Context, procedure string, cfg types.SearchConfig) ([]types.Article, error) {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	windowMonths := cfg.WindowMonths
	if windowMonths <= 0 {
		windowMonths = 24
	}
	now := time.Now()

	pmids, err := c.esearch(ctx, BuildQuery(procedure, cfg.Journals, windowMonths, now), maxResults, cfg)
	if err != nil {
		return nil, err
	}
	if len(pmids) == 0 && len(cfg.Journals) > 0 {
		pmids, err = c.esearch(ctx, BuildBroadQuery(procedure, windowMonths, now), maxResults, cfg)
		if err != nil {
			return nil, err
		}
	}
	if len(pmids) == 0 {
		return nil, nil
	}

	return c.efetch(ctx, pmids, cfg)
}

// esearch runs one ESearch query and returns the matching PMIDs.
func (c *Client) esearch(ctx context.Context, query string, maxResults int, cfg types.SearchConfig) ([]string, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"term":    {query},
		"retmax":  {fmt.Sprintf("%d", maxResults)},
		"retmode": {"json"},
		"sort":    {"relevance"},
	}
	if cfg.Email != "" {
		params.Set("email", cfg.Email)
	}

	body, err := c.get(ctx, esearchBase+"?"+params.Encode(), cfg)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var esr esearchResponse
	if err := json.NewDecoder(body).Decode(&esr); err != nil {
		return nil, fmt.Errorf("parsing ESearch response: %w", err)
	}
	return esr.Result.IDList, nil
}

// efetch retrieves full citation records for the PMIDs and converts them
// to Articles. Records that cannot be parsed are skipped, not fatal.
func (c *Client) efetch(ctx context.Context, pmids []string, cfg types.SearchConfig) ([]types.Article, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(pmids, ",")},
		"rettype": {"abstract"},
		"retmode": {"xml"},
	}
	if cfg.Email != "" {
		params.Set("email", cfg.Email)
	}

	body, err := c.get(ctx, efetchBase+"?"+params.Encode(), cfg)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var set pubmedArticleSet
	if err := xml.NewDecoder(body).Decode(&set); err != nil {
		return nil, fmt.Errorf("parsing EFetch response: %w", err)
	}

	var articles []types.Article
	for _, rec := range set.Articles {
		a, ok := convertRecord(rec)
		if !ok {
			continue
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// get issues a rate-limited GET and returns the response body on HTTP 200.
func (c *Client) get(ctx context.Context, reqURL string, cfg types.SearchConfig) (io.ReadCloser, error) {
	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Entrez request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("Entrez returned HTTP %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// convertRecord maps one PubMed XML record to an Article. Records without
// a PMID are dropped; a missing abstract yields a placeholder so the
// extractor always has text to work with.
func convertRecord(rec pubmedArticle) (types.Article, bool) {
	pmid := strings.TrimSpace(rec.MedlineCitation.PMID)
	if pmid == "" {
		return types.Article{}, false
	}

	art := rec.MedlineCitation.Article

	abstract := joinAbstract(art.Abstract.Texts)
	if abstract == "" {
		abstract = "No abstract available"
	}

	a := types.Article{
		PMID:       pmid,
		Title:      strings.TrimSpace(art.Title),
		Authors:    formatAuthors(art.AuthorList.Authors),
		Journal:    strings.TrimSpace(art.Journal.Title),
		Date:       formatPubDate(art.Journal.Issue.PubDate),
		Abstract:   abstract,
		Provenance: types.ProvenanceAbstract,
	}
	if a.Journal == "" {
		a.Journal = "Unknown Journal"
	}

	for _, id := range rec.PubmedData.ArticleIDs.IDs {
		if id.Type == "doi" {
			a.DOI = strings.TrimSpace(id.Value)
			break
		}
	}
	return a, true
}

// joinAbstract concatenates labeled abstract segments ("Background:",
// "Methods:", ...) into one block of text.
func joinAbstract(texts []abstractText) string {
	var parts []string
	for _, t := range texts {
		v := strings.TrimSpace(t.Value)
		if v == "" {
			continue
		}
		if t.Label != "" {
			v = t.Label + ": " + v
		}
		parts = append(parts, v)
	}
	return strings.Join(parts, " ")
}

// formatAuthors renders "LastName Initials" for the first three authors,
// with "et al." when the list is longer.
func formatAuthors(authors []pubmedAuthor) string {
	var names []string
	for _, a := range authors {
		if len(names) == maxAuthors {
			break
		}
		name := strings.TrimSpace(strings.TrimSpace(a.LastName) + " " + strings.TrimSpace(a.Initials))
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return "Authors not available"
	}
	out := strings.Join(names, ", ")
	if len(authors) > maxAuthors {
		out += " et al."
	}
	return out
}

// formatPubDate renders "Month Year" when both are present.
func formatPubDate(d pubDate) string {
	s := strings.TrimSpace(strings.TrimSpace(d.Month) + " " + strings.TrimSpace(d.Year))
	if s == "" {
		return "Date not available"
	}
	return s
}

// ESearch JSON structures.
type esearchResponse struct {
	Result esearchResult `json:"esearchresult"`
}

type esearchResult struct {
	Count  string   `json:"count"`
	IDList []string `json:"idlist"`
}

// EFetch XML structures.
type pubmedArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	MedlineCitation medlineCitation `xml:"MedlineCitation"`
	PubmedData      pubmedData      `xml:"PubmedData"`
}

type medlineCitation struct {
	PMID    string       `xml:"PMID"`
	Article citedArticle `xml:"Article"`
}

type citedArticle struct {
	Title      string           `xml:"ArticleTitle"`
	Abstract   pubmedAbstract   `xml:"Abstract"`
	AuthorList pubmedAuthorList `xml:"AuthorList"`
	Journal    pubmedJournal    `xml:"Journal"`
}

type pubmedAbstract struct {
	Texts []abstractText `xml:"AbstractText"`
}

type abstractText struct {
	Label string `xml:"Label,attr"`
	Value string `xml:",chardata"`
}

type pubmedAuthorList struct {
	Authors []pubmedAuthor `xml:"Author"`
}

type pubmedAuthor struct {
	LastName string `xml:"LastName"`
	Initials string `xml:"Initials"`
}

type pubmedJournal struct {
	Title string       `xml:"Title"`
	Issue journalIssue `xml:"JournalIssue"`
}

type journalIssue struct {
	PubDate pubDate `xml:"PubDate"`
}

type pubDate struct {
	Year  string `xml:"Year"`
	Month string `xml:"Month"`
}

type pubmedData struct {
	ArticleIDs articleIDList `xml:"ArticleIdList"`
}

type articleIDList struct {
	IDs []articleID `xml:"ArticleId"`
}

type articleID struct {
	Type  string `xml:"IdType,attr"`
	Value string `xml:",chardata"`
}
