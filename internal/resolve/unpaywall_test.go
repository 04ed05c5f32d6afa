// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/surgical-scout/pkg/types"
)

// oaPage is a minimal open-access article page with enough body text to
// pass the article-length guard.
var oaPage = "<html><body><article>" +
	strings.Repeat("<p>Deep inferior epigastric perforator flap harvest proceeded without perforator injury in this consecutive series of patients undergoing autologous reconstruction.</p>", 12) +
	"</article></body></html>"

func unpaywallStub(t *testing.T, lookupJSON string, page string) *httptest.Server {
	t.Helper()
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/v2/"):
			fmt.Fprint(w, strings.ReplaceAll(lookupJSON, "PAGE_URL", ts.URL+"/article"))
		case r.URL.Path == "/article":
			fmt.Fprint(w, page)
		case r.URL.Path == "/paper.pdf":
			w.Header().Set("Content-Type", "application/pdf")
			fmt.Fprint(w, "%PDF-1.7")
		default:
			http.NotFound(w, r)
		}
	}))
	return ts
}

func oaTier() *UnpaywallTier {
	return &UnpaywallTier{Client: http.DefaultClient, Email: "resident@example.com", UA: "test/0.1"}
}

func withUnpaywallBase(t *testing.T, base string) {
	t.Helper()
	old := unpaywallBase
	unpaywallBase = base + "/v2"
	t.Cleanup(func() { unpaywallBase = old })
}

func TestUnpaywallTierResolvesLandingPage(t *testing.T) {
	lookup := `{"is_oa":true,"best_oa_location":{"url_for_landing_page":"PAGE_URL","version":"publishedVersion","license":"cc-by"}}`
	ts := unpaywallStub(t, lookup, oaPage)
	defer ts.Close()
	withUnpaywallBase(t, ts.URL)

	text, err := oaTier().Attempt(context.Background(), testArticle())
	require.NoError(t, err)
	assert.Contains(t, text, "perforator flap harvest")
}

func TestUnpaywallTierClosedAccess(t *testing.T) {
	ts := unpaywallStub(t, `{"is_oa":false,"best_oa_location":null}`, oaPage)
	defer ts.Close()
	withUnpaywallBase(t, ts.URL)

	_, err := oaTier().Attempt(context.Background(), testArticle())
	assert.ErrorIs(t, err, ErrNoFullText)
}

func TestUnpaywallTierUnknownDOI(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()
	withUnpaywallBase(t, ts.URL)

	_, err := oaTier().Attempt(context.Background(), testArticle())
	assert.ErrorIs(t, err, ErrNoFullText)
}

func TestUnpaywallTierPDFOnlyLocation(t *testing.T) {
	lookup := `{"is_oa":true,"best_oa_location":{"url":"PAGE_URL","url_for_pdf":"PAGE_URL"}}`
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v2/") {
			fmt.Fprint(w, strings.ReplaceAll(lookup, "PAGE_URL", ts.URL+"/paper.pdf"))
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, "%PDF-1.7")
	}))
	defer ts.Close()
	withUnpaywallBase(t, ts.URL)

	_, err := oaTier().Attempt(context.Background(), testArticle())
	assert.ErrorIs(t, err, ErrNoFullText)
}

func TestUnpaywallTierNoDOI(t *testing.T) {
	_, err := oaTier().Attempt(context.Background(), types.Article{PMID: "123"})
	assert.ErrorIs(t, err, ErrNoFullText)
}
