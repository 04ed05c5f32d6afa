// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/surgical-scout/pkg/types"
)

func writeCookieFile(t *testing.T, lines ...string) string {
	t.Helper()
	content := "# Netscape HTTP Cookie File\n" + strings.Join(lines, "\n") + "\n"
	path := filepath.Join(t.TempDir(), "cookies.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func cookieLine(domain, name, value string, expires int64) string {
	return strings.Join([]string{domain, "TRUE", "/", "TRUE", fmt.Sprintf("%d", expires), name, value}, "\t")
}

func TestCookieFileParsesLiveCookies(t *testing.T) {
	future := time.Now().Add(24 * time.Hour).Unix()
	path := writeCookieFile(t,
		cookieLine(".journals.example.com", "SESSION", "abc123", future),
		cookieLine("sso.example.org", "token", "xyz", 0), // session cookie, no expiry
	)

	source := NewCookieFile(path)
	cookies, err := source.Cookies()
	require.NoError(t, err)
	require.Len(t, cookies, 2)

	assert.Equal(t, "SESSION", cookies[0].Name)
	assert.Equal(t, "journals.example.com", cookies[0].Domain)
	assert.True(t, cookies[0].Secure)
}

func TestCookieFileExpiredCookiesUnavailable(t *testing.T) {
	past := time.Now().Add(-24 * time.Hour).Unix()
	path := writeCookieFile(t, cookieLine(".journals.example.com", "SESSION", "stale", past))

	_, err := NewCookieFile(path).Cookies()
	assert.ErrorIs(t, err, ErrSessionUnavailable)
}

func TestCookieFileMissingFileUnavailable(t *testing.T) {
	_, err := NewCookieFile(filepath.Join(t.TempDir(), "absent.txt")).Cookies()
	assert.ErrorIs(t, err, ErrSessionUnavailable)

	_, err = NewCookieFile("").Cookies()
	assert.ErrorIs(t, err, ErrSessionUnavailable)
}

func TestCookieFileSkipsMalformedLines(t *testing.T) {
	future := time.Now().Add(time.Hour).Unix()
	path := writeCookieFile(t,
		"not a cookie line",
		cookieLine(".journals.example.com", "SESSION", "ok", future),
	)

	cookies, err := NewCookieFile(path).Cookies()
	require.NoError(t, err)
	assert.Len(t, cookies, 1)
}

// staticSession serves a fixed cookie set for tier tests.
type staticSession struct {
	cookies []*http.Cookie
	err     error
}

func (s *staticSession) Cookies() ([]*http.Cookie, error) { return s.cookies, s.err }

func sessionPage(authenticated bool) string {
	if !authenticated {
		return `<html><body><div class="paywall"><p>Purchase access to continue reading.</p></div></body></html>`
	}
	return "<html><body><div class=\"article-body\">" +
		strings.Repeat("<p>The deep plane facelift modification described here releases the zygomatic cutaneous ligaments under direct vision before flap advancement.</p>", 12) +
		"</div></body></html>"
}

func TestSessionTierResolvesWithLiveSession(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("SESSION"); err != nil {
			fmt.Fprint(w, sessionPage(false))
			return
		}
		fmt.Fprint(w, sessionPage(true))
	}))
	defer ts.Close()
	old := doiResolverBase
	doiResolverBase = ts.URL + "/"
	defer func() { doiResolverBase = old }()

	host := strings.TrimPrefix(ts.URL, "http://")
	source := &staticSession{cookies: []*http.Cookie{{Name: "SESSION", Value: "abc", Domain: strings.Split(host, ":")[0], Path: "/"}}}
	tier := NewSessionTier(types.ResolveConfig{}, source)
	tier.Client = ts.Client()

	text, err := tier.Attempt(context.Background(), testArticle())
	require.NoError(t, err)
	assert.Contains(t, text, "deep plane facelift")
}

func TestSessionTierPaywalledPageIsAMiss(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, sessionPage(false))
	}))
	defer ts.Close()
	old := doiResolverBase
	doiResolverBase = ts.URL + "/"
	defer func() { doiResolverBase = old }()

	tier := NewSessionTier(types.ResolveConfig{}, &staticSession{cookies: []*http.Cookie{{Name: "SESSION", Value: "abc", Domain: "example.com", Path: "/"}}})
	tier.Client = ts.Client()

	_, err := tier.Attempt(context.Background(), testArticle())
	assert.ErrorIs(t, err, ErrNoFullText)
}

func TestSessionTierUnavailableSession(t *testing.T) {
	tier := NewSessionTier(types.ResolveConfig{}, &staticSession{err: ErrSessionUnavailable})

	_, err := tier.Attempt(context.Background(), testArticle())
	assert.ErrorIs(t, err, ErrSessionUnavailable)
}

func TestSessionTierDeniedAccess(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()
	old := doiResolverBase
	doiResolverBase = ts.URL + "/"
	defer func() { doiResolverBase = old }()

	tier := NewSessionTier(types.ResolveConfig{}, &staticSession{cookies: []*http.Cookie{{Name: "SESSION", Value: "abc", Domain: "example.com", Path: "/"}}})
	tier.Client = ts.Client()

	_, err := tier.Attempt(context.Background(), testArticle())
	assert.ErrorIs(t, err, ErrSessionUnavailable)
}

func TestSessionTierNoDOI(t *testing.T) {
	tier := NewSessionTier(types.ResolveConfig{}, &staticSession{})
	_, err := tier.Attempt(context.Background(), types.Article{PMID: "123"})
	assert.ErrorIs(t, err, ErrNoFullText)
}
