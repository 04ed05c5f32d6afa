// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/surgical-scout/pkg/types"
)

// doiResolverBase resolves DOIs to publisher pages. Declared as a var so
// tests can substitute an httptest server.
var doiResolverBase = "https://doi.org/"

// browserUserAgent is sent by the session tier so the publisher serves
// the same pages it served the authenticated browser.
const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/144.0.0.0 Safari/537.36"

// SessionSource supplies the cookies of an externally managed,
// authenticated browsing session. Implementations are read-only: the
// resolver never logs in, refreshes, or writes cookies.
type SessionSource interface {
	// Cookies returns the current session cookies, or
	// ErrSessionUnavailable when there is no usable session.
	Cookies() ([]*http.Cookie, error)
}

// CookieFile reads session cookies from a Netscape-format cookies.txt
// export of the browser profile.
type CookieFile struct {
	Path string

	// now is overridable for expiry tests.
	now func() time.Time
}

// NewCookieFile returns a CookieFile source for path.
func NewCookieFile(path string) *CookieFile {
	return &CookieFile{Path: path, now: time.Now}
}

// Cookies parses the file and returns all unexpired cookies. A missing
// file, an unreadable file, or a file with no live cookies all report
// ErrSessionUnavailable.
func (c *CookieFile) Cookies() ([]*http.Cookie, error) {
	if c.Path == "" {
		return nil, ErrSessionUnavailable
	}
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
	}
	defer f.Close()

	now := c.now()
	var cookies []*http.Cookie

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// Netscape format: domain flag path secure expires name value
		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			continue
		}
		expires, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			continue
		}
		// expires == 0 marks a session cookie, kept as-is.
		if expires != 0 && time.Unix(expires, 0).Before(now) {
			continue
		}
		cookies = append(cookies, &http.Cookie{
			Name:   fields[5],
			Value:  fields[6],
			Domain: strings.TrimPrefix(fields[0], "."),
			Path:   fields[2],
			Secure: fields[3] == "TRUE",
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
	}

	if len(cookies) == 0 {
		return nil, ErrSessionUnavailable
	}
	return cookies, nil
}

// SessionTier fetches the publisher's page through the institutional
// session and scrapes the article text. It succeeds only when the session
// is live and the publisher grants access.
type SessionTier struct {
	Client  *http.Client
	Source  SessionSource
	Timeout time.Duration
}

// NewSessionTier builds the tier from resolver configuration and an
// injected session source.
func NewSessionTier(cfg types.ResolveConfig, source SessionSource) *SessionTier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &SessionTier{
		Client:  &http.Client{Timeout: timeout},
		Source:  source,
		Timeout: timeout,
	}
}

func (t *SessionTier) Name() string { return "session" }

func (t *SessionTier) Provenance() types.Provenance { return types.ProvenanceSession }

// Attempt resolves the DOI through doi.org with the session cookies
// attached and extracts the article body from the publisher page. An
// unavailable session is the distinct soft condition
// ErrSessionUnavailable; a paywalled or text-free page is ErrNoFullText.
func (t *SessionTier) Attempt(ctx context.Context, article types.Article) (string, error) {
	if article.DOI == "" {
		return "", ErrNoFullText
	}
	if t.Source == nil {
		return "", ErrSessionUnavailable
	}

	cookies, err := t.Source.Cookies()
	if err != nil {
		return "", err
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return "", fmt.Errorf("creating cookie jar: %w", err)
	}

	doiURL := doiResolverBase + article.DOI
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, doiURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	// Seed the jar per cookie domain; the jar then presents the right
	// cookies as the doi.org redirect chain lands on the publisher.
	byDomain := make(map[string][]*http.Cookie)
	for _, ck := range cookies {
		byDomain[ck.Domain] = append(byDomain[ck.Domain], ck)
	}
	for domain, cks := range byDomain {
		u := &url.URL{Scheme: "https", Host: domain, Path: "/"}
		jar.SetCookies(u, cks)
	}

	client := *t.Client
	client.Jar = jar

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching publisher page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", ErrSessionUnavailable
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("publisher returned HTTP %d", resp.StatusCode)
	}

	text, err := articleText(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parsing publisher page: %w", err)
	}
	if text == "" {
		return "", ErrNoFullText
	}
	return text, nil
}
