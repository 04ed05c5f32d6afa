// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// articleContainers are tried in order; the first match with substantial
// text wins. Publisher markup varies, so the last resort is every <p> on
// the page.
var articleContainers = []string{
	"div.article-body",
	"div.fulltext",
	"div[class*=article__body]",
	"section.article-section",
	"article",
	"main",
}

// minArticleChars guards against navigation chrome passing for a full
// text. Anything shorter is treated as a miss.
const minArticleChars = 1500

// articleText extracts readable article text from an HTML page. Returns
// "" when the page does not contain enough body text to be a full text.
func articleText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}

	doc.Find("script, style, nav, header, footer").Remove()

	for _, sel := range articleContainers {
		if text := paragraphText(doc.Find(sel)); len(text) >= minArticleChars {
			return text, nil
		}
	}

	if text := paragraphText(doc.Selection); len(text) >= minArticleChars {
		return text, nil
	}
	return "", nil
}

// paragraphText joins the paragraph contents under sel, dropping short
// fragments like buttons and figure labels.
func paragraphText(sel *goquery.Selection) string {
	var parts []string
	sel.Find("p").Each(func(_ int, p *goquery.Selection) {
		t := strings.Join(strings.Fields(p.Text()), " ")
		if len(t) >= 40 {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, "\n\n")
}
