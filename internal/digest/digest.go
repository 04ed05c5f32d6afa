// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package digest renders a run's digest into the HTML email body.
// Rendering is deterministic: the same Digest value always produces the
// same document, sections follow case-list order, and within a section
// articles keep their search order.
package digest

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/pdiddy/surgical-scout/pkg/types"
)

// emptySectionNotice is rendered for sections with zero pearls.
const emptySectionNotice = "No significant technique or product updates found in recent literature."

var digestTmpl = template.Must(template.New("digest").Funcs(template.FuncMap{
	"categoryLabel": categoryLabel,
}).Parse(`<html>
<head>
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 720px; margin: 0 auto; }
h1 { color: #2c3e50; }
h2 { color: #2c3e50; border-bottom: 2px solid #2c3e50; padding-bottom: 4px; }
h3 { margin-bottom: 4px; }
.meta { color: #666; font-size: 0.9em; }
.category { display: inline-block; background: #eef2f5; color: #2c3e50; font-size: 0.8em; padding: 1px 6px; border-radius: 3px; }
</style>
</head>
<body>
<h1>Surgical Scout Digest</h1>
<p class="meta">Generated {{.Date}} &middot; {{.ArticleCount}} articles reviewed &middot; {{.PearlCount}} pearls</p>
{{range .Sections}}<h2>{{.Procedure}}</h2>
{{if .Entries}}{{range .Entries}}<h3>{{.Article.Title}}</h3>
<p class="meta">{{.Article.Authors}}<br>
{{.Article.Journal}}, {{.Article.Date}}</p>
{{range .Pearls}}<p><span class="category">{{categoryLabel .Category}}</span> {{.Summary}}</p>
{{end}}<p><a href="{{.Article.PubMedURL}}">View on PubMed</a></p>
<hr>
{{end}}{{else}}<p>{{.Notice}}</p>
<hr>
{{end}}{{end}}</body>
</html>
`))

// entry pairs an article with the pearls extracted from it.
type entry struct {
	Article types.Article
	Pearls  []types.Pearl
}

type sectionView struct {
	Procedure string
	Entries   []entry
	Notice    string
}

type digestView struct {
	Date         string
	ArticleCount int
	PearlCount   int
	Sections     []sectionView
}

// Render produces the HTML email body for a digest.
func Render(d types.Digest) (string, error) {
	view := digestView{
		Date:         d.GeneratedAt.Format("January 2, 2006"),
		ArticleCount: d.ArticleCount(),
		PearlCount:   d.PearlCount(),
	}
	for _, s := range d.Sections {
		view.Sections = append(view.Sections, buildSectionView(s))
	}

	var buf bytes.Buffer
	if err := digestTmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("rendering digest: %w", err)
	}
	return buf.String(), nil
}

// buildSectionView groups a section's pearls under their source articles,
// preserving article order. Articles with no pearls are omitted; a section
// with no pearls at all gets the explicit notice.
func buildSectionView(s types.Section) sectionView {
	view := sectionView{Procedure: s.Procedure}

	for _, a := range s.Articles {
		var pearls []types.Pearl
		for _, p := range s.Pearls {
			if p.SourcePMID == a.PMID {
				pearls = append(pearls, p)
			}
		}
		if len(pearls) > 0 {
			view.Entries = append(view.Entries, entry{Article: a, Pearls: pearls})
		}
	}

	if len(view.Entries) == 0 {
		view.Notice = emptySectionNotice
		if s.Note != "" {
			view.Notice = s.Note
		}
	}
	return view
}

// Subject builds the email subject line for a digest.
func Subject(d types.Digest) string {
	return fmt.Sprintf("Surgical Scout Digest - %s", d.GeneratedAt.Format("January 2, 2006"))
}

func categoryLabel(c types.PearlCategory) string {
	switch c {
	case types.PearlTechnique:
		return "Technique"
	case types.PearlProduct:
		return "Product/Device"
	case types.PearlSafety:
		return "Safety"
	}
	return string(c)
}
