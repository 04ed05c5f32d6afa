// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences a full monitoring run: search, resolve,
// extract and assemble per procedure, then render, report and dispatch
// once. Per-procedure and per-article failures degrade to empty or
// partial sections; only dispatch exhaustion fails the run.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/pdiddy/surgical-scout/internal/digest"
	"github.com/pdiddy/surgical-scout/internal/logging"
	"github.com/pdiddy/surgical-scout/pkg/types"
)

// searchUnavailableNote is recorded on a section when the upstream
// literature search failed for its procedure.
const searchUnavailableNote = "Literature search unavailable for this procedure."

// Searcher returns candidate articles for one procedure.
type Searcher interface {
	Search(ctx context.Context, procedure string, cfg types.SearchConfig) ([]types.Article, error)
}

// Resolver enriches an article with the richest available content.
type Resolver interface {
	Resolve(ctx context.Context, article types.Article) types.Article
}

// Extractor turns one article's content into pearls.
type Extractor interface {
	Extract(ctx context.Context, article types.Article, procedure string) ([]types.Pearl, error)
}

// Dispatcher delivers the rendered digest.
type Dispatcher interface {
	Dispatch(ctx context.Context, subject, htmlBody string) error
}

// Pipeline wires the run's stages together.
type Pipeline struct {
	Searcher   Searcher
	Resolver   Resolver
	Extractor  Extractor
	Dispatcher Dispatcher
	Config     types.PipelineConfig
	Log        *logging.RunLog

	// now is the run clock. Overridable for deterministic tests.
	now func() time.Time
}

// New returns a Pipeline over the given stage implementations.
func New(searcher Searcher, resolver Resolver, extractor Extractor, dispatcher Dispatcher, cfg types.PipelineConfig, log *logging.RunLog) *Pipeline {
	return &Pipeline{
		Searcher:   searcher,
		Resolver:   resolver,
		Extractor:  extractor,
		Dispatcher: dispatcher,
		Config:     cfg,
		Log:        log,
		now:        time.Now,
	}
}

// Result summarizes one run.
type Result struct {
	Digest     types.Digest
	HTMLPath   string
	ReportPath string
	Dispatched bool
}

// Run executes the full pipeline over the given procedures. With dryRun
// the digest is rendered and reported but never dispatched. The returned
// error reflects only terminal failures: rendering, output writing, or
// delivery exhaustion.
func (p *Pipeline) Run(ctx context.Context, procedures []string, dryRun bool) (Result, error) {
	d := types.Digest{
		RunID:       ulid.Make().String(),
		GeneratedAt: p.now(),
	}
	p.Log.Infof("run %s started: %d procedures", d.RunID, len(procedures))

	for _, procedure := range procedures {
		d.Sections = append(d.Sections, p.processProcedure(ctx, procedure))
	}

	html, err := digest.Render(d)
	if err != nil {
		return Result{Digest: d}, err
	}

	res := Result{Digest: d}
	res.HTMLPath, res.ReportPath, err = p.writeOutputs(d, html, dryRun)
	if err != nil {
		return res, err
	}

	if dryRun {
		p.Log.Infof("run %s: dry run, skipping dispatch (%d pearls from %d articles)",
			d.RunID, d.PearlCount(), d.ArticleCount())
		return res, nil
	}

	if err := p.Dispatcher.Dispatch(ctx, digest.Subject(d), html); err != nil {
		return res, fmt.Errorf("dispatching digest: %w", err)
	}
	res.Dispatched = true

	// Rewrite the report so it records the delivery.
	if res.ReportPath != "" {
		if werr := writeReport(res.ReportPath, buildReport(d, res)); werr != nil {
			p.Log.Warnf("updating run report: %v", werr)
		}
	}

	p.Log.Infof("run %s complete: %d pearls from %d articles", d.RunID, d.PearlCount(), d.ArticleCount())
	return res, nil
}

// processProcedure builds one digest section. Search failure yields an
// empty section with an explanatory note; per-article extraction failure
// drops only that article's pearls.
func (p *Pipeline) processProcedure(ctx context.Context, procedure string) types.Section {
	section := types.Section{Procedure: procedure}

	p.Log.Infof("searching literature for %q", procedure)
	articles, err := p.Searcher.Search(ctx, procedure, p.Config.Search)
	if err != nil {
		p.Log.Warnf("search failed for %q: %v", procedure, err)
		section.Note = searchUnavailableNote
		return section
	}
	p.Log.Infof("found %d articles for %q", len(articles), procedure)

	for _, article := range articles {
		resolved := p.Resolver.Resolve(ctx, article)
		section.Articles = append(section.Articles, resolved)

		pearls, err := p.Extractor.Extract(ctx, resolved, procedure)
		if err != nil {
			p.Log.Warnf("extraction failed for PMID %s: %v", resolved.PMID, err)
			continue
		}
		p.Log.Infof("PMID %s (%s): %d pearls", resolved.PMID, resolved.Provenance, len(pearls))
		section.Pearls = append(section.Pearls, pearls...)
	}
	return section
}

// writeOutputs persists the rendered HTML and the YAML run report.
func (p *Pipeline) writeOutputs(d types.Digest, html string, dryRun bool) (htmlPath, reportPath string, err error) {
	outDir := p.Config.OutputDir
	if outDir == "" {
		outDir = "output"
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating output dir: %w", err)
	}

	htmlPath = filepath.Join(outDir, fmt.Sprintf("digest-%s.html", d.RunID))
	if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
		return "", "", fmt.Errorf("writing digest html: %w", err)
	}
	p.Log.Infof("digest written to %s", htmlPath)

	reportPath = filepath.Join(outDir, fmt.Sprintf("report-%s.yaml", d.RunID))
	report := buildReport(d, Result{Digest: d})
	report.DryRun = dryRun
	if err := writeReport(reportPath, report); err != nil {
		return htmlPath, "", fmt.Errorf("writing run report: %w", err)
	}
	return htmlPath, reportPath, nil
}
