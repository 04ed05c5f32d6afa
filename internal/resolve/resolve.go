// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve obtains the richest available content for an article
// through an ordered chain of strategies: the free PubMed Central
// repository, the Unpaywall open-access index, then the institutional
// browser session. Each tier is attempted at most once and the first hit
// wins; when every tier misses the article keeps its abstract-only
// provenance and the caller works from the abstract.
package resolve

import (
	"context"
	"errors"

	"github.com/pdiddy/surgical-scout/internal/logging"
	"github.com/pdiddy/surgical-scout/pkg/types"
)

// ErrNoFullText is the ordinary miss: the tier has no full text for this
// article.
var ErrNoFullText = errors.New("no full text available")

// ErrSessionUnavailable means the institutional-session tier has no valid
// authenticated session. Logged as a distinct warning so the operator
// knows to re-authenticate in the browser.
var ErrSessionUnavailable = errors.New("institutional session unavailable or expired")

// Tier is one strategy in the resolution chain.
type Tier interface {
	// Name identifies the tier in logs.
	Name() string

	// Provenance is the tag recorded on an article this tier resolves.
	Provenance() types.Provenance

	// Attempt returns the article's full text, ErrNoFullText on a miss,
	// or another error for fetch/auth/parse failures. All failures are
	// non-fatal to the run.
	Attempt(ctx context.Context, article types.Article) (string, error)
}

// Resolver walks the tier chain in fixed order.
type Resolver struct {
	tiers []Tier
	log   *logging.RunLog
}

// New builds the standard chain from configuration: PMC, then Unpaywall,
// then (when enabled) the institutional session.
func New(cfg types.ResolveConfig, session SessionSource, log *logging.RunLog) *Resolver {
	tiers := []Tier{
		NewPMCTier(cfg),
		NewUnpaywallTier(cfg),
	}
	if cfg.EnableSession {
		tiers = append(tiers, NewSessionTier(cfg, session))
	}
	return &Resolver{tiers: tiers, log: log}
}

// NewWithTiers builds a Resolver over an explicit chain. Used by tests
// and by callers that need a non-standard tier order.
func NewWithTiers(log *logging.RunLog, tiers ...Tier) *Resolver {
	return &Resolver{tiers: tiers, log: log}
}

// Resolve enriches the article with full text from the first tier that
// succeeds and stamps its provenance. Tier failures advance the chain;
// they never fail the article, let alone the run.
func (r *Resolver) Resolve(ctx context.Context, article types.Article) types.Article {
	for _, tier := range r.tiers {
		text, err := tier.Attempt(ctx, article)
		switch {
		case err == nil && text != "":
			r.log.Infof("resolve: PMID %s full text via %s", article.PMID, tier.Name())
			article.FullText = text
			article.Provenance = tier.Provenance()
			return article
		case errors.Is(err, ErrSessionUnavailable):
			r.log.Warnf("resolve: PMID %s: %s tier skipped: %v", article.PMID, tier.Name(), err)
		case errors.Is(err, ErrNoFullText):
			r.log.Debugf("resolve: PMID %s: no full text at %s", article.PMID, tier.Name())
		case err != nil:
			r.log.Debugf("resolve: PMID %s: %s tier failed: %v", article.PMID, tier.Name(), err)
		default:
			// Empty text with a nil error counts as a miss.
			r.log.Debugf("resolve: PMID %s: %s returned empty text", article.PMID, tier.Name())
		}
	}

	r.log.Infof("resolve: PMID %s: falling back to abstract", article.PMID)
	article.Provenance = types.ProvenanceAbstract
	return article
}
