// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/surgical-scout/internal/logging"
	"github.com/pdiddy/surgical-scout/pkg/types"
)

// fakeTier records how often it was attempted.
type fakeTier struct {
	name       string
	provenance types.Provenance
	text       string
	err        error
	attempts   int
}

func (f *fakeTier) Name() string                 { return f.name }
func (f *fakeTier) Provenance() types.Provenance { return f.provenance }

func (f *fakeTier) Attempt(_ context.Context, _ types.Article) (string, error) {
	f.attempts++
	return f.text, f.err
}

func testLog() *logging.RunLog { return logging.NewWriter(io.Discard, true) }

func testArticle() types.Article {
	return types.Article{
		PMID:       "38000001",
		DOI:        "10.1097/PRS.0000000000012345",
		Abstract:   "An abstract.",
		Provenance: types.ProvenanceAbstract,
	}
}

func TestResolveFirstTierWins(t *testing.T) {
	pmc := &fakeTier{name: "pmc", provenance: types.ProvenancePMC, text: "full text from pmc"}
	oa := &fakeTier{name: "unpaywall", provenance: types.ProvenanceOpenAccess, text: "unused"}

	got := NewWithTiers(testLog(), pmc, oa).Resolve(context.Background(), testArticle())

	assert.Equal(t, "full text from pmc", got.FullText)
	assert.Equal(t, types.ProvenancePMC, got.Provenance)
	assert.Equal(t, 1, pmc.attempts)
	assert.Equal(t, 0, oa.attempts, "later tiers must not run after a hit")
}

func TestResolveAdvancesOnMiss(t *testing.T) {
	pmc := &fakeTier{name: "pmc", provenance: types.ProvenancePMC, err: ErrNoFullText}
	oa := &fakeTier{name: "unpaywall", provenance: types.ProvenanceOpenAccess, text: "open access text"}
	sess := &fakeTier{name: "session", provenance: types.ProvenanceSession, text: "unused"}

	got := NewWithTiers(testLog(), pmc, oa, sess).Resolve(context.Background(), testArticle())

	assert.Equal(t, types.ProvenanceOpenAccess, got.Provenance)
	assert.Equal(t, 1, pmc.attempts)
	assert.Equal(t, 1, oa.attempts, "tier after a miss attempted exactly once")
	assert.Equal(t, 0, sess.attempts)
}

func TestResolveAllTiersMiss(t *testing.T) {
	pmc := &fakeTier{name: "pmc", provenance: types.ProvenancePMC, err: ErrNoFullText}
	oa := &fakeTier{name: "unpaywall", provenance: types.ProvenanceOpenAccess, err: errors.New("timeout")}
	sess := &fakeTier{name: "session", provenance: types.ProvenanceSession, err: ErrSessionUnavailable}

	got := NewWithTiers(testLog(), pmc, oa, sess).Resolve(context.Background(), testArticle())

	assert.Empty(t, got.FullText)
	assert.Equal(t, types.ProvenanceAbstract, got.Provenance)
	assert.Equal(t, "An abstract.", got.Abstract, "abstract survives resolution")
	for _, tier := range []*fakeTier{pmc, oa, sess} {
		assert.Equal(t, 1, tier.attempts, "%s attempted exactly once", tier.name)
	}
}

func TestResolveEmptyTextCountsAsMiss(t *testing.T) {
	empty := &fakeTier{name: "pmc", provenance: types.ProvenancePMC, text: ""}
	oa := &fakeTier{name: "unpaywall", provenance: types.ProvenanceOpenAccess, text: "real text"}

	got := NewWithTiers(testLog(), empty, oa).Resolve(context.Background(), testArticle())

	assert.Equal(t, types.ProvenanceOpenAccess, got.Provenance)
}

func TestNewBuildsFixedTierOrder(t *testing.T) {
	cfg := types.ResolveConfig{EnableSession: true, CookieFile: "cookies.txt"}
	r := New(cfg, NewCookieFile(cfg.CookieFile), testLog())

	var names []string
	for _, tier := range r.tiers {
		names = append(names, tier.Name())
	}
	assert.Equal(t, []string{"pmc", "unpaywall", "session"}, names)
}

func TestNewWithoutSession(t *testing.T) {
	r := New(types.ResolveConfig{}, nil, testLog())

	var names []string
	for _, tier := range r.tiers {
		names = append(names, tier.Name())
	}
	assert.Equal(t, []string{"pmc", "unpaywall"}, names)
}
