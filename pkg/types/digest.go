// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// PearlCategory classifies a clinical pearl.
type PearlCategory string

const (
	PearlTechnique PearlCategory = "technique"
	PearlProduct   PearlCategory = "product-device"
	PearlSafety    PearlCategory = "safety"
)

// ValidPearlCategory reports whether c is one of the accepted categories.
func ValidPearlCategory(c PearlCategory) bool {
	switch c {
	case PearlTechnique, PearlProduct, PearlSafety:
		return true
	}
	return false
}

// Pearl is a single clinically actionable finding extracted from exactly
// one article. SourcePMID always names an article present in the same run.
type Pearl struct {
	// Summary is the 2-3 sentence finding.
	Summary string `json:"summary" yaml:"summary"`

	// Category tags the kind of finding.
	Category PearlCategory `json:"category" yaml:"category"`

	// SourcePMID identifies the article the pearl was extracted from.
	SourcePMID string `json:"source_pmid" yaml:"source_pmid"`
}

// Section aggregates the pearls for one procedure. A section with no
// pearls renders as an explicit "no new findings" notice.
type Section struct {
	// Procedure is the case-list name, verbatim.
	Procedure string `json:"procedure" yaml:"procedure"`

	// Articles lists the search results for the procedure, in the order
	// returned by PubMed, after resolution.
	Articles []Article `json:"articles,omitempty" yaml:"articles,omitempty"`

	// Pearls lists the extracted findings across the section's articles.
	Pearls []Pearl `json:"pearls,omitempty" yaml:"pearls,omitempty"`

	// Note carries a human-readable reason for an empty section
	// (e.g. search unavailable), blank otherwise.
	Note string `json:"note,omitempty" yaml:"note,omitempty"`
}

// Empty reports whether the section has no pearls.
func (s Section) Empty() bool { return len(s.Pearls) == 0 }

// ArticleByPMID returns the section article with the given PMID, if present.
func (s Section) ArticleByPMID(pmid string) (Article, bool) {
	for _, a := range s.Articles {
		if a.PMID == pmid {
			return a, true
		}
	}
	return Article{}, false
}

// Digest is the full output of one run: one section per procedure in
// case-list order, plus run metadata. It is transient; only the rendered
// HTML and the run report outlive the process.
type Digest struct {
	// RunID is a ULID identifying the run in logs and the report.
	RunID string `json:"run_id" yaml:"run_id"`

	// GeneratedAt is the run timestamp.
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`

	// Sections holds one entry per procedure, preserving input order.
	Sections []Section `json:"sections" yaml:"sections"`
}

// PearlCount returns the total number of pearls across all sections.
func (d Digest) PearlCount() int {
	n := 0
	for _, s := range d.Sections {
		n += len(s.Pearls)
	}
	return n
}

// ArticleCount returns the total number of articles across all sections.
func (d Digest) ArticleCount() int {
	n := 0
	for _, s := range d.Sections {
		n += len(s.Articles)
	}
	return n
}
