// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the surgical-scout pipeline.
package types

// Provenance records which resolver tier supplied an article's content.
type Provenance string

const (
	// ProvenanceAbstract means no tier succeeded and only the PubMed
	// abstract is available.
	ProvenanceAbstract Provenance = "abstract-only"

	// ProvenancePMC means the free PubMed Central repository held the
	// full text.
	ProvenancePMC Provenance = "free-repository"

	// ProvenanceOpenAccess means Unpaywall located a legally open
	// full-text copy.
	ProvenanceOpenAccess Provenance = "open-access-mirror"

	// ProvenanceSession means the full text was fetched from the
	// publisher through the institutional browser session.
	ProvenanceSession Provenance = "institutional-session"
)

// Article holds one PubMed search result, optionally enriched with full
// text by the resolver. The abstract is always present; FullText only when
// a resolver tier succeeded.
type Article struct {
	// PMID is the PubMed identifier, unique within the database.
	PMID string `json:"pmid" yaml:"pmid"`

	// DOI is the document identifier used by the open-access and
	// institutional tiers. May be empty.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Title is the article title.
	Title string `json:"title" yaml:"title"`

	// Authors is the formatted author string ("Smith J, Lee K et al.").
	Authors string `json:"authors" yaml:"authors"`

	// Journal is the full journal name.
	Journal string `json:"journal" yaml:"journal"`

	// Date is the publication date as printed in the citation
	// (e.g. "Mar 2026"); PubMed does not always supply a full date.
	Date string `json:"date" yaml:"date"`

	// Abstract is the abstract text.
	Abstract string `json:"abstract" yaml:"abstract"`

	// FullText is the resolved article body, empty unless a tier succeeded.
	FullText string `json:"full_text,omitempty" yaml:"full_text,omitempty"`

	// Provenance names the tier that supplied the content.
	Provenance Provenance `json:"provenance" yaml:"provenance"`
}

// HasFullText reports whether a resolver tier supplied a body.
func (a Article) HasFullText() bool {
	return a.FullText != "" && a.Provenance != ProvenanceAbstract
}

// PubMedURL returns the public deep link for the article.
func (a Article) PubMedURL() string {
	return "https://pubmed.ncbi.nlm.nih.gov/" + a.PMID + "/"
}
