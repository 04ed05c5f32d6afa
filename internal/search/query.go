// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// expansions maps case-list shorthand to the terms PubMed actually indexes.
var expansions = map[string]string{
	"Botox":  "botulinum toxin",
	"Filler": "dermal filler",
	"NLF":    "nasolabial fold",
}

// procedurePattern splits "Base (sub, terms)" case-list entries.
var procedurePattern = regexp.MustCompile(`^([^(]+?)(?:\s*\((.+?)\))?\s*$`)

// CleanProcedure normalizes a case-list entry into a PubMed search term.
// "Botox (glabella, forehead)" becomes
// `botulinum toxin AND (glabella OR forehead)`.
func CleanProcedure(raw string) string {
	m := procedurePattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return raw
	}

	base := strings.TrimSpace(m[1])
	if exp, ok := expansions[base]; ok {
		base = exp
	}

	if m[2] == "" {
		return base
	}

	var subTerms []string
	for _, part := range strings.Split(m[2], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if exp, ok := expansions[part]; ok {
			part = exp
		}
		subTerms = append(subTerms, part)
	}
	if len(subTerms) == 0 {
		return base
	}
	return fmt.Sprintf("%s AND (%s)", base, strings.Join(subTerms, " OR "))
}

// dateRange formats the rolling lookback window as a PubMed [DP] filter.
// PubMed wants YYYY/MM/DD:YYYY/MM/DD.
func dateRange(now time.Time, windowMonths int) string {
	start := now.AddDate(0, -windowMonths, 0)
	return fmt.Sprintf("%s:%s[DP]", start.Format("2006/01/02"), now.Format("2006/01/02"))
}

// journalFilter builds the OR-list of quoted [Journal] terms.
func journalFilter(journals []string) string {
	terms := make([]string, len(journals))
	for i, j := range journals {
		terms[i] = fmt.Sprintf("%q[Journal]", j)
	}
	return strings.Join(terms, " OR ")
}

// BuildQuery combines the procedure term with the journal filter and the
// publication-date window.
func BuildQuery(procedure string, journals []string, windowMonths int, now time.Time) string {
	term := CleanProcedure(procedure)
	if len(journals) == 0 {
		return fmt.Sprintf("(%s) AND (%s)", term, dateRange(now, windowMonths))
	}
	return fmt.Sprintf("(%s) AND (%s) AND (%s)",
		term, journalFilter(journals), dateRange(now, windowMonths))
}

// BuildBroadQuery drops the journal filter but anchors the search in the
// specialty, used as a second pass when the journal-filtered query finds
// nothing.
func BuildBroadQuery(procedure string, windowMonths int, now time.Time) string {
	term := CleanProcedure(procedure)
	return fmt.Sprintf("(%s) AND (plastic surgery OR aesthetic OR cosmetic) AND (%s)",
		term, dateRange(now, windowMonths))
}
