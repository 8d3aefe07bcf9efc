// Package resolve reconciles noisy, suffix-laden company labels against the
// canonical registry: an exact normalized-key join first, then a looser
// substring fallback for whatever the join could not place.
package resolve

import (
	"regexp"
	"strings"
)

// Sentinel marks a metadata column that has no resolved value.
const Sentinel = "N/A"

// stopWords are corporate legal forms and report boilerplate removed
// whole-word before building a join key.
var stopWords = []string{
	// Scandinavia
	"ab", "asa",
	// UK / USA / international
	"plc", "limited", "ltd", "inc", "incorporated", "corp", "corporation", "group",
	// Germany / Austria
	"ag", "gmbh", "se",
	// France / Spain / Italy / Latin America
	"sa", "srl", "spa",
	// Netherlands / Belgium
	"nv", "bv",
	// generic
	"the", "holding", "holdings",
	// report artifacts
	"sustainability", "report", "relevant", "passages", "annual", "integrated",
}

var (
	stopWordRe    = regexp.MustCompile(`\b(` + strings.Join(stopWords, "|") + `)\b`)
	yearRe        = regexp.MustCompile(`(_)?\d{4}`)
	nonAlnumRe    = regexp.MustCompile(`[^a-z0-9]`)
	labelSuffixRe = regexp.MustCompile(`_\d{4}|_relevant_passages|_sustainability_report`)
)

// NormalizeKey builds the join key for a company label: lower-case,
// underscores and hyphens to spaces, legal-form and boilerplate words
// removed, 4-digit years stripped, everything outside [a-z0-9] dropped.
// The reduction is applied until it reaches a fixpoint, so the function is
// idempotent even when stripping punctuation exposes a new stop word.
func NormalizeKey(name string) string {
	key := name
	for {
		next := normalizeKeyOnce(key)
		if next == key {
			return key
		}
		key = next
	}
}

func normalizeKeyOnce(name string) string {
	key := strings.ToLower(name)
	key = strings.NewReplacer("_", " ", "-", " ").Replace(key)
	key = stopWordRe.ReplaceAllString(key, "")
	key = yearRe.ReplaceAllString(key, "")
	return nonAlnumRe.ReplaceAllString(key, "")
}

// NormalizeName is the plain normalization used by the fallback pass and
// input hygiene: lower-case, everything outside [a-z0-9] dropped.
func NormalizeName(name string) string {
	return nonAlnumRe.ReplaceAllString(strings.ToLower(name), "")
}

// StripLabelSuffixes cuts a noisy artifact label at the first filename
// suffix: a year segment, "_relevant_passages" or "_sustainability_report".
func StripLabelSuffixes(label string) string {
	if loc := labelSuffixRe.FindStringIndex(label); loc != nil {
		return label[:loc[0]]
	}
	return label
}
