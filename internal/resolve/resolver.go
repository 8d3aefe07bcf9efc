package resolve

import (
	"fmt"
	"log"
	"strings"

	"github.com/verdant-labs/biodivminer/internal/registry"
	"github.com/verdant-labs/biodivminer/internal/report"
)

// KeyIndex maps a normalized join key to its canonical registry row.
// Duplicate keys keep the first registry row.
type KeyIndex struct {
	byKey map[string]registry.Company
}

// BuildKeyIndex computes the join key for every registry row, deduplicated
// keep-first.
func BuildKeyIndex(companies []registry.Company) *KeyIndex {
	byKey := make(map[string]registry.Company, len(companies))
	for _, c := range companies {
		key := NormalizeKey(c.Name)
		if key == "" {
			continue
		}
		if _, exists := byKey[key]; !exists {
			byKey[key] = c
		}
	}
	return &KeyIndex{byKey: byKey}
}

// Lookup joins a noisy label on its exact normalized key.
func (ix *KeyIndex) Lookup(label string) (registry.Company, bool) {
	c, ok := ix.byKey[NormalizeKey(label)]
	return c, ok
}

// Annotate fills a row's metadata columns from the phase-1 join, or the
// sentinel everywhere when the label has no exact key match. The row count
// and order of the caller's slice are never touched.
func (ix *KeyIndex) Annotate(row *report.Row) {
	if c, ok := ix.Lookup(row.Source); ok {
		applyCompany(row, c)
		return
	}
	row.Company = Sentinel
	row.Country = Sentinel
	row.Rating = Sentinel
	row.PrimaryListing = Sentinel
	row.Industry = Sentinel
}

// FallbackMatch is the phase-2 repair for one label: strip filename
// suffixes, normalize, and accept the first registry row (in registry order)
// whose normalized name contains the key as a substring.
func FallbackMatch(label string, companies []registry.Company) (registry.Company, bool) {
	key := NormalizeName(StripLabelSuffixes(label))
	if key == "" {
		return registry.Company{}, false
	}
	for _, c := range companies {
		if strings.Contains(NormalizeName(c.Name), key) {
			return c, true
		}
	}
	return registry.Company{}, false
}

// unresolved reports whether a row still carries the sentinel (or nothing)
// for its resolved company.
func unresolved(row report.Row) bool {
	company := strings.TrimSpace(row.Company)
	return company == "" || company == Sentinel
}

// RepairReport runs phase 2 over a persisted report: every row still
// unmatched after the phase-1 join is re-tried with the substring fallback,
// and all rows sharing one original label receive the same match. Rows that
// already matched are never downgraded; order and count are preserved.
func RepairReport(reportPath string, companies []registry.Company) error {
	rows, err := report.Read(reportPath)
	if err != nil {
		return err
	}

	var labels []string
	seen := map[string]bool{}
	for _, row := range rows {
		if !unresolved(row) || seen[row.Source] {
			continue
		}
		seen[row.Source] = true
		labels = append(labels, row.Source)
	}
	if len(labels) == 0 {
		log.Printf("resolve: no unmatched rows in %s", reportPath)
		return nil
	}
	log.Printf("resolve: retrying %d unmatched labels", len(labels))

	matches := map[string]registry.Company{}
	for _, label := range labels {
		if c, ok := FallbackMatch(label, companies); ok {
			matches[label] = c
			log.Printf("resolve: %q matched %q", label, c.Name)
		}
	}
	if len(matches) == 0 {
		log.Printf("resolve: fallback pass found no new matches")
		return nil
	}

	for i := range rows {
		if !unresolved(rows[i]) {
			continue
		}
		if c, ok := matches[rows[i].Source]; ok {
			applyCompany(&rows[i], c)
		}
	}
	if err := report.Write(reportPath, rows); err != nil {
		return fmt.Errorf("rewrite report: %w", err)
	}
	log.Printf("resolve: repaired %d labels in %s", len(matches), reportPath)
	return nil
}

func applyCompany(row *report.Row, c registry.Company) {
	row.Company = c.Name
	row.Country = c.Country
	row.Rating = c.Rating
	row.PrimaryListing = c.PrimaryListing
	row.Industry = c.Industry
}
