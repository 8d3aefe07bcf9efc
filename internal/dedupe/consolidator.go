// Package dedupe collapses near-duplicate extracted statements per document
// using the character-level matching-blocks similarity ratio.
package dedupe

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/verdant-labs/biodivminer/internal/artifact"
	"github.com/verdant-labs/biodivminer/internal/stageledger"
)

// StageKey names the consolidation stage in the ledger.
const StageKey = "deduplicate_statements"

// DefaultThreshold is the similarity ratio above which a statement counts as
// a near-duplicate of one already kept.
const DefaultThreshold = 0.9

// ConsolidatedPageRange is the placeholder label carried by the synthetic
// passage that replaces a document's passage list after consolidation.
const ConsolidatedPageRange = "entire document"

const consolidatedNote = "Consolidated statements after per-document deduplication."

// Similarity returns the matching-blocks ratio between two statements,
// compared case-insensitively.
func Similarity(a, b string) float64 {
	left := strings.Split(strings.ToLower(a), "")
	right := strings.Split(strings.ToLower(b), "")
	return difflib.NewMatcher(left, right).Ratio()
}

// RemoveNearDuplicates scans candidates in their original order and keeps a
// candidate only if its similarity to every already-kept statement stays
// below the threshold. The first occurrence of a near-duplicate group always
// survives; the result is order-sensitive on purpose.
func RemoveNearDuplicates(statements []string, threshold float64) []string {
	var kept []string
	for _, candidate := range statements {
		duplicate := false
		for _, existing := range kept {
			if Similarity(candidate, existing) > threshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, candidate)
		}
	}
	return kept
}

// Consolidator runs the per-document consolidation stage over the validated
// passage artifacts.
type Consolidator struct {
	Ledger    *stageledger.Ledger
	Threshold float64
}

func (c *Consolidator) threshold() float64 {
	if c.Threshold > 0 {
		return c.Threshold
	}
	return DefaultThreshold
}

// Run consolidates every artifact in dir that has not completed the stage.
func (c *Consolidator) Run(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read artifact dir: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(name), ".json") {
			continue
		}
		if c.Ledger.IsDone(name, StageKey) {
			continue
		}
		if err := c.consolidateFile(filepath.Join(dir, name)); err != nil {
			log.Printf("dedupe: %s failed, will retry next run: %v", name, err)
			continue
		}
		if err := c.Ledger.MarkDone(name, StageKey); err != nil {
			return fmt.Errorf("mark %s done: %w", name, err)
		}
	}
	return nil
}

// consolidateFile flattens all actions and metrics across the document's
// passages, filters near-duplicates per sequence, and on any shrink replaces
// the passage list with one consolidated record. Untouched artifacts are not
// rewritten.
func (c *Consolidator) consolidateFile(path string) error {
	doc, err := artifact.LoadRelevant(path)
	if err != nil {
		return err
	}

	var actions, metrics []string
	keywordSet := map[string]bool{}
	for _, p := range doc.BiodiversityPassages {
		actions = append(actions, p.Actions...)
		metrics = append(metrics, p.Metrics...)
		for _, kw := range p.FoundKeywords {
			keywordSet[kw] = true
		}
	}

	uniqueActions := RemoveNearDuplicates(actions, c.threshold())
	uniqueMetrics := RemoveNearDuplicates(metrics, c.threshold())
	if len(uniqueActions) == len(actions) && len(uniqueMetrics) == len(metrics) {
		return nil
	}

	keywords := make([]string, 0, len(keywordSet))
	for kw := range keywordSet {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)

	doc.BiodiversityPassages = []artifact.Passage{{
		PageRange:     ConsolidatedPageRange,
		PassageText:   []string{consolidatedNote},
		Actions:       uniqueActions,
		Metrics:       uniqueMetrics,
		FoundKeywords: keywords,
	}}
	log.Printf("dedupe: %s reduced to %d actions, %d metrics",
		filepath.Base(path), len(uniqueActions), len(uniqueMetrics))
	return artifact.SaveRelevant(path, doc)
}
