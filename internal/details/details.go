// Package details enriches relevant passages with the concrete action and
// metric sentences a model finds in each context window.
package details

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/verdant-labs/biodivminer/internal/artifact"
	"github.com/verdant-labs/biodivminer/internal/oracle"
	"github.com/verdant-labs/biodivminer/internal/stageledger"
)

// StageKey names the enrichment stage in the ledger.
const StageKey = "extract_actions_and_metrics"

// DetailOracle splits a text snippet into action and metric sentences.
type DetailOracle interface {
	ActionsAndMetrics(ctx context.Context, passage string) (oracle.Details, error)
}

// Extractor runs the enrichment stage over a directory of relevant-passage
// artifacts, rewriting each file in place when it gains details.
type Extractor struct {
	Ledger *stageledger.Ledger
	Oracle DetailOracle
}

// Run processes every artifact in dir that has not completed the stage yet.
func (e *Extractor) Run(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(name), ".json") || name == stageledger.FileName {
			continue
		}
		if e.Ledger.IsDone(name, StageKey) {
			continue
		}
		log.Printf("details: processing %s", name)
		if err := e.enrichFile(ctx, filepath.Join(dir, name), name); err != nil {
			log.Printf("details: %s failed, will retry next run: %v", name, err)
			continue
		}
		if err := e.Ledger.MarkDone(name, StageKey); err != nil {
			return fmt.Errorf("mark %s done: %w", name, err)
		}
	}
	return nil
}

func (e *Extractor) enrichFile(ctx context.Context, path, name string) error {
	doc, err := artifact.LoadRelevant(path)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}

	changed := false
	for i := range doc.BiodiversityPassages {
		p := &doc.BiodiversityPassages[i]
		var actions, metrics []string
		for _, snippet := range p.PassageText {
			if strings.TrimSpace(snippet) == "" {
				continue
			}
			d, err := e.Oracle.ActionsAndMetrics(ctx, snippet)
			if err != nil {
				return fmt.Errorf("extract details: %w", err)
			}
			actions = append(actions, d.Actions...)
			metrics = append(metrics, d.Metrics...)
		}
		if len(actions) > 0 {
			p.Actions = sortedUnique(actions)
			changed = true
		}
		if len(metrics) > 0 {
			p.Metrics = sortedUnique(metrics)
			changed = true
		}
	}

	if !changed {
		log.Printf("details: nothing found in %s", name)
		return nil
	}
	if err := artifact.SaveRelevant(path, doc); err != nil {
		return fmt.Errorf("rewrite: %w", err)
	}
	log.Printf("details: enriched %s", name)
	return nil
}

func sortedUnique(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
