// Package cleanup drops relevant-passage entries whose text came back empty
// from validation, so later stages never burn model calls on them.
package cleanup

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/verdant-labs/biodivminer/internal/artifact"
	"github.com/verdant-labs/biodivminer/internal/stageledger"
)

// StageKey names the cleanup stage in the ledger.
const StageKey = "remove_empty_passages"

// Cleaner runs the cleanup stage over a directory of relevant-passage
// artifacts.
type Cleaner struct {
	Ledger *stageledger.Ledger
}

// Run filters every artifact in dir that has not completed the stage yet.
// Files are rewritten only when entries were actually removed.
func (c *Cleaner) Run(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(name), ".json") || name == stageledger.FileName {
			continue
		}
		if c.Ledger.IsDone(name, StageKey) {
			continue
		}
		if err := c.cleanFile(filepath.Join(dir, name), name); err != nil {
			log.Printf("cleanup: %s failed, will retry next run: %v", name, err)
			continue
		}
		if err := c.Ledger.MarkDone(name, StageKey); err != nil {
			return fmt.Errorf("mark %s done: %w", name, err)
		}
	}
	return nil
}

func (c *Cleaner) cleanFile(path, name string) error {
	doc, err := artifact.LoadRelevant(path)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}

	kept := doc.BiodiversityPassages[:0:0]
	for _, p := range doc.BiodiversityPassages {
		if len(p.PassageText) > 0 {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(doc.BiodiversityPassages) {
		log.Printf("cleanup: %s has no empty entries", name)
		return nil
	}

	removed := len(doc.BiodiversityPassages) - len(kept)
	doc.BiodiversityPassages = kept
	if err := artifact.SaveRelevant(path, doc); err != nil {
		return fmt.Errorf("rewrite: %w", err)
	}
	log.Printf("cleanup: removed %d empty entries from %s", removed, name)
	return nil
}
