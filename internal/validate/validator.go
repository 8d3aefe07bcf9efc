// Package validate narrows raw keyword passages down to the sentences a
// model judges to be concrete company actions or metrics, re-windowed with a
// little surrounding context.
package validate

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/verdant-labs/biodivminer/internal/artifact"
	"github.com/verdant-labs/biodivminer/internal/stageledger"
)

// StageKey names the validation stage in the ledger.
const StageKey = "relevant_text_passages_processing"

// DefaultWindowMargin is the number of sentences kept on each side of a key
// sentence.
const DefaultWindowMargin = 2

// IndexOracle selects the key sentences out of a numbered list.
type IndexOracle interface {
	KeySentenceIndices(ctx context.Context, sentences []string) ([]int, error)
}

// Validator runs the validation stage over a directory of raw passage
// artifacts.
type Validator struct {
	Ledger       *stageledger.Ledger
	Oracle       IndexOracle
	Split        func(text string) []string
	OutDir       string
	WindowMargin int
}

// Run processes every raw artifact in inputDir that has not completed the
// stage yet. A failing artifact is logged and retried on the next run.
func (v *Validator) Run(ctx context.Context, inputDir string) error {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return fmt.Errorf("read input dir: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(name), ".json") || name == stageledger.FileName {
			continue
		}
		if v.Ledger.IsDone(name, StageKey) {
			continue
		}
		log.Printf("validate: processing %s", name)
		if err := v.processArtifact(ctx, filepath.Join(inputDir, name), name); err != nil {
			log.Printf("validate: %s failed, will retry next run: %v", name, err)
			continue
		}
		if err := v.Ledger.MarkDone(name, StageKey); err != nil {
			return fmt.Errorf("mark %s done: %w", name, err)
		}
	}
	return nil
}

// processArtifact validates one raw artifact. A nil return means the
// artifact reached a terminal outcome (including "no relevant sentences")
// and the stage may be marked done.
func (v *Validator) processArtifact(ctx context.Context, path, name string) error {
	doc, err := artifact.LoadRaw(path)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}

	var relevant []artifact.Passage
	for _, p := range doc.ExtractedPassages {
		if strings.TrimSpace(p.PassageText) == "" {
			continue
		}
		sentences := v.Split(p.PassageText)
		if len(sentences) == 0 {
			continue
		}
		indices, err := v.Oracle.KeySentenceIndices(ctx, sentences)
		if err != nil {
			return fmt.Errorf("key sentence selection: %w", err)
		}
		windows := BuildContextWindows(sentences, indices, v.margin())
		if len(windows) == 0 {
			continue
		}
		relevant = append(relevant, artifact.Passage{
			PageRange:     p.PageRange,
			PassageText:   windows,
			FoundKeywords: p.FoundKeywords,
		})
	}

	if len(relevant) == 0 {
		log.Printf("validate: nothing relevant in %s", name)
		return nil
	}

	base := strings.TrimSuffix(name, filepath.Ext(name))
	out := filepath.Join(v.OutDir, base+artifact.RelevantSuffix+".json")
	if err := artifact.SaveRelevant(out, artifact.RelevantDocument{BiodiversityPassages: relevant}); err != nil {
		return fmt.Errorf("save relevant passages: %w", err)
	}
	log.Printf("validate: wrote %d passages for %s", len(relevant), name)
	return nil
}

func (v *Validator) margin() int {
	if v.WindowMargin > 0 {
		return v.WindowMargin
	}
	return DefaultWindowMargin
}

// BuildContextWindows joins each key sentence with up to margin sentences of
// context on both sides. A key sentence that already sits inside an earlier
// window yields no window of its own.
func BuildContextWindows(sentences []string, keyIndices []int, margin int) []string {
	if len(keyIndices) == 0 {
		return nil
	}
	sorted := append([]int(nil), keyIndices...)
	sort.Ints(sorted)

	var windows []string
	covered := make(map[int]bool)
	for _, key := range sorted {
		if key < 0 || key >= len(sentences) || covered[key] {
			continue
		}
		start := max(0, key-margin)
		end := min(len(sentences), key+margin+1)
		windows = append(windows, strings.Join(sentences[start:end], " "))
		for i := start; i < end; i++ {
			covered[i] = true
		}
	}
	return windows
}
