// Package extract turns source PDFs into keyword-anchored passage artifacts:
// it detects the document language, finds lemmatized keyword hits, clusters
// nearby hits and emits context windows with page-range metadata.
package extract

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/verdant-labs/biodivminer/internal/artifact"
	"github.com/verdant-labs/biodivminer/internal/stageledger"
	"github.com/verdant-labs/biodivminer/internal/textproc"
)

// StageKey names the extraction stage in the ledger.
const StageKey = "text_extraction"

// sampleBudget is the number of leading pages used for language detection.
const sampleBudget = 3

// Document is an opened source report.
type Document interface {
	PageCount() int
	PageText(n int) (string, error) // 1-based
	Close() error
}

// Opener opens a source report by path.
type Opener func(path string) (Document, error)

// Extractor runs the extraction stage over an input directory.
type Extractor struct {
	Ledger       *stageledger.Ledger
	Langs        *textproc.Registry
	Catalog      Catalog
	Open         Opener
	OutDir       string
	GapTolerance int
	WindowMargin int
}

// Run processes every PDF in inputDir that has not completed the stage yet.
// A failing document is logged and retried on the next run; it never stops
// the remaining documents.
func (e *Extractor) Run(inputDir string) error {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return fmt.Errorf("read input dir: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(name), ".pdf") {
			continue
		}
		if e.Ledger.IsDone(name, StageKey) {
			continue
		}
		log.Printf("extract: processing %s", name)
		if err := e.processDocument(filepath.Join(inputDir, name), name); err != nil {
			log.Printf("extract: %s failed, will retry next run: %v", name, err)
			continue
		}
		if err := e.Ledger.MarkDone(name, StageKey); err != nil {
			return fmt.Errorf("mark %s done: %w", name, err)
		}
	}
	return nil
}

// processDocument extracts passages for one report. A nil return means the
// document reached a terminal outcome (including "nothing found") and the
// stage may be marked done.
func (e *Extractor) processDocument(path, name string) (err error) {
	doc, err := e.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	sample, err := e.sampleText(doc)
	if err != nil {
		return err
	}
	if strings.TrimSpace(sample) == "" {
		log.Printf("extract: %s has no extractable text, skipping", name)
		return nil
	}

	code := e.Langs.Detect(sample)
	if code == textproc.CodeUnknown {
		log.Printf("extract: %s language not supported, skipping", name)
		return nil
	}
	lang, _ := e.Langs.Language(code)
	log.Printf("extract: %s detected language %s", name, code)

	raw := e.Catalog.ForLanguage(code)
	if len(raw) == 0 {
		log.Printf("extract: no keywords configured for %s, skipping %s", code, name)
		return nil
	}
	index, err := NewIndex(raw, lang)
	if err != nil {
		return err
	}

	sents, err := e.collectSentences(doc, lang, index)
	if err != nil {
		return err
	}
	if len(sents) == 0 {
		log.Printf("extract: no keyword-bearing pages in %s", name)
		return nil
	}

	var hits []int
	for i, s := range sents {
		if index.MatchesLemmatized(lang.LemmatizeText(s.Text)) {
			hits = append(hits, i)
		}
	}
	if len(hits) == 0 {
		return nil
	}

	clusters := ClusterIndices(hits, e.gap())
	passages := BuildPassages(sents, clusters, e.margin(), index)
	if len(passages) == 0 {
		return nil
	}

	base := strings.TrimSuffix(name, filepath.Ext(name))
	out := filepath.Join(e.OutDir, base+".json")
	if err := artifact.SaveRaw(out, artifact.RawDocument{SourcePDF: name, ExtractedPassages: passages}); err != nil {
		return fmt.Errorf("save passages: %w", err)
	}
	log.Printf("extract: wrote %d passages for %s", len(passages), name)
	return nil
}

// sampleText concatenates the first pages for language identification.
func (e *Extractor) sampleText(doc Document) (string, error) {
	var sb strings.Builder
	pages := min(sampleBudget, doc.PageCount())
	for n := 1; n <= pages; n++ {
		text, err := doc.PageText(n)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", n, err)
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

// collectSentences tokenizes only pages whose lemmatized text contains a
// keyword at all; pages without any hit are never split.
func (e *Extractor) collectSentences(doc Document, lang *textproc.Language, index *Index) ([]Sentence, error) {
	var sents []Sentence
	for n := 1; n <= doc.PageCount(); n++ {
		text, err := doc.PageText(n)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", n, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		if !index.MatchesLemmatized(lang.LemmatizeText(text)) {
			continue
		}
		for _, s := range lang.SplitSentences(strings.ReplaceAll(text, "\n", " ")) {
			if s = strings.TrimSpace(s); s != "" {
				sents = append(sents, Sentence{Text: s, Page: n})
			}
		}
	}
	return sents, nil
}

func (e *Extractor) gap() int {
	if e.GapTolerance > 0 {
		return e.GapTolerance
	}
	return DefaultGapTolerance
}

func (e *Extractor) margin() int {
	if e.WindowMargin > 0 {
		return e.WindowMargin
	}
	return DefaultWindowMargin
}
