// Package artifact defines the per-document JSON records exchanged between
// pipeline stages and the atomic read/write helpers for them.
package artifact

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// RawPassage is one keyword-anchored context window emitted by extraction.
type RawPassage struct {
	PageRange     string   `json:"page_range"`
	PassageText   string   `json:"passage_text"`
	FoundKeywords []string `json:"found_keywords"`
}

// RawDocument is the extraction output for one source PDF.
type RawDocument struct {
	SourcePDF         string       `json:"source_pdf"`
	ExtractedPassages []RawPassage `json:"extracted_passages"`
}

// Passage is a validated passage: oracle-selected context windows plus the
// statements later extracted from them.
type Passage struct {
	PageRange     string   `json:"page_range"`
	PassageText   []string `json:"passage_text"`
	Actions       []string `json:"actions,omitempty"`
	Metrics       []string `json:"metrics,omitempty"`
	FoundKeywords []string `json:"found_keywords"`
}

// RelevantDocument is the artifact carried through validation, cleanup,
// detail extraction and consolidation.
type RelevantDocument struct {
	BiodiversityPassages []Passage `json:"biodiversity_passages"`
}

// RelevantSuffix is appended to the source basename for validated artifacts.
const RelevantSuffix = "_relevant_passages"

func LoadRaw(path string) (RawDocument, error) {
	var doc RawDocument
	err := load(path, &doc)
	return doc, err
}

func SaveRaw(path string, doc RawDocument) error {
	return save(path, doc)
}

func LoadRelevant(path string) (RelevantDocument, error) {
	var doc RelevantDocument
	err := load(path, &doc)
	return doc, err
}

func SaveRelevant(path string, doc RelevantDocument) error {
	return save(path, doc)
}

func load(path string, out any) error {
	blob, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(blob, out)
}

// save writes through a temp file and renames, so a crash mid-write can never
// leave a previously good artifact half-written.
func save(path string, doc any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	blob, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
