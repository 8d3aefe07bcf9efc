package classify

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/verdant-labs/biodivminer/internal/artifact"
	"github.com/verdant-labs/biodivminer/internal/stageledger"
)

// Statement type labels in the report.
const (
	TypeAction = "Action"
	TypeMetric = "Metric"
)

// Entry is one action or metric statement lifted out of a relevant-passage
// artifact, tagged with the artifact label it came from.
type Entry struct {
	Source    string
	Type      string
	Statement string
	Keywords  string
}

// FlattenEntries lifts every action and metric out of the artifacts in dir,
// in directory order. An unreadable artifact is logged and skipped; it never
// aborts the whole flattening.
func FlattenEntries(dir string) ([]Entry, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var entries []Entry
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || !strings.HasSuffix(strings.ToLower(name), ".json") || name == stageledger.FileName {
			continue
		}
		doc, err := artifact.LoadRelevant(filepath.Join(dir, name))
		if err != nil {
			log.Printf("classify: skipping unreadable %s: %v", name, err)
			continue
		}
		label := strings.TrimSuffix(name, filepath.Ext(name))
		for _, p := range doc.BiodiversityPassages {
			keywords := strings.Join(p.FoundKeywords, ", ")
			for _, a := range p.Actions {
				entries = append(entries, Entry{Source: label, Type: TypeAction, Statement: strings.Trim(a, `'"`), Keywords: keywords})
			}
			for _, m := range p.Metrics {
				entries = append(entries, Entry{Source: label, Type: TypeMetric, Statement: strings.Trim(m, `'"`), Keywords: keywords})
			}
		}
	}
	return entries, nil
}
