// Package stageledger tracks per-file pipeline stage completion in a single
// durable JSON record so every stage can be re-run without repeating work.
package stageledger

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"slices"
)

// FileName is the ledger file kept alongside the input documents.
const FileName = "_status.json"

// Ledger owns the backing store exclusively. No other component writes it.
type Ledger struct {
	path string
}

// New returns a ledger backed by dir/_status.json.
func New(dir string) *Ledger {
	return &Ledger{path: filepath.Join(dir, FileName)}
}

// Path returns the location of the backing store.
func (l *Ledger) Path() string { return l.path }

// Init creates an empty backing store if none exists yet.
func (l *Ledger) Init() error {
	if _, err := os.Stat(l.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	return writeRecord(l.path, map[string][]string{})
}

// IsDone reports whether filename has completed the named stage. Any malformed
// record is treated as nothing done for that stage.
func (l *Ledger) IsDone(filename, stage string) bool {
	record := l.load()
	return slices.Contains(stageSet(record, stage), filename)
}

// MarkDone records filename as completed for the named stage. The full record
// is re-read, merged, and rewritten atomically so a crash in flight can only
// lose this single update, never previously committed stages.
func (l *Ledger) MarkDone(filename, stage string) error {
	record := l.load()
	set := stageSet(record, stage)
	if slices.Contains(set, filename) {
		return nil
	}
	set = append(set, filename)
	slices.Sort(set)

	out := map[string][]string{}
	for key := range record {
		if key != stage {
			out[key] = stageSet(record, key)
		}
	}
	out[stage] = set
	return writeRecord(l.path, out)
}

// load reads the full record, treating a missing or unreadable store as empty.
func (l *Ledger) load() map[string]json.RawMessage {
	blob, err := os.ReadFile(l.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("stage ledger %s unreadable, assuming empty: %v", l.path, err)
		}
		return map[string]json.RawMessage{}
	}
	var record map[string]json.RawMessage
	if err := json.Unmarshal(blob, &record); err != nil {
		log.Printf("stage ledger %s corrupt, assuming empty: %v", l.path, err)
		return map[string]json.RawMessage{}
	}
	if record == nil {
		record = map[string]json.RawMessage{}
	}
	return record
}

// stageSet decodes one stage entry, tolerating anything that is not a list.
func stageSet(record map[string]json.RawMessage, stage string) []string {
	raw, ok := record[stage]
	if !ok {
		return nil
	}
	var set []string
	if err := json.Unmarshal(raw, &set); err != nil {
		log.Printf("stage ledger entry %q is not a list, treating as empty", stage)
		return nil
	}
	return set
}

func writeRecord(path string, record map[string][]string) error {
	blob, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
