package classify

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdant-labs/biodivminer/internal/artifact"
	"github.com/verdant-labs/biodivminer/internal/oracle"
	"github.com/verdant-labs/biodivminer/internal/registry"
	"github.com/verdant-labs/biodivminer/internal/report"
	"github.com/verdant-labs/biodivminer/internal/resolve"
)

type stubOracle struct {
	categories map[string]string
	statuses   map[string]string
	frameworks map[string]string
	calls      int
	err        error
}

func (s *stubOracle) answer(m map[string]string, statement, fallback string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	if v, ok := m[statement]; ok {
		return v, nil
	}
	return fallback, nil
}

func (s *stubOracle) Classify(_ context.Context, statement string) (string, error) {
	return s.answer(s.categories, statement, "General statement")
}

func (s *stubOracle) Status(_ context.Context, statement string) (string, error) {
	return s.answer(s.statuses, statement, oracle.StatusDone)
}

func (s *stubOracle) Framework(_ context.Context, statement string) (string, error) {
	return s.answer(s.frameworks, statement, oracle.FrameworkNone)
}

func writeRelevant(t *testing.T, dir, name string, doc artifact.RelevantDocument) {
	t.Helper()
	require.NoError(t, artifact.SaveRelevant(filepath.Join(dir, name), doc))
}

func openCheckpoint(t *testing.T, dir string) *Checkpoint {
	t.Helper()
	cp, err := OpenCheckpoint(filepath.Join(dir, "checkpoint.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cp.Close() })
	return cp
}

func TestFlattenEntries(t *testing.T) {
	dir := t.TempDir()
	writeRelevant(t, dir, "acme_relevant_passages.json", artifact.RelevantDocument{
		BiodiversityPassages: []artifact.Passage{
			{
				FoundKeywords: []string{"trees", "wetland"},
				Actions:       []string{`"We planted 100 trees."`},
				Metrics:       []string{"We monitor bird species."},
			},
		},
	})

	entries, err := FlattenEntries(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{
		Source:    "acme_relevant_passages",
		Type:      TypeAction,
		Statement: "We planted 100 trees.",
		Keywords:  "trees, wetland",
	}, entries[0])
	assert.Equal(t, TypeMetric, entries[1].Type)
}

func TestCheckpointRoundTrip(t *testing.T) {
	cp := openCheckpoint(t, t.TempDir())

	_, found, err := cp.Get("unseen")
	require.NoError(t, err)
	assert.False(t, found)

	v := Verdict{Category: "Research", Status: oracle.StatusDone, Framework: "GRI"}
	require.NoError(t, cp.Put("We studied soil fauna.", v))

	got, found, err := cp.Get("We studied soil fauna.")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, v, got)

	n, err := cp.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

var testCompanies = []registry.Company{
	{Name: "Acme AG", Country: "Germany", Rating: "AA", PrimaryListing: "Frankfurt", Industry: "Chemicals"},
}

func TestClassifierWritesEnrichedReport(t *testing.T) {
	dir := t.TempDir()
	writeRelevant(t, dir, "Acme_GmbH_2023_relevant_passages.json", artifact.RelevantDocument{
		BiodiversityPassages: []artifact.Passage{
			{
				FoundKeywords: []string{"trees"},
				Actions:       []string{"We planted 100 trees.", "We improved office recycling."},
				Metrics:       []string{"We monitor bird species."},
			},
		},
	})
	stub := &stubOracle{
		categories: map[string]string{
			"We planted 100 trees.":         "Creating new Trees & Plants",
			"We improved office recycling.": oracle.CategoryNoRelevance,
			"We monitor bird species.":      "Monitoring & Assessment",
		},
		statuses:   map[string]string{"We monitor bird species.": oracle.StatusDone},
		frameworks: map[string]string{"We monitor bird species.": oracle.FrameworkOther},
	}

	c := &Classifier{
		Oracle:     stub,
		Checkpoint: openCheckpoint(t, dir),
		Companies:  testCompanies,
		ReportPath: filepath.Join(dir, "report.xlsx"),
	}
	require.NoError(t, c.Run(context.Background(), dir))

	rows, err := report.Read(c.ReportPath)
	require.NoError(t, err)
	require.Len(t, rows, 2, "irrelevant statements are filtered out")

	assert.Equal(t, "Creating new Trees & Plants", rows[0].Category)
	assert.Equal(t, "Acme AG", rows[0].Company, "registry join on normalized key")
	assert.Equal(t, "Germany", rows[0].Country)
	assert.Equal(t, "trees", rows[0].Keywords)
	assert.Equal(t, "Monitoring & Assessment", rows[1].Category)
	assert.Equal(t, oracle.FrameworkOther, rows[1].Framework)
}

func TestClassifierResumesFromCheckpoint(t *testing.T) {
	dir := t.TempDir()
	writeRelevant(t, dir, "acme_relevant_passages.json", artifact.RelevantDocument{
		BiodiversityPassages: []artifact.Passage{
			{Actions: []string{"We planted 100 trees."}},
		},
	})
	cp := openCheckpoint(t, dir)
	require.NoError(t, cp.Put("We planted 100 trees.", Verdict{
		Category: "Creating new Trees & Plants", Status: oracle.StatusDone, Framework: oracle.FrameworkNone,
	}))

	stub := &stubOracle{err: errors.New("must not be called")}
	c := &Classifier{
		Oracle:     stub,
		Checkpoint: cp,
		ReportPath: filepath.Join(dir, "report.xlsx"),
	}
	require.NoError(t, c.Run(context.Background(), dir))
	assert.Zero(t, stub.calls, "checkpointed statement must not be re-judged")

	rows, err := report.Read(c.ReportPath)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Creating new Trees & Plants", rows[0].Category)
	assert.Equal(t, resolve.Sentinel, rows[0].Company, "no registry rows leaves the sentinel")
}

func TestClassifierRecordsUnavailableJudgements(t *testing.T) {
	dir := t.TempDir()
	writeRelevant(t, dir, "acme_relevant_passages.json", artifact.RelevantDocument{
		BiodiversityPassages: []artifact.Passage{
			{Actions: []string{"We planted 100 trees."}},
		},
	})
	stub := &stubOracle{err: errors.New("provider down")}
	c := &Classifier{
		Oracle:     stub,
		Checkpoint: openCheckpoint(t, dir),
		ReportPath: filepath.Join(dir, "report.xlsx"),
	}
	require.NoError(t, c.Run(context.Background(), dir))

	rows, err := report.Read(c.ReportPath)
	require.NoError(t, err)
	require.Len(t, rows, 1, "unavailable verdicts keep the statement in the report")
	assert.Equal(t, oracle.Unavailable, rows[0].Category)
	assert.Equal(t, oracle.Unavailable, rows[0].Status)
	assert.Equal(t, oracle.Unavailable, rows[0].Framework)
}

func TestClassifierDeduplicatesSharedStatements(t *testing.T) {
	dir := t.TempDir()
	writeRelevant(t, dir, "a_relevant_passages.json", artifact.RelevantDocument{
		BiodiversityPassages: []artifact.Passage{{Actions: []string{"We planted 100 trees."}}},
	})
	writeRelevant(t, dir, "b_relevant_passages.json", artifact.RelevantDocument{
		BiodiversityPassages: []artifact.Passage{{Actions: []string{"We planted 100 trees."}}},
	})
	stub := &stubOracle{}
	c := &Classifier{
		Oracle:     stub,
		Checkpoint: openCheckpoint(t, dir),
		ReportPath: filepath.Join(dir, "report.xlsx"),
	}
	require.NoError(t, c.Run(context.Background(), dir))
	assert.Equal(t, 3, stub.calls, "one statement judged once across files")

	rows, err := report.Read(c.ReportPath)
	require.NoError(t, err)
	assert.Len(t, rows, 2, "both rows survive even though the verdict is shared")
}
