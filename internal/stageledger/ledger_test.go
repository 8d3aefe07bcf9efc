package stageledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkDoneAndIsDone(t *testing.T) {
	ledger := New(t.TempDir())
	require.NoError(t, ledger.Init())

	require.NoError(t, ledger.MarkDone("a.pdf", "extract"))
	assert.True(t, ledger.IsDone("a.pdf", "extract"))
	assert.False(t, ledger.IsDone("a.pdf", "other_stage"))
	assert.False(t, ledger.IsDone("b.pdf", "extract"))
}

func TestMarkDoneIsIdempotent(t *testing.T) {
	ledger := New(t.TempDir())
	require.NoError(t, ledger.MarkDone("a.pdf", "extract"))
	require.NoError(t, ledger.MarkDone("a.pdf", "extract"))

	blob, err := os.ReadFile(ledger.Path())
	require.NoError(t, err)
	var record map[string][]string
	require.NoError(t, json.Unmarshal(blob, &record))
	assert.Equal(t, []string{"a.pdf"}, record["extract"])
}

func TestMarkDoneKeepsSortedOrderAndOtherStages(t *testing.T) {
	ledger := New(t.TempDir())
	require.NoError(t, ledger.MarkDone("b.pdf", "extract"))
	require.NoError(t, ledger.MarkDone("a.pdf", "extract"))
	require.NoError(t, ledger.MarkDone("c.pdf", "validate"))

	blob, err := os.ReadFile(ledger.Path())
	require.NoError(t, err)
	var record map[string][]string
	require.NoError(t, json.Unmarshal(blob, &record))
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, record["extract"])
	assert.Equal(t, []string{"c.pdf"}, record["validate"])
}

func TestIsDoneFailsSoftOnCorruptStore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("{not json"), 0o644))

	ledger := New(dir)
	assert.False(t, ledger.IsDone("a.pdf", "extract"))

	// A corrupt store is replaced wholesale on the next write.
	require.NoError(t, ledger.MarkDone("a.pdf", "extract"))
	assert.True(t, ledger.IsDone("a.pdf", "extract"))
}

func TestIsDoneFailsSoftOnMalformedStageEntry(t *testing.T) {
	dir := t.TempDir()
	blob := []byte(`{"extract": {"oops": true}, "validate": ["a.pdf"]}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), blob, 0o644))

	ledger := New(dir)
	assert.False(t, ledger.IsDone("a.pdf", "extract"))
	assert.True(t, ledger.IsDone("a.pdf", "validate"))

	// Marking over the malformed entry resets it to a proper list without
	// touching intact stages.
	require.NoError(t, ledger.MarkDone("b.pdf", "extract"))
	assert.True(t, ledger.IsDone("b.pdf", "extract"))
	assert.True(t, ledger.IsDone("a.pdf", "validate"))
}

func TestInitCreatesEmptyStoreOnce(t *testing.T) {
	dir := t.TempDir()
	ledger := New(dir)
	require.NoError(t, ledger.Init())
	require.NoError(t, ledger.MarkDone("a.pdf", "extract"))
	// Init on an existing store must not clobber it.
	require.NoError(t, ledger.Init())
	assert.True(t, ledger.IsDone("a.pdf", "extract"))
}
