package oracle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCaller struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (f *fakeCaller) Generate(_ context.Context, prompt string) (string, error) {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", errors.New("fake caller exhausted")
}

func noSleep(t *testing.T) {
	t.Helper()
	orig := sleep
	sleep = func(time.Duration) {}
	t.Cleanup(func() { sleep = orig })
}

func TestKeySentenceIndicesConvertsToZeroBased(t *testing.T) {
	f := &fakeCaller{responses: []string{`{"key_sentence_indices": [2, 4]}`}}
	c := NewClient(f)

	got, err := c.KeySentenceIndices(context.Background(), []string{"a", "b", "c", "d"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, got)
	assert.Contains(t, f.prompts[0], "1. a\n2. b\n3. c\n4. d")
}

func TestKeySentenceIndicesFiltersOutOfRange(t *testing.T) {
	f := &fakeCaller{responses: []string{`{"key_sentence_indices": [0, 1, 7]}`}}
	c := NewClient(f)

	got, err := c.KeySentenceIndices(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, got)
}

func TestKeySentenceIndicesCachesByNumberedText(t *testing.T) {
	f := &fakeCaller{responses: []string{`{"key_sentence_indices": [1]}`}}
	c := NewClient(f)

	sentences := []string{"we planted trees", "filler"}
	first, err := c.KeySentenceIndices(context.Background(), sentences)
	require.NoError(t, err)
	second, err := c.KeySentenceIndices(context.Background(), sentences)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.calls, "second call must be served from the cache")
}

func TestKeySentenceIndicesEmptyInput(t *testing.T) {
	c := NewClient(&fakeCaller{})
	got, err := c.KeySentenceIndices(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRunJSONRetriesMalformedResponse(t *testing.T) {
	f := &fakeCaller{responses: []string{
		"this is not json",
		"```json\n{\"actions\": [\"We planted 100 trees.\"], \"metrics\": []}\n```",
	}}
	c := NewClient(f)

	d, err := c.ActionsAndMetrics(context.Background(), "We planted 100 trees. Biodiversity matters.")
	require.NoError(t, err)
	assert.Equal(t, []string{"We planted 100 trees."}, d.Actions)
	assert.Empty(t, d.Metrics)
	assert.Equal(t, 2, f.calls)
	assert.Contains(t, f.prompts[1], "not valid JSON")
}

func TestActionsAndMetricsBlankPassageSkipsCall(t *testing.T) {
	f := &fakeCaller{}
	c := NewClient(f)
	d, err := c.ActionsAndMetrics(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, d.Actions)
	assert.Zero(t, f.calls)
}

func TestClassifyAcceptsCategoryCaseInsensitive(t *testing.T) {
	f := &fakeCaller{responses: []string{`"general statement"`}}
	c := NewClient(f)

	got, err := c.Classify(context.Background(), "We support biodiversity.")
	require.NoError(t, err)
	assert.Equal(t, "General statement", got)
}

func TestClassifyRetriesUnknownCategory(t *testing.T) {
	f := &fakeCaller{responses: []string{
		"Something Off-List",
		"Creating new Trees & Plants",
	}}
	c := NewClient(f)

	got, err := c.Classify(context.Background(), "We planted a new forest.")
	require.NoError(t, err)
	assert.Equal(t, "Creating new Trees & Plants", got)
	assert.Contains(t, f.prompts[1], "not one of the allowed values")
}

func TestClassifyFailsAfterMaxAttempts(t *testing.T) {
	f := &fakeCaller{responses: []string{"nope", "nope", "nope"}}
	c := NewClient(f)

	_, err := c.Classify(context.Background(), "statement")
	require.Error(t, err)
	assert.Equal(t, maxAttempts, f.calls)
}

func TestStatusNormalizesCase(t *testing.T) {
	f := &fakeCaller{responses: []string{"Planned"}}
	c := NewClient(f)

	got, err := c.Status(context.Background(), "We will plant trees.")
	require.NoError(t, err)
	assert.Equal(t, StatusPlanned, got)
}

func TestFrameworkAnswers(t *testing.T) {
	f := &fakeCaller{responses: []string{"TNFD", "no"}}
	c := NewClient(f)

	got, err := c.Framework(context.Background(), "Aligned with TNFD.")
	require.NoError(t, err)
	assert.Equal(t, "TNFD", got)

	got, err = c.Framework(context.Background(), "We like nature.")
	require.NoError(t, err)
	assert.Equal(t, FrameworkNone, got)
}

func TestChoiceCachesByStatement(t *testing.T) {
	f := &fakeCaller{responses: []string{StatusDone}}
	c := NewClient(f)

	for i := 0; i < 2; i++ {
		got, err := c.Status(context.Background(), "We planted trees.")
		require.NoError(t, err)
		assert.Equal(t, StatusDone, got)
	}
	assert.Equal(t, 1, f.calls)
}

func TestTransportRetryOnServerError(t *testing.T) {
	noSleep(t)
	f := &fakeCaller{
		errs:      []error{errors.New("status code: 500"), nil},
		responses: []string{"", StatusDone},
	}
	c := NewClient(f)

	got, err := c.Status(context.Background(), "We planted trees.")
	require.NoError(t, err)
	assert.Equal(t, StatusDone, got)
	assert.Equal(t, 2, f.calls)
}

func TestTransportClientErrorIsFatal(t *testing.T) {
	noSleep(t)
	f := &fakeCaller{errs: []error{errors.New("status code: 401 unauthorized")}}
	c := NewClient(f)

	_, err := c.Status(context.Background(), "We planted trees.")
	require.Error(t, err)
	assert.Equal(t, 1, f.calls)
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences(`{"a":1}`))
}
