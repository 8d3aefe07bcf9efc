// Package oracle wraps the language-model providers behind the small set of
// typed judgements the pipeline needs: key-sentence selection, action and
// metric extraction, and statement classification. Responses are cached by
// exact input text so resumed runs do not repeat paid calls.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Unavailable marks a judgement that could not be obtained after retries.
// It is written into report rows instead of losing the statement.
const Unavailable = "Unavailable"

const maxAttempts = 3

// Details is the action/metric split for one text snippet.
type Details struct {
	Actions []string `json:"actions"`
	Metrics []string `json:"metrics"`
}

// Client issues oracle judgements through an LLMCaller.
type Client struct {
	caller LLMCaller
	cache  *gocache.Cache
}

func NewClient(caller LLMCaller) *Client {
	return &Client{
		caller: caller,
		cache:  gocache.New(gocache.NoExpiration, 0),
	}
}

type keyIndicesResponse struct {
	KeySentenceIndices []int `json:"key_sentence_indices"`
}

// KeySentenceIndices asks which of the sentences carry a concrete company
// action or metric. Sentences are numbered from 1 in the prompt; the result
// is 0-based and restricted to valid positions.
func (c *Client) KeySentenceIndices(ctx context.Context, sentences []string) ([]int, error) {
	if len(sentences) == 0 {
		return nil, nil
	}
	var sb strings.Builder
	for i, s := range sentences {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, s)
	}
	numbered := sb.String()

	cacheKey := "indices:" + numbered
	if v, ok := c.cache.Get(cacheKey); ok {
		return v.([]int), nil
	}

	var resp keyIndicesResponse
	err := c.runJSON(ctx, "key sentence selection", fmt.Sprintf(keyIndicesPrompt, numbered), &resp, func() error {
		return nil
	})
	if err != nil {
		return nil, err
	}

	var indices []int
	for _, n := range resp.KeySentenceIndices {
		if n >= 1 && n <= len(sentences) {
			indices = append(indices, n-1)
		}
	}
	sort.Ints(indices)
	c.cache.Set(cacheKey, indices, gocache.NoExpiration)
	return indices, nil
}

// ActionsAndMetrics extracts complete action and metric sentences from one
// passage snippet.
func (c *Client) ActionsAndMetrics(ctx context.Context, passage string) (Details, error) {
	if strings.TrimSpace(passage) == "" {
		return Details{}, nil
	}
	cacheKey := "details:" + passage
	if v, ok := c.cache.Get(cacheKey); ok {
		return v.(Details), nil
	}

	var d Details
	err := c.runJSON(ctx, "action extraction", fmt.Sprintf(detailsPrompt, passage), &d, func() error {
		return nil
	})
	if err != nil {
		return Details{}, err
	}
	c.cache.Set(cacheKey, d, gocache.NoExpiration)
	return d, nil
}

// Classify places a statement into one of the predefined categories.
func (c *Client) Classify(ctx context.Context, statement string) (string, error) {
	var list strings.Builder
	for _, cat := range PredefinedCategories {
		fmt.Fprintf(&list, "- %s\n", cat)
	}
	prompt := fmt.Sprintf(classificationPrompt, list.String(), statement)
	return c.runChoice(ctx, "classification", "category:"+statement, prompt, func(answer string) (string, bool) {
		for _, cat := range PredefinedCategories {
			if strings.EqualFold(answer, cat) {
				return cat, true
			}
		}
		return "", false
	})
}

// Status reports whether a statement is a completed action or a plan.
func (c *Client) Status(ctx context.Context, statement string) (string, error) {
	prompt := fmt.Sprintf(statusPrompt, statement)
	return c.runChoice(ctx, "status", "status:"+statement, prompt, func(answer string) (string, bool) {
		switch strings.ToLower(answer) {
		case StatusDone:
			return StatusDone, true
		case StatusPlanned:
			return StatusPlanned, true
		}
		return "", false
	})
}

// Framework reports which reporting framework a statement references, if any.
func (c *Client) Framework(ctx context.Context, statement string) (string, error) {
	prompt := fmt.Sprintf(frameworkPrompt, statement)
	return c.runChoice(ctx, "framework", "framework:"+statement, prompt, func(answer string) (string, bool) {
		for _, fw := range frameworkAnswers {
			if strings.EqualFold(answer, fw) {
				return fw, true
			}
		}
		return "", false
	})
}

// runChoice executes a single-value prompt whose answer must be one of a
// closed set. A non-member answer triggers a content retry with feedback.
func (c *Client) runChoice(ctx context.Context, name, cacheKey, prompt string, accept func(string) (string, bool)) (string, error) {
	if v, ok := c.cache.Get(cacheKey); ok {
		return v.(string), nil
	}
	feedback := ""
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		fullPrompt := prompt
		if feedback != "" {
			fullPrompt += "\n\n" + feedback
		}
		raw, err := c.caller.Generate(ctx, fullPrompt)
		if err != nil {
			if retryTransport(attempt, err) {
				continue
			}
			return "", fmt.Errorf("%s transport failure: %w", name, err)
		}
		answer := strings.Trim(strings.TrimSpace(stripCodeFences(raw)), `"'`)
		if answer == "" {
			feedback = "Your previous response was empty. Respond with exactly one of the allowed values."
			continue
		}
		if v, ok := accept(answer); ok {
			c.cache.Set(cacheKey, v, gocache.NoExpiration)
			return v, nil
		}
		feedback = fmt.Sprintf("Your previous response %q is not one of the allowed values. Respond with exactly one allowed value and nothing else.", answer)
	}
	return "", fmt.Errorf("%s failed after %d attempts", name, maxAttempts)
}

// runJSON executes a prompt whose answer must be a JSON object matching out.
func (c *Client) runJSON(ctx context.Context, name, prompt string, out any, validate func() error) error {
	feedback := ""
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		fullPrompt := prompt + "\n\nRespond with only valid JSON matching the schema."
		if feedback != "" {
			fullPrompt += "\n\n" + feedback
		}
		raw, err := c.caller.Generate(ctx, fullPrompt)
		if err != nil {
			if retryTransport(attempt, err) {
				continue
			}
			return fmt.Errorf("%s transport failure: %w", name, err)
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			feedback = "Your previous response was empty. Respond with valid JSON."
			continue
		}
		if err := json.Unmarshal([]byte(stripCodeFences(raw)), out); err != nil {
			feedback = "Your previous response was not valid JSON. Respond with only valid JSON."
			continue
		}
		if err := validate(); err != nil {
			feedback = fmt.Sprintf("Your response failed validation: %s. Fix these issues.", err)
			continue
		}
		return nil
	}
	return fmt.Errorf("%s failed after %d attempts", name, maxAttempts)
}

// retryTransport sleeps and reports true when a transport error is worth
// another attempt.
func retryTransport(attempt int, err error) bool {
	if attempt >= maxAttempts {
		return false
	}
	switch classifyTransportError(err) {
	case failureTimeout, failureRateLimit, failureServer:
		sleep(backoffDelay(attempt))
		return true
	}
	return false
}

// sleep is replaced in tests to keep retry cases fast.
var sleep = time.Sleep
