package extract

import (
	"fmt"
	"strings"

	"github.com/verdant-labs/biodivminer/internal/artifact"
)

const (
	// DefaultGapTolerance is the maximum sentence gap between keyword hits
	// that still belong to the same cluster.
	DefaultGapTolerance = 5
	// DefaultWindowMargin is the number of context sentences added on each
	// side of a cluster.
	DefaultWindowMargin = 5
)

// Sentence is one document sentence tagged with its 1-based page number.
type Sentence struct {
	Text string
	Page int
}

// ClusterIndices groups ascending keyword-hit indices into maximal runs where
// consecutive hits are no farther apart than gap. Every hit lands in exactly
// one cluster and clusters come out in ascending order.
func ClusterIndices(hits []int, gap int) [][]int {
	if len(hits) == 0 {
		return nil
	}
	var clusters [][]int
	current := []int{hits[0]}
	for _, idx := range hits[1:] {
		if idx-current[len(current)-1] <= gap {
			current = append(current, idx)
			continue
		}
		clusters = append(clusters, current)
		current = []int{idx}
	}
	return append(clusters, current)
}

// BuildPassages materializes one context window per cluster: the first hit
// minus margin through the last hit plus margin, clamped to the document.
// A window whose concatenated text was already emitted for this document is
// suppressed.
func BuildPassages(sents []Sentence, clusters [][]int, margin int, index *Index) []artifact.RawPassage {
	var passages []artifact.RawPassage
	emitted := map[string]bool{}
	for _, cluster := range clusters {
		first, last := cluster[0], cluster[len(cluster)-1]
		start := max(0, first-margin)
		end := min(len(sents)-1, last+margin)

		window := sents[start : end+1]
		texts := make([]string, 0, len(window))
		minPage, maxPage := window[0].Page, window[0].Page
		for _, s := range window {
			texts = append(texts, s.Text)
			minPage = min(minPage, s.Page)
			maxPage = max(maxPage, s.Page)
		}
		text := strings.TrimSpace(strings.Join(texts, " "))
		if text == "" || emitted[text] {
			continue
		}
		emitted[text] = true

		passages = append(passages, artifact.RawPassage{
			PageRange:     pageRange(minPage, maxPage),
			PassageText:   text,
			FoundKeywords: index.FoundIn(text),
		})
	}
	return passages
}

func pageRange(minPage, maxPage int) string {
	if minPage == maxPage {
		return fmt.Sprintf("%d", minPage)
	}
	return fmt.Sprintf("%d-%d", minPage, maxPage)
}
