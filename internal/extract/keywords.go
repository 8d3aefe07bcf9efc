package extract

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/verdant-labs/biodivminer/internal/textproc"
)

// Catalog maps a language code to its ordered keyword list.
type Catalog map[string][]string

// LoadCatalog reads the keyword catalog from a YAML file.
func LoadCatalog(path string) (Catalog, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keyword catalog: %w", err)
	}
	var catalog Catalog
	if err := yaml.Unmarshal(blob, &catalog); err != nil {
		return nil, fmt.Errorf("parse keyword catalog %s: %w", path, err)
	}
	return catalog, nil
}

// ForLanguage returns the keyword list for a language code, nil if absent.
func (c Catalog) ForLanguage(code string) []string { return c[code] }

// Index is the per-language lemmatized keyword lookup. Detection matches the
// combined lemmatized regex; FoundIn re-scans with the raw, un-lemmatized
// keywords, which is the reporting contract for passage metadata.
type Index struct {
	raw        []string
	rawRegexes []*regexp.Regexp
	lemmatized *regexp.Regexp
}

// NewIndex lemmatizes every keyword once and compiles the combined
// word-boundary detection regex plus one raw regex per keyword.
func NewIndex(raw []string, lang *textproc.Language) (*Index, error) {
	var lemmas []string
	seen := map[string]bool{}
	for _, kw := range raw {
		lemma := lang.LemmatizeText(kw)
		if lemma == "" || seen[lemma] {
			continue
		}
		seen[lemma] = true
		lemmas = append(lemmas, regexp.QuoteMeta(lemma))
	}
	if len(lemmas) == 0 {
		return nil, fmt.Errorf("no usable keywords")
	}
	combined, err := regexp.Compile(`(?i)\b(` + strings.Join(lemmas, "|") + `)\b`)
	if err != nil {
		return nil, fmt.Errorf("compile keyword regex: %w", err)
	}

	rawRegexes := make([]*regexp.Regexp, 0, len(raw))
	for _, kw := range raw {
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(kw) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("compile keyword %q: %w", kw, err)
		}
		rawRegexes = append(rawRegexes, re)
	}
	return &Index{raw: raw, rawRegexes: rawRegexes, lemmatized: combined}, nil
}

// MatchesLemmatized reports whether a lemmatized text contains any keyword.
func (ix *Index) MatchesLemmatized(lemmatized string) bool {
	return ix.lemmatized.MatchString(lemmatized)
}

// FoundIn returns the distinct raw keywords present in a window text,
// case-insensitively with word boundaries. This deliberately does not
// lemmatize: reported keywords are the catalog spellings that literally
// occur in the emitted passage.
func (ix *Index) FoundIn(text string) []string {
	var found []string
	for i, re := range ix.rawRegexes {
		if re.MatchString(text) {
			found = append(found, ix.raw[i])
		}
	}
	return found
}
