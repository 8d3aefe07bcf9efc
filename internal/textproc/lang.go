// Package textproc provides the language-specific text machinery for passage
// extraction: identification, lemmatization and sentence tokenization.
package textproc

import (
	"fmt"
	"strings"

	golem "github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/de"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/aaaton/golem/v4/dicts/es"
	"github.com/aaaton/golem/v4/dicts/fr"
	"github.com/aaaton/golem/v4/dicts/it"
	"github.com/aaaton/golem/v4/dicts/sv"
	"github.com/pemistahl/lingua-go"
)

// CodeUnknown marks a document whose language could not be identified.
const CodeUnknown = "unknown"

// detectSampleLimit bounds the text handed to language identification.
const detectSampleLimit = 2000

// Language bundles the per-language tooling for one supported language code.
type Language struct {
	Code       string
	lemmatizer *golem.Lemmatizer
	splitter   sentenceSplitter
}

// Registry holds every supported language, built once per process.
type Registry struct {
	byCode   map[string]*Language
	detector lingua.LanguageDetector
}

type dictPack struct {
	code string
	pack func() golem.LanguagePack
}

var supported = []dictPack{
	{"en", func() golem.LanguagePack { return en.New() }},
	{"de", func() golem.LanguagePack { return de.New() }},
	{"fr", func() golem.LanguagePack { return fr.New() }},
	{"es", func() golem.LanguagePack { return es.New() }},
	{"it", func() golem.LanguagePack { return it.New() }},
	{"sv", func() golem.LanguagePack { return sv.New() }},
}

// NewRegistry loads the lemmatizer dictionaries and sentence tokenizers for
// all supported languages.
func NewRegistry() (*Registry, error) {
	byCode := make(map[string]*Language, len(supported))
	for _, entry := range supported {
		lem, err := golem.New(entry.pack())
		if err != nil {
			return nil, fmt.Errorf("load %s lemmatizer: %w", entry.code, err)
		}
		splitter, err := newSplitter(entry.code)
		if err != nil {
			return nil, fmt.Errorf("load %s sentence tokenizer: %w", entry.code, err)
		}
		byCode[entry.code] = &Language{Code: entry.code, lemmatizer: lem, splitter: splitter}
	}
	// Identification runs over all languages lingua knows, not just the
	// supported set: a Polish report must come back as Polish (and then be
	// skipped as unsupported), not be forced into the nearest supported
	// language.
	detector := lingua.NewLanguageDetectorBuilder().
		FromAllLanguages().
		Build()
	return &Registry{byCode: byCode, detector: detector}, nil
}

// Detect identifies the language of a text sample, returning a supported
// language code or CodeUnknown.
func (r *Registry) Detect(sample string) string {
	sample = strings.TrimSpace(sample)
	if sample == "" {
		return CodeUnknown
	}
	if len(sample) > detectSampleLimit {
		sample = sample[:detectSampleLimit]
	}
	lang, ok := r.detector.DetectLanguageOf(sample)
	if !ok {
		return CodeUnknown
	}
	code := strings.ToLower(lang.IsoCode639_1().String())
	if _, supported := r.byCode[code]; !supported {
		return CodeUnknown
	}
	return code
}

// Language returns the tooling for a supported code.
func (r *Registry) Language(code string) (*Language, bool) {
	lang, ok := r.byCode[code]
	return lang, ok
}

// Codes lists the supported language codes.
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.byCode))
	for _, entry := range supported {
		codes = append(codes, entry.code)
	}
	return codes
}

// CleanText lower-cases a string and collapses all whitespace runs to single
// spaces.
func CleanText(text string) string {
	text = strings.ToLower(text)
	return strings.Join(strings.Fields(text), " ")
}

// LemmatizeText cleans a text and maps every token to its dictionary base
// form, joined by single spaces. Tokens without a dictionary entry pass
// through unchanged.
func (l *Language) LemmatizeText(text string) string {
	fields := strings.Fields(CleanText(text))
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		core := strings.TrimFunc(field, isEdgePunct)
		if core == "" {
			continue
		}
		out = append(out, strings.ToLower(l.lemmatizer.Lemma(core)))
	}
	return strings.Join(out, " ")
}

// SplitSentences tokenizes a text into sentences using this language's rules.
func (l *Language) SplitSentences(text string) []string {
	return l.splitter.split(text)
}

func isEdgePunct(r rune) bool {
	return !(r >= 'a' && r <= 'z') && !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') &&
		!(r >= 0x00C0 && r <= 0x024F) // latin letters with diacritics
}
