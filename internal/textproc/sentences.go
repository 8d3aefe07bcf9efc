package textproc

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// sentenceSplitter tokenizes running text into sentences.
type sentenceSplitter interface {
	split(text string) []string
}

// newSplitter returns the punkt tokenizer for English and a rule-based
// splitter with per-language abbreviation sets for the other supported
// languages, where no trained punkt data ships as a Go package.
func newSplitter(code string) (sentenceSplitter, error) {
	if code == "en" {
		tok, err := english.NewSentenceTokenizer(nil)
		if err != nil {
			return nil, err
		}
		return &punktSplitter{tokenizer: tok}, nil
	}
	return &ruleSplitter{abbrevs: abbreviations[code]}, nil
}

type punktSplitter struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

func (p *punktSplitter) split(text string) []string {
	var out []string
	for _, s := range p.tokenizer.Tokenize(text) {
		if trimmed := strings.TrimSpace(s.Text); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// abbreviations lists the dotted tokens that must not end a sentence, per
// language.
var abbreviations = map[string]map[string]bool{
	"de": set("z.b", "bzw", "ca", "dr", "nr", "abs", "inkl", "ggf", "vgl", "u.a", "bspw", "mio", "mrd"),
	"fr": set("m", "mme", "dr", "etc", "env", "p.ex", "cf"),
	"es": set("sr", "sra", "dr", "etc", "aprox", "p.ej", "núm", "num"),
	"it": set("sig", "dott", "dr", "ecc", "ca", "es"),
	"sv": set("t.ex", "bl.a", "ca", "dvs", "etc", "m.m", "s.k"),
}

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// ruleSplitter breaks on terminal punctuation followed by whitespace and an
// upper-case letter or digit, skipping known abbreviations and single-letter
// initials.
type ruleSplitter struct {
	abbrevs map[string]bool
}

func (r *ruleSplitter) split(text string) []string {
	var out []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		if ch != '.' && ch != '!' && ch != '?' {
			continue
		}
		if ch == '.' && !r.boundaryAfterPeriod(runes, start, i) {
			continue
		}
		if !nextStartsSentence(runes, i+1) {
			continue
		}
		if sentence := strings.TrimSpace(string(runes[start : i+1])); sentence != "" {
			out = append(out, sentence)
		}
		start = i + 1
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		out = append(out, tail)
	}
	return out
}

func (r *ruleSplitter) boundaryAfterPeriod(runes []rune, start, i int) bool {
	word := lastWord(runes[start:i])
	if word == "" {
		return true
	}
	if utf8.RuneCountInString(word) == 1 && unicode.IsLetter([]rune(word)[0]) {
		return false // initial like "J."
	}
	return !r.abbrevs[strings.ToLower(word)]
}

func lastWord(runes []rune) string {
	end := len(runes)
	i := end
	for i > 0 && !unicode.IsSpace(runes[i-1]) {
		i--
	}
	return strings.Trim(string(runes[i:end]), "()\"'«»„“”")
}

func nextStartsSentence(runes []rune, i int) bool {
	for i < len(runes) && unicode.IsSpace(runes[i]) {
		i++
	}
	if i == len(runes) {
		return true
	}
	ch := runes[i]
	return unicode.IsUpper(ch) || unicode.IsDigit(ch) || ch == '"' || ch == '«' || ch == '„'
}
