package textprep

import (
	"bufio"
	"embed"
	"strings"
)

//go:embed stopwords/*.txt
var stopwordFiles embed.FS

// StopWords reports whether a token is a stop word in a language
type StopWords interface {
	IsStopWord(lang, token string) bool
}

// StopWordLists holds one set per language. Languages without a list use the
// union of the fallback languages.
type StopWordLists struct {
	sets     map[string]map[string]struct{}
	fallback map[string]struct{}
}

// DefaultStopWords returns the embedded French, English, German and Italian
// lists with a French plus English fallback
func DefaultStopWords() *StopWordLists {
	sets := make(map[string]map[string]struct{})
	for _, lang := range []string{"fr", "en", "de", "it"} {
		data, err := stopwordFiles.ReadFile("stopwords/" + lang + ".txt")
		if err != nil {
			panic("textprep: missing embedded stop words for " + lang)
		}
		sets[lang] = parseWordList(string(data))
	}
	return NewStopWordLists(sets, "fr", "en")
}

// NewStopWordLists builds lists from sets, falling back to the union of the
// fallback languages
func NewStopWordLists(sets map[string]map[string]struct{}, fallback ...string) *StopWordLists {
	union := make(map[string]struct{})
	for _, lang := range fallback {
		for w := range sets[lang] {
			union[w] = struct{}{}
		}
	}
	return &StopWordLists{sets: sets, fallback: union}
}

// IsStopWord implements StopWords
func (s *StopWordLists) IsStopWord(lang, token string) bool {
	set, ok := s.sets[lang]
	if !ok {
		set = s.fallback
	}
	_, hit := set[token]
	return hit
}

// Languages returns the number of languages with a dedicated list
func (s *StopWordLists) Languages() int {
	return len(s.sets)
}

func parseWordList(data string) map[string]struct{} {
	set := make(map[string]struct{})
	sc := bufio.NewScanner(strings.NewReader(data))
	for sc.Scan() {
		w := strings.TrimSpace(sc.Text())
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}

// RemoveStopWords drops the stop words of lang from tokens
func RemoveStopWords(sw StopWords, lang string, tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !sw.IsStopWord(lang, t) {
			out = append(out, t)
		}
	}
	return out
}
