package textprep

import (
	"fmt"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
)

// Lemmatizer maps a token to its base form
type Lemmatizer interface {
	Lemma(word string) string
}

// NewEnglishLemmatizer loads the English golem dictionary. Words missing
// from the dictionary are returned unchanged. The dictionary has no part of
// speech, so verb and adjective forms are reduced too (running to run,
// better to good) where a noun-only lemmatizer would keep them.
func NewEnglishLemmatizer() (Lemmatizer, error) {
	l, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("load english lemma dictionary: %w", err)
	}
	return l, nil
}

// identity leaves tokens untouched
type identity struct{}

func (identity) Lemma(word string) string { return word }

// Lemmatize applies l to every token
func Lemmatize(l Lemmatizer, tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = l.Lemma(t)
	}
	return out
}
