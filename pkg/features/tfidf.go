package features

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/menta2k/product-prep/pkg/sparse"
)

// DefaultMaxFeatures caps the TF-IDF vocabulary
const DefaultMaxFeatures = 5000

// TFIDFVectorizer weights pre-tokenized documents by smoothed inverse
// document frequency
type TFIDFVectorizer struct {
	// MaxFeatures keeps the most frequent terms; zero keeps all
	MaxFeatures int

	// Vocabulary maps a term to its column, columns in term order
	Vocabulary map[string]int
	// IDF is indexed by column
	IDF []float64
}

// NewTFIDFVectorizer creates a vectorizer capped at maxFeatures terms
func NewTFIDFVectorizer(maxFeatures int) *TFIDFVectorizer {
	return &TFIDFVectorizer{MaxFeatures: maxFeatures}
}

// Fit learns the vocabulary and idf weights
func (v *TFIDFVectorizer) Fit(docs [][]string) error {
	if len(docs) == 0 {
		return fmt.Errorf("fit tf-idf: no documents")
	}
	if v.MaxFeatures < 0 {
		return fmt.Errorf("fit tf-idf: max features must not be negative, got %d", v.MaxFeatures)
	}

	total := make(map[string]int)
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{}, len(doc))
		for _, t := range doc {
			total[t]++
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				df[t]++
			}
		}
	}

	terms := make([]string, 0, len(total))
	for t := range total {
		terms = append(terms, t)
	}
	if v.MaxFeatures > 0 && len(terms) > v.MaxFeatures {
		slices.SortFunc(terms, func(a, b string) int {
			if c := cmp.Compare(total[b], total[a]); c != 0 {
				return c
			}
			return cmp.Compare(a, b)
		})
		terms = terms[:v.MaxFeatures]
	}
	slices.Sort(terms)

	n := float64(len(docs))
	v.Vocabulary = make(map[string]int, len(terms))
	v.IDF = make([]float64, len(terms))
	for i, t := range terms {
		v.Vocabulary[t] = i
		v.IDF[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}
	return nil
}

// Transform weights docs with the fitted vocabulary. Unknown terms are
// ignored. Rows are L2-normalized.
func (v *TFIDFVectorizer) Transform(docs [][]string) (*sparse.Matrix, error) {
	if v.Vocabulary == nil {
		return nil, ErrNotFitted
	}
	b := sparse.NewBuilder(len(v.Vocabulary))
	for _, doc := range docs {
		counts := make(map[int]float64)
		for _, t := range doc {
			if j, ok := v.Vocabulary[t]; ok {
				counts[j]++
			}
		}

		cols := make([]int, 0, len(counts))
		vals := make([]float64, 0, len(counts))
		var norm float64
		for j, c := range counts {
			w := c * v.IDF[j]
			cols = append(cols, j)
			vals = append(vals, w)
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for k := range vals {
				vals[k] /= norm
			}
		}
		if err := b.AddRow(cols, vals); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

// FitTransform fits docs and weights them
func (v *TFIDFVectorizer) FitTransform(docs [][]string) (*sparse.Matrix, error) {
	if err := v.Fit(docs); err != nil {
		return nil, err
	}
	return v.Transform(docs)
}

// Terms returns the vocabulary in column order
func (v *TFIDFVectorizer) Terms() []string {
	out := make([]string, len(v.Vocabulary))
	for t, j := range v.Vocabulary {
		out[j] = t
	}
	return out
}
