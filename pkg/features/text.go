package features

import (
	"fmt"

	"github.com/menta2k/product-prep/pkg/sparse"
	"github.com/menta2k/product-prep/pkg/textprep"
)

// TextTransformer builds the text feature matrix:
// [scaled token count | one-hot language | tf-idf of lemmas]
type TextTransformer struct {
	TokenLen   *MinMaxScaler
	Language   *OneHotEncoder
	Vectorizer *TFIDFVectorizer
}

// NewTextTransformer creates unfitted transformers with a vocabulary capped
// at maxFeatures terms
func NewTextTransformer(maxFeatures int) *TextTransformer {
	return &TextTransformer{
		TokenLen:   &MinMaxScaler{},
		Language:   &OneHotEncoder{},
		Vectorizer: NewTFIDFVectorizer(maxFeatures),
	}
}

// Fit fits every transformer on the training documents
func (t *TextTransformer) Fit(docs []textprep.Document) error {
	lens, langs, lemmas := split(docs)
	if err := t.TokenLen.Fit(lens); err != nil {
		return fmt.Errorf("token length: %w", err)
	}
	if err := t.Language.Fit(langs); err != nil {
		return fmt.Errorf("language: %w", err)
	}
	if err := t.Vectorizer.Fit(lemmas); err != nil {
		return fmt.Errorf("lemmas: %w", err)
	}
	return nil
}

// Transform builds the feature matrix of docs
func (t *TextTransformer) Transform(docs []textprep.Document) (*sparse.Matrix, error) {
	lens, langs, lemmas := split(docs)

	scaled, err := t.TokenLen.Transform(lens)
	if err != nil {
		return nil, fmt.Errorf("token length: %w", err)
	}
	lang, err := t.Language.Transform(langs)
	if err != nil {
		return nil, fmt.Errorf("language: %w", err)
	}
	tfidf, err := t.Vectorizer.Transform(lemmas)
	if err != nil {
		return nil, fmt.Errorf("lemmas: %w", err)
	}
	return sparse.HStack(column(scaled), lang, tfidf)
}

// FitTransform fits on train and transforms both train and test
func (t *TextTransformer) FitTransform(train, test []textprep.Document) (*sparse.Matrix, *sparse.Matrix, error) {
	if err := t.Fit(train); err != nil {
		return nil, nil, err
	}
	xTrain, err := t.Transform(train)
	if err != nil {
		return nil, nil, err
	}
	xTest, err := t.Transform(test)
	if err != nil {
		return nil, nil, err
	}
	return xTrain, xTest, nil
}

// Width returns the number of feature columns once fitted
func (t *TextTransformer) Width() int {
	return 1 + len(t.Language.Categories) + len(t.Vectorizer.Vocabulary)
}

func split(docs []textprep.Document) ([]float64, []string, [][]string) {
	lens := make([]float64, len(docs))
	langs := make([]string, len(docs))
	lemmas := make([][]string, len(docs))
	for i, d := range docs {
		lens[i] = float64(d.TokenLen)
		langs[i] = d.Language
		lemmas[i] = d.Lemmas
	}
	return lens, langs, lemmas
}

// TargetTransformer encodes product type codes
type TargetTransformer = LabelEncoder[int]

// TextSet holds the text features and targets of a train/test split
type TextSet struct {
	XTrain *sparse.Matrix
	XTest  *sparse.Matrix
	YTrain [][]int
	YTest  [][]int

	Features *TextTransformer
	Targets  *TargetTransformer
}

// TextData fits the feature and target transformers on the training split
// and applies them to both splits
func TextData(train, test []textprep.Document, yTrain, yTest []int, maxFeatures int) (*TextSet, error) {
	if len(train) != len(yTrain) {
		return nil, fmt.Errorf("train has %d documents but %d targets", len(train), len(yTrain))
	}
	if len(test) != len(yTest) {
		return nil, fmt.Errorf("test has %d documents but %d targets", len(test), len(yTest))
	}

	ft := NewTextTransformer(maxFeatures)
	xTrain, xTest, err := ft.FitTransform(train, test)
	if err != nil {
		return nil, fmt.Errorf("text features: %w", err)
	}

	tt := &TargetTransformer{}
	codesTrain, err := tt.FitTransform(yTrain)
	if err != nil {
		return nil, fmt.Errorf("targets: %w", err)
	}
	codesTest, err := tt.Transform(yTest)
	if err != nil {
		return nil, fmt.Errorf("targets: %w", err)
	}
	ohTrain, err := ToCategorical(codesTrain, len(tt.Classes))
	if err != nil {
		return nil, err
	}
	ohTest, err := ToCategorical(codesTest, len(tt.Classes))
	if err != nil {
		return nil, err
	}

	return &TextSet{
		XTrain:   xTrain,
		XTest:    xTest,
		YTrain:   ohTrain,
		YTest:    ohTest,
		Features: ft,
		Targets:  tt,
	}, nil
}
