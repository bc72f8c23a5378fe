package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/product-prep/pkg/textprep"
)

func TestMinMaxScaler(t *testing.T) {
	s := &MinMaxScaler{}
	_, err := s.Transform([]float64{1})
	assert.ErrorIs(t, err, ErrNotFitted)

	out, err := s.FitTransform([]float64{2, 4, 6})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.5, 1}, out)

	// unseen values are not clipped
	out, err = s.Transform([]float64{8, 0})
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, -0.5}, out)

	flat := &MinMaxScaler{}
	out, err = flat.FitTransform([]float64{3, 3})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, out)

	assert.Error(t, (&MinMaxScaler{}).Fit(nil))
}

func TestOneHotEncoder(t *testing.T) {
	e := &OneHotEncoder{}
	m, err := e.FitTransform([]string{"fr", "en", "fr", "de"})
	require.NoError(t, err)
	assert.Equal(t, []string{"de", "en", "fr"}, e.Categories)
	assert.Equal(t, [][]float64{
		{0, 0, 1},
		{0, 1, 0},
		{0, 0, 1},
		{1, 0, 0},
	}, m.Dense())

	m, err = e.Transform([]string{"it", "en"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, 0, 0}, {0, 1, 0}}, m.Dense())
}

func TestLabelEncoder(t *testing.T) {
	e := &LabelEncoder[int]{}
	codes, err := e.FitTransform([]int{2583, 10, 1280, 10})
	require.NoError(t, err)
	assert.Equal(t, []int{10, 1280, 2583}, e.Classes)
	assert.Equal(t, []int{2, 0, 1, 0}, codes)

	_, err = e.Transform([]int{999})
	assert.Error(t, err)

	labels, err := e.Inverse([]int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []int{1280, 2583}, labels)
	_, err = e.Inverse([]int{3})
	assert.Error(t, err)

	strs := &LabelEncoder[string]{}
	_, err = strs.Transform([]string{"a"})
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestToCategorical(t *testing.T) {
	out, err := ToCategorical([]int{0, 2, 1}, 0)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 0, 0}, {0, 0, 1}, {0, 1, 0}}, out)

	out, err = ToCategorical([]int{1}, 4)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1, 0, 0}}, out)

	_, err = ToCategorical([]int{4}, 4)
	assert.Error(t, err)
	_, err = ToCategorical([]int{-1}, 2)
	assert.Error(t, err)

	out, err = ToCategorical(nil, 0)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestTFIDF(t *testing.T) {
	docs := [][]string{
		{"chat", "noir"},
		{"chat", "blanc", "chat"},
	}
	v := NewTFIDFVectorizer(0)
	m, err := v.FitTransform(docs)
	require.NoError(t, err)

	assert.Equal(t, []string{"blanc", "chat", "noir"}, v.Terms())
	idfRare := math.Log(3.0/2.0) + 1
	assert.InDelta(t, 1.0, v.IDF[1], 1e-12)
	assert.InDelta(t, idfRare, v.IDF[0], 1e-12)

	// row 0: chat=1, noir=idfRare
	n0 := math.Sqrt(1 + idfRare*idfRare)
	assert.InDelta(t, 1/n0, m.At(0, 1), 1e-12)
	assert.InDelta(t, idfRare/n0, m.At(0, 2), 1e-12)
	assert.Equal(t, 0.0, m.At(0, 0))

	// row 1: blanc=idfRare, chat=2
	n1 := math.Sqrt(4 + idfRare*idfRare)
	assert.InDelta(t, idfRare/n1, m.At(1, 0), 1e-12)
	assert.InDelta(t, 2/n1, m.At(1, 1), 1e-12)

	// unknown terms ignored; empty rows stay zero
	out, err := v.Transform([][]string{{"chien"}, {"noir", "chien"}})
	require.NoError(t, err)
	idx, _ := out.Row(0)
	assert.Empty(t, idx)
	assert.InDelta(t, 1.0, out.At(1, 2), 1e-12)
}

func TestTFIDFMaxFeatures(t *testing.T) {
	docs := [][]string{
		{"zeta", "alpha", "beta"},
		{"zeta", "beta"},
		{"gamma", "delta"},
	}
	v := NewTFIDFVectorizer(3)
	require.NoError(t, v.Fit(docs))
	// beta and zeta appear twice; alpha wins the tie with delta and gamma
	assert.Equal(t, []string{"alpha", "beta", "zeta"}, v.Terms())

	assert.Error(t, NewTFIDFVectorizer(-1).Fit(docs))
	assert.Error(t, NewTFIDFVectorizer(0).Fit(nil))
	_, err := NewTFIDFVectorizer(0).Transform(docs)
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestTextData(t *testing.T) {
	train := []textprep.Document{
		{Lemmas: []string{"jouet", "bois"}, Language: "fr", TokenLen: 2},
		{Lemmas: []string{"wooden", "toy", "kid", "safe"}, Language: "en", TokenLen: 4},
		{Lemmas: []string{"livre"}, Language: "fr", TokenLen: 1},
	}
	test := []textprep.Document{
		{Lemmas: []string{"bois", "inconnu"}, Language: "de", TokenLen: 7},
	}

	set, err := TextData(train, test, []int{1280, 2583, 10}, []int{2583}, 5000)
	require.NoError(t, err)

	rows, cols := set.XTrain.Shape()
	assert.Equal(t, 3, rows)
	assert.Equal(t, set.Features.Width(), cols)
	assert.Equal(t, 1+2+7, cols)

	// token length scaled to [0, 1] on train
	assert.InDelta(t, 1.0/3.0, set.XTrain.At(0, 0), 1e-12)
	assert.InDelta(t, 1.0, set.XTrain.At(1, 0), 1e-12)
	// language block follows: en, fr
	assert.Equal(t, 1.0, set.XTrain.At(0, 2))
	assert.Equal(t, 1.0, set.XTrain.At(1, 1))

	// test row: token length 7 is not clipped, unseen language is all zero
	assert.InDelta(t, 2.0, set.XTest.At(0, 0), 1e-12)
	assert.Equal(t, 0.0, set.XTest.At(0, 1))
	assert.Equal(t, 0.0, set.XTest.At(0, 2))
	bois := 3 + set.Features.Vectorizer.Vocabulary["bois"]
	assert.InDelta(t, 1.0, set.XTest.At(0, bois), 1e-12)

	assert.Equal(t, [][]int{{0, 1, 0}, {0, 0, 1}, {1, 0, 0}}, set.YTrain)
	assert.Equal(t, [][]int{{0, 0, 1}}, set.YTest)

	_, err = TextData(train, test, []int{1}, []int{2583}, 10)
	assert.Error(t, err)
	_, err = TextData(train, test, []int{1280, 2583, 10}, []int{42}, 10)
	assert.Error(t, err)
}
