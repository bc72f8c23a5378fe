package features

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/menta2k/product-prep/pkg/sparse"
)

// OneHotEncoder encodes a categorical column. Categories unseen during Fit
// encode as an all-zero row.
type OneHotEncoder struct {
	Categories []string
	index      map[string]int
}

// Fit collects the sorted distinct categories of values
func (e *OneHotEncoder) Fit(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("fit one-hot encoder: no values")
	}
	cats := slices.Clone(values)
	slices.Sort(cats)
	e.Categories = slices.Compact(cats)
	e.index = make(map[string]int, len(e.Categories))
	for i, c := range e.Categories {
		e.index[c] = i
	}
	return nil
}

// Transform encodes values as a len(values) x len(Categories) matrix
func (e *OneHotEncoder) Transform(values []string) (*sparse.Matrix, error) {
	if e.index == nil {
		return nil, ErrNotFitted
	}
	b := sparse.NewBuilder(len(e.Categories))
	for _, v := range values {
		var err error
		if j, ok := e.index[v]; ok {
			err = b.AddRow([]int{j}, []float64{1})
		} else {
			err = b.AddRow(nil, nil)
		}
		if err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

// FitTransform fits values and encodes them
func (e *OneHotEncoder) FitTransform(values []string) (*sparse.Matrix, error) {
	if err := e.Fit(values); err != nil {
		return nil, err
	}
	return e.Transform(values)
}

// LabelEncoder maps class labels to codes 0..n-1 in sorted label order
type LabelEncoder[T cmp.Ordered] struct {
	Classes []T
	index   map[T]int
}

// Fit collects the sorted distinct labels
func (e *LabelEncoder[T]) Fit(labels []T) error {
	if len(labels) == 0 {
		return fmt.Errorf("fit label encoder: no labels")
	}
	classes := slices.Clone(labels)
	slices.Sort(classes)
	e.Classes = slices.Compact(classes)
	e.index = make(map[T]int, len(e.Classes))
	for i, c := range e.Classes {
		e.index[c] = i
	}
	return nil
}

// Transform returns the code of each label. Unknown labels are an error.
func (e *LabelEncoder[T]) Transform(labels []T) ([]int, error) {
	if e.index == nil {
		return nil, ErrNotFitted
	}
	codes := make([]int, len(labels))
	for i, l := range labels {
		c, ok := e.index[l]
		if !ok {
			return nil, fmt.Errorf("label %v at row %d was not seen during fit", l, i)
		}
		codes[i] = c
	}
	return codes, nil
}

// FitTransform fits labels and encodes them
func (e *LabelEncoder[T]) FitTransform(labels []T) ([]int, error) {
	if err := e.Fit(labels); err != nil {
		return nil, err
	}
	return e.Transform(labels)
}

// Inverse maps codes back to labels
func (e *LabelEncoder[T]) Inverse(codes []int) ([]T, error) {
	out := make([]T, len(codes))
	for i, c := range codes {
		if c < 0 || c >= len(e.Classes) {
			return nil, fmt.Errorf("code %d at row %d outside [0, %d)", c, i, len(e.Classes))
		}
		out[i] = e.Classes[c]
	}
	return out, nil
}

// ToCategorical one-hot encodes integer codes. numClasses <= 0 uses the
// largest code plus one.
func ToCategorical(codes []int, numClasses int) ([][]int, error) {
	if numClasses <= 0 {
		numClasses = 0
		if len(codes) > 0 {
			numClasses = slices.Max(codes) + 1
		}
	}
	out := make([][]int, len(codes))
	for i, c := range codes {
		if c < 0 || c >= numClasses {
			return nil, fmt.Errorf("code %d at row %d outside [0, %d)", c, i, numClasses)
		}
		out[i] = make([]int, numClasses)
		out[i][c] = 1
	}
	return out, nil
}
