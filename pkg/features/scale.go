// Package features fits the transformers that turn preprocessed listings
// into model inputs and targets.
package features

import (
	"errors"
	"fmt"
	"slices"

	"github.com/menta2k/product-prep/pkg/sparse"
)

// ErrNotFitted is returned when a transformer is used before Fit
var ErrNotFitted = errors.New("features: transformer is not fitted")

// MinMaxScaler maps values to [0, 1] using the range seen during Fit
type MinMaxScaler struct {
	Min    float64
	Max    float64
	fitted bool
}

// Fit records the minimum and maximum of values
func (s *MinMaxScaler) Fit(values []float64) error {
	if len(values) == 0 {
		return fmt.Errorf("fit scaler: no values")
	}
	s.Min, s.Max = slices.Min(values), slices.Max(values)
	s.fitted = true
	return nil
}

// Transform scales values. A zero range scales by one. Values outside the
// fitted range are not clipped.
func (s *MinMaxScaler) Transform(values []float64) ([]float64, error) {
	if !s.fitted {
		return nil, ErrNotFitted
	}
	span := s.Max - s.Min
	if span == 0 {
		span = 1
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = (v - s.Min) / span
	}
	return out, nil
}

// FitTransform fits values and scales them
func (s *MinMaxScaler) FitTransform(values []float64) ([]float64, error) {
	if err := s.Fit(values); err != nil {
		return nil, err
	}
	return s.Transform(values)
}

// column wraps values as a single column sparse matrix
func column(values []float64) *sparse.Matrix {
	b := sparse.NewBuilder(1)
	for _, v := range values {
		// one column, never out of range
		_ = b.AddRow([]int{0}, []float64{v})
	}
	return b.Build()
}
