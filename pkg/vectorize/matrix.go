package vectorize

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/menta2k/product-prep/pkg/autocrop"
)

// Matrix is a dense row-major uint8 matrix, one vectorized image per row
type Matrix struct {
	Rows int
	Cols int
	Pix  []uint8
}

// NewMatrix allocates a zeroed rows x cols matrix
func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{Rows: rows, Cols: cols, Pix: make([]uint8, rows*cols)}
}

// Row returns row i, aliasing the matrix storage
func (m *Matrix) Row(i int) []uint8 {
	return m.Pix[i*m.Cols : (i+1)*m.Cols]
}

// WriteCSV writes the matrix with a px_<j> header. When index is not nil a
// leading column holds index[i] for row i.
func (m *Matrix) WriteCSV(w io.Writer, index []string) error {
	if index != nil && len(index) != m.Rows {
		return fmt.Errorf("index has %d labels for %d rows", len(index), m.Rows)
	}
	cw := csv.NewWriter(w)

	header := make([]string, 0, m.Cols+1)
	if index != nil {
		header = append(header, "")
	}
	for j := 0; j < m.Cols; j++ {
		header = append(header, "px_"+strconv.Itoa(j))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	rec := make([]string, len(header))
	for i := 0; i < m.Rows; i++ {
		off := 0
		if index != nil {
			rec[0] = index[i]
			off = 1
		}
		for j, px := range m.Row(i) {
			rec[off+j] = strconv.Itoa(int(px))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Tensor is an N x Side x Side x 3 float32 array
type Tensor struct {
	N    int
	Side int
	Data []float32
}

// NewTensor reshapes m into images of side x side pixels. A positive scale
// divides every value.
func NewTensor(m *Matrix, side int, scale float64) (*Tensor, error) {
	if side < 1 {
		return nil, fmt.Errorf("side must be positive, got %d", side)
	}
	if want := side * side * autocrop.Channels; m.Cols != want {
		return nil, fmt.Errorf("matrix has %d columns, %dx%d images need %d", m.Cols, side, side, want)
	}

	div := float32(1)
	if scale > 0 {
		div = float32(scale)
	}
	data := make([]float32, len(m.Pix))
	for i, px := range m.Pix {
		data[i] = float32(px) / div
	}
	return &Tensor{N: m.Rows, Side: side, Data: data}, nil
}

// Shape returns the four tensor dimensions
func (t *Tensor) Shape() [4]int {
	return [4]int{t.N, t.Side, t.Side, autocrop.Channels}
}

// At returns channel c of pixel (y, x) in image n
func (t *Tensor) At(n, y, x, c int) float32 {
	return t.Data[((n*t.Side+y)*t.Side+x)*autocrop.Channels+c]
}

// ImageSet holds the train and test tensors
type ImageSet struct {
	Train *Tensor
	Test  *Tensor
}

// ImageData reshapes both splits. A positive scale divides every value.
func ImageData(train, test *Matrix, side int, scale float64) (*ImageSet, error) {
	tr, err := NewTensor(train, side, scale)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	te, err := NewTensor(test, side, scale)
	if err != nil {
		return nil, fmt.Errorf("test: %w", err)
	}
	return &ImageSet{Train: tr, Test: te}, nil
}
