// Package sparse provides the compressed sparse row matrix used for text
// features.
package sparse

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// ErrShape is returned when matrix dimensions do not line up
var ErrShape = errors.New("sparse: shape mismatch")

// Matrix is a read-only CSR matrix. Row i holds the entries
// Indices[Indptr[i]:Indptr[i+1]] with values Data[Indptr[i]:Indptr[i+1]],
// column indices ascending.
type Matrix struct {
	Rows    int
	Cols    int
	Indptr  []int
	Indices []int
	Data    []float64
}

// Shape returns rows and columns
func (m *Matrix) Shape() (int, int) {
	return m.Rows, m.Cols
}

// NNZ returns the number of stored entries
func (m *Matrix) NNZ() int {
	return len(m.Data)
}

// Row returns the stored column indices and values of row i. The slices alias
// the matrix storage.
func (m *Matrix) Row(i int) ([]int, []float64) {
	lo, hi := m.Indptr[i], m.Indptr[i+1]
	return m.Indices[lo:hi], m.Data[lo:hi]
}

// At returns the value at (i, j)
func (m *Matrix) At(i, j int) float64 {
	if i < 0 || i >= m.Rows || j < 0 || j >= m.Cols {
		panic(fmt.Sprintf("sparse: index (%d, %d) out of range %dx%d", i, j, m.Rows, m.Cols))
	}
	idx, vals := m.Row(i)
	if k, ok := slices.BinarySearch(idx, j); ok {
		return vals[k]
	}
	return 0
}

// Dense expands the matrix into row slices
func (m *Matrix) Dense() [][]float64 {
	out := make([][]float64, m.Rows)
	for i := range out {
		out[i] = make([]float64, m.Cols)
		idx, vals := m.Row(i)
		for k, j := range idx {
			out[i][j] = vals[k]
		}
	}
	return out
}

// Builder assembles a Matrix one row at a time
type Builder struct {
	cols    int
	indptr  []int
	indices []int
	data    []float64
}

// NewBuilder creates a builder for a matrix with cols columns
func NewBuilder(cols int) *Builder {
	return &Builder{cols: cols, indptr: []int{0}}
}

type entry struct {
	col int
	val float64
}

// AddRow appends a row given as parallel column and value slices. Zero
// values are dropped and duplicate columns are summed.
func (b *Builder) AddRow(cols []int, vals []float64) error {
	if len(cols) != len(vals) {
		return fmt.Errorf("%w: %d columns for %d values", ErrShape, len(cols), len(vals))
	}
	entries := make([]entry, 0, len(cols))
	for k, c := range cols {
		if c < 0 || c >= b.cols {
			return fmt.Errorf("%w: column %d outside [0, %d)", ErrShape, c, b.cols)
		}
		entries = append(entries, entry{c, vals[k]})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].col < entries[j].col })

	for k := 0; k < len(entries); {
		c, v := entries[k].col, 0.0
		for ; k < len(entries) && entries[k].col == c; k++ {
			v += entries[k].val
		}
		if v != 0 {
			b.indices = append(b.indices, c)
			b.data = append(b.data, v)
		}
	}
	b.indptr = append(b.indptr, len(b.data))
	return nil
}

// Build returns the assembled matrix. The builder must not be reused.
func (b *Builder) Build() *Matrix {
	return &Matrix{
		Rows:    len(b.indptr) - 1,
		Cols:    b.cols,
		Indptr:  b.indptr,
		Indices: b.indices,
		Data:    b.data,
	}
}

// FromDense converts row slices into a Matrix. All rows must have cols
// entries.
func FromDense(rows [][]float64, cols int) (*Matrix, error) {
	b := NewBuilder(cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrShape, i, len(row), cols)
		}
		var idx []int
		var vals []float64
		for j, v := range row {
			if v != 0 {
				idx = append(idx, j)
				vals = append(vals, v)
			}
		}
		if err := b.AddRow(idx, vals); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

// HStack concatenates matrices column-wise. Every block must have the same
// number of rows.
func HStack(blocks ...*Matrix) (*Matrix, error) {
	if len(blocks) == 0 {
		return &Matrix{Indptr: []int{0}}, nil
	}
	rows := blocks[0].Rows
	cols := 0
	nnz := 0
	for i, blk := range blocks {
		if blk.Rows != rows {
			return nil, fmt.Errorf("%w: block %d has %d rows, want %d", ErrShape, i, blk.Rows, rows)
		}
		cols += blk.Cols
		nnz += blk.NNZ()
	}

	out := &Matrix{
		Rows:    rows,
		Cols:    cols,
		Indptr:  make([]int, 1, rows+1),
		Indices: make([]int, 0, nnz),
		Data:    make([]float64, 0, nnz),
	}
	for r := 0; r < rows; r++ {
		offset := 0
		for _, blk := range blocks {
			idx, vals := blk.Row(r)
			for k, j := range idx {
				out.Indices = append(out.Indices, j+offset)
				out.Data = append(out.Data, vals[k])
			}
			offset += blk.Cols
		}
		out.Indptr = append(out.Indptr, len(out.Data))
	}
	return out, nil
}
