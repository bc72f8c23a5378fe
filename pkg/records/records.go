// Package records loads product listings from CSV or Parquet files.
package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/menta2k/product-prep/pkg/imageio"
	"github.com/menta2k/product-prep/pkg/textprep"
)

// Record is one product listing
type Record struct {
	// Index is the row label: the leading index column when the file has
	// one, otherwise the zero-based row position.
	Index       int64  `parquet:"index,optional"`
	Designation string `parquet:"designation"`
	Description string `parquet:"description,optional"`
	ProductID   int64  `parquet:"productid"`
	ImageID     int64  `parquet:"imageid"`
	// PrdTypeCode is the product type; zero when the file carries no target
	PrdTypeCode int64 `parquet:"prdtypecode,optional"`
}

// ImageRef returns the reference of the listing photo
func (r Record) ImageRef() imageio.ImageRef {
	return imageio.ImageRef{ImageID: r.ImageID, ProductID: r.ProductID}
}

// Title returns the designation
func (r Record) Title() string {
	return r.Designation
}

// TextInput returns the text fields for preprocessing
func (r Record) TextInput() textprep.Input {
	return textprep.Input{Designation: r.Designation, Description: r.Description}
}

// ImageRefs returns the photo references of recs in order
func ImageRefs(recs []Record) []imageio.ImageRef {
	out := make([]imageio.ImageRef, len(recs))
	for i, r := range recs {
		out[i] = r.ImageRef()
	}
	return out
}

// TextInputs returns the text fields of recs in order
func TextInputs(recs []Record) []textprep.Input {
	out := make([]textprep.Input, len(recs))
	for i, r := range recs {
		out[i] = r.TextInput()
	}
	return out
}

// Indexes returns the row labels of recs in order
func Indexes(recs []Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = strconv.FormatInt(r.Index, 10)
	}
	return out
}

// Targets returns the product type codes of recs in order
func Targets(recs []Record) []int {
	out := make([]int, len(recs))
	for i, r := range recs {
		out[i] = int(r.PrdTypeCode)
	}
	return out
}

// Loader reads listings from a CSV or Parquet file
type Loader struct {
	path string
}

// NewLoader creates a loader for path
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads every record
func (l *Loader) Load() ([]Record, error) {
	return l.LoadSample(-1)
}

// LoadSample reads at most limit records; a negative limit reads all
func (l *Loader) LoadSample(limit int) ([]Record, error) {
	switch ext := strings.ToLower(filepath.Ext(l.path)); ext {
	case ".csv":
		return l.loadCSV(limit)
	case ".parquet":
		return l.loadParquet(limit)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .csv, .parquet)", ext)
	}
}

var requiredColumns = []string{"designation", "productid", "imageid"}

// isIndexColumn reports whether a header names a saved dataframe index
func isIndexColumn(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "index", "unnamed: 0":
		return true
	}
	return false
}

func (l *Loader) loadCSV(limit int) ([]Record, error) {
	slog.Debug("Opening CSV file", "path", l.path)

	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("CSV is missing column %q", name)
		}
	}
	hasIndex := isIndexColumn(header[0])

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}
	id := func(row []string, name string, line int) (int64, error) {
		s := strings.TrimSpace(field(row, name))
		if s == "" {
			return 0, nil
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("line %d: column %s: %w", line, name, err)
		}
		return v, nil
	}

	var records []Record
	line := 1
	for limit < 0 || len(records) < limit {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("error reading dataset: %w", err)
		}

		rec := Record{
			Index:       int64(len(records)),
			Designation: field(row, "designation"),
			Description: field(row, "description"),
		}
		if hasIndex {
			if rec.Index, err = strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64); err != nil {
				return nil, fmt.Errorf("line %d: index column: %w", line, err)
			}
		}
		if rec.ProductID, err = id(row, "productid", line); err != nil {
			return nil, err
		}
		if rec.ImageID, err = id(row, "imageid", line); err != nil {
			return nil, err
		}
		if rec.PrdTypeCode, err = id(row, "prdtypecode", line); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	slog.Debug("Finished reading CSV file", "total_records", len(records))
	return records, nil
}

func (l *Loader) loadParquet(limit int) ([]Record, error) {
	slog.Debug("Opening Parquet file", "path", l.path)

	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}
	slog.Debug("Parquet file opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	_, hasIndex := pf.Schema().Lookup("index")

	reader := parquet.NewGenericReader[Record](pf)
	defer reader.Close()

	var records []Record
	rows := make([]Record, 128)
	for limit < 0 || len(records) < limit {
		n, err := reader.Read(rows)
		records = append(records, rows[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}
	if limit >= 0 && len(records) > limit {
		records = records[:limit]
	}
	if !hasIndex {
		for i := range records {
			records[i].Index = int64(i)
		}
	}

	slog.Debug("Finished reading Parquet file", "total_records", len(records))
	return records, nil
}

// WriteParquet stores recs at path
func WriteParquet(path string, recs []Record) error {
	if err := parquet.WriteFile(path, recs); err != nil {
		return fmt.Errorf("failed to write parquet: %w", err)
	}
	return nil
}
