package records

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/product-prep/pkg/imageio"
	"github.com/menta2k/product-prep/pkg/textprep"
)

const sampleCSV = `,designation,description,productid,imageid,prdtypecode
84915,Olivia: Personalisiertes Notizbuch,,3804725264,1263597046,10
12,Journal Des Arts,"<p>Le journal, n° 133</p>",436067568,1008141237,2280
7,Stylet ergonomique,Description,201115110,938777978,50
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	recs, err := NewLoader(writeFile(t, "X_train.csv", sampleCSV)).Load()
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, Record{
		Index:       84915,
		Designation: "Olivia: Personalisiertes Notizbuch",
		ProductID:   3804725264,
		ImageID:     1263597046,
		PrdTypeCode: 10,
	}, recs[0])
	assert.Equal(t, "<p>Le journal, n° 133</p>", recs[1].Description)
	assert.Equal(t, "Journal Des Arts", recs[1].Title())
	assert.Equal(t, imageio.ImageRef{ImageID: 1263597046, ProductID: 3804725264}, recs[0].ImageRef())
	assert.Equal(t, []int{10, 2280, 50}, Targets(recs))
	assert.Equal(t, textprep.Input{Designation: "Stylet ergonomique", Description: "Description"}, TextInputs(recs)[2])
	assert.Equal(t, recs[1].ImageRef(), ImageRefs(recs)[1])
	assert.Equal(t, []string{"84915", "12", "7"}, Indexes(recs))
}

func TestLoadCSVIndexColumn(t *testing.T) {
	for _, header := range []string{"", "index", "Unnamed: 0"} {
		csv := header + ",designation,description,productid,imageid\n42,Toy,,10,20\n"
		recs, err := NewLoader(writeFile(t, "X.csv", csv)).Load()
		require.NoError(t, err, header)
		require.Len(t, recs, 1)
		assert.Equal(t, int64(42), recs[0].Index, header)
		assert.Equal(t, int64(10), recs[0].ProductID, header)
	}

	_, err := NewLoader(writeFile(t, "bad.csv", ",designation,productid,imageid\nx,Toy,10,20\n")).Load()
	assert.ErrorContains(t, err, "index column")
}

func TestLoadCSVSample(t *testing.T) {
	recs, err := NewLoader(writeFile(t, "X.csv", sampleCSV)).LoadSample(2)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestLoadCSVWithoutTarget(t *testing.T) {
	csv := "designation,productid,imageid\nLivre,1,2\n"
	recs, err := NewLoader(writeFile(t, "X_test.csv", csv)).Load()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(0), recs[0].Index)
	assert.Equal(t, int64(0), recs[0].PrdTypeCode)
	assert.Empty(t, recs[0].Description)
}

func TestLoadCSVErrors(t *testing.T) {
	_, err := NewLoader(writeFile(t, "a.csv", "designation,imageid\nx,1\n")).Load()
	assert.ErrorContains(t, err, "productid")

	_, err = NewLoader(writeFile(t, "b.csv", "designation,productid,imageid\nx,abc,1\n")).Load()
	assert.ErrorContains(t, err, "line 2")

	_, err = NewLoader(writeFile(t, "c.csv", "")).Load()
	assert.Error(t, err)

	_, err = NewLoader(filepath.Join(t.TempDir(), "missing.csv")).Load()
	assert.Error(t, err)

	_, err = NewLoader("records.xlsx").Load()
	assert.ErrorContains(t, err, "unsupported")
}

func TestParquetRoundTrip(t *testing.T) {
	recs := make([]Record, 300)
	for i := range recs {
		recs[i] = Record{
			Designation: "item",
			ProductID:   int64(i),
			ImageID:     int64(1000 + i),
			PrdTypeCode: 2583,
		}
	}
	path := filepath.Join(t.TempDir(), "train.parquet")
	require.NoError(t, WriteParquet(path, recs))

	loaded, err := NewLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, recs, loaded)

	sample, err := NewLoader(path).LoadSample(130)
	require.NoError(t, err)
	assert.Equal(t, recs[:130], sample)
}
