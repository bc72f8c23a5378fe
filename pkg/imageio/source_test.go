package imageio

import (
	"bytes"
	"context"
	"errors"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageRef(t *testing.T) {
	ref := ImageRef{ImageID: 1263597046, ProductID: 3804725264}
	assert.Equal(t, "image_1263597046_product_3804725264.jpg", ref.Filename())

	parsed, err := ParseImageRef("/data/images/" + ref.Filename())
	require.NoError(t, err)
	assert.Equal(t, ref, parsed)

	for _, bad := range []string{"photo.jpg", "image_12_product_.jpg", "image_x_product_1.jpg"} {
		_, err := ParseImageRef(bad)
		assert.Error(t, err, bad)
	}
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	ref := ImageRef{ImageID: 7, ProductID: 9}
	p := NewProcessor()
	require.NoError(t, p.SaveImage(createTestImage(12, 10), filepath.Join(dir, ref.Filename()), "jpg", 90, false))

	src := NewDirSource(dir, nil)
	img, err := src.Open(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, 12, img.Bounds().Dx())

	_, err = src.Open(context.Background(), ImageRef{ImageID: 1, ProductID: 1})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Open(ctx, ref)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPSource(t *testing.T) {
	ref := ImageRef{ImageID: 3, ProductID: 4}
	payload := encodePNG(t, createTestImage(6, 6))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/"+ref.Filename() {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(payload)
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL+"/images/", nil)
	img, err := src.Open(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, 6, img.Bounds().Dy())
}

type fakeStore struct {
	objects []minio.ObjectInfo
	data    map[string][]byte
	gotKey  string
}

func (f *fakeStore) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	f.gotKey = key
	data, ok := f.data[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeStore) ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(f.objects))
	for _, o := range f.objects {
		ch <- o
	}
	close(ch)
	return ch
}

func TestS3Source(t *testing.T) {
	store := &fakeStore{objects: []minio.ObjectInfo{
		{Key: "train/image_1_product_2.jpg"},
		{Key: "train/readme.txt"},
		{Key: "train/image_3_product_4.jpg"},
	}}
	src := &S3Source{api: store, bucket: "catalog", prefix: "train", processor: NewProcessor()}

	refs, err := src.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []ImageRef{{ImageID: 1, ProductID: 2}, {ImageID: 3, ProductID: 4}}, refs)

	_, err = src.Open(context.Background(), ImageRef{ImageID: 5, ProductID: 6})
	assert.ErrorContains(t, err, "no such key")
	assert.Equal(t, "train/image_5_product_6.jpg", store.gotKey)

	store.objects = append(store.objects, minio.ObjectInfo{Err: errors.New("access denied")})
	_, err = src.List(context.Background())
	assert.ErrorContains(t, err, "access denied")
}

func TestS3SourceOpen(t *testing.T) {
	store := &fakeStore{data: map[string][]byte{
		"train/image_1_product_2.jpg": encodePNG(t, createTestImage(14, 9)),
		"train/image_3_product_4.jpg": []byte("not an image"),
		"train/image_5_product_6.jpg": encodePNG(t, createTestImage(4, 4)),
	}}
	p := NewProcessorWithConfig(Config{Timeout: time.Second, MinSize: 5})
	src := &S3Source{api: store, bucket: "catalog", prefix: "train", processor: p}
	ctx := context.Background()

	img, err := src.Open(ctx, ImageRef{ImageID: 1, ProductID: 2})
	require.NoError(t, err)
	assert.Equal(t, image.Pt(14, 9), img.Bounds().Size())

	_, err = src.Open(ctx, ImageRef{ImageID: 3, ProductID: 4})
	assert.ErrorContains(t, err, "decode object")

	_, err = src.Open(ctx, ImageRef{ImageID: 5, ProductID: 6})
	assert.ErrorContains(t, err, "image too small")
}

func TestDirSourceMinSize(t *testing.T) {
	dir := t.TempDir()
	ref := ImageRef{ImageID: 8, ProductID: 9}
	p := NewProcessorWithConfig(Config{MinSize: 20})
	require.NoError(t, p.SaveImage(createTestImage(30, 10), filepath.Join(dir, ref.Filename()), "jpg", 90, false))

	_, err := NewDirSource(dir, p).Open(context.Background(), ref)
	assert.ErrorContains(t, err, "image too small")

	img, err := NewDirSource(dir, NewProcessorWithConfig(Config{})).Open(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, 10, img.Bounds().Dy())
}

func TestNewS3SourceRequiresBucket(t *testing.T) {
	_, err := NewS3Source(S3Config{Endpoint: "localhost:9000"}, nil)
	assert.Error(t, err)
}
