package imageio

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config holds the connection settings of an S3-compatible bucket
type S3Config struct {
	Endpoint  string `yaml:"endpoint" json:"endpoint"`
	Region    string `yaml:"region" json:"region"`
	Bucket    string `yaml:"bucket" json:"bucket"`
	Prefix    string `yaml:"prefix" json:"prefix"`
	AccessKey string `yaml:"access_key" json:"access_key"`
	SecretKey string `yaml:"secret_key" json:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl" json:"use_ssl"`
}

// objectStore is the subset of the bucket API used by S3Source
type objectStore interface {
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
}

// minioStore adapts a minio client to objectStore
type minioStore struct {
	*minio.Client
}

func (m minioStore) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := m.Client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// S3Source reads product images from an object store bucket
type S3Source struct {
	api       objectStore
	bucket    string
	prefix    string
	processor *Processor
}

// NewS3Source connects to the bucket described by cfg
func NewS3Source(cfg S3Config, processor *Processor) (*S3Source, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}
	if processor == nil {
		processor = NewProcessor()
	}
	return &S3Source{
		api:       minioStore{client},
		bucket:    cfg.Bucket,
		prefix:    strings.Trim(cfg.Prefix, "/"),
		processor: processor,
	}, nil
}

func (s *S3Source) key(ref ImageRef) string {
	if s.prefix == "" {
		return ref.Filename()
	}
	return path.Join(s.prefix, ref.Filename())
}

// Open downloads and decodes the object for ref
func (s *S3Source) Open(ctx context.Context, ref ImageRef) (image.Image, error) {
	key := s.key(ref)
	obj, err := s.api.GetObject(ctx, s.bucket, key)
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer obj.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, obj); err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	img, err := s.processor.DecodeImage(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("decode object %s: %w", key, err)
	}
	if err := s.processor.checkSize(img); err != nil {
		return nil, fmt.Errorf("object %s: %w", key, err)
	}
	return img, nil
}

// List returns the references of every canonical image under the prefix.
// Objects with other names are skipped.
func (s *S3Source) List(ctx context.Context) ([]ImageRef, error) {
	prefix := s.prefix
	if prefix != "" {
		prefix += "/"
	}

	var refs []ImageRef
	opts := minio.ListObjectsOptions{Prefix: prefix, Recursive: true}
	for obj := range s.api.ListObjects(ctx, s.bucket, opts) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		ref, err := ParseImageRef(obj.Key)
		if err != nil {
			continue
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
