package seeddata

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yanqian/faq-rag/internal/domain/faq"
)

// ObjectSource reads a seed dataset from S3-compatible storage (R2, MinIO, S3).
type ObjectSource struct {
	client *minio.Client
	bucket string
	key    string
	logger *slog.Logger
}

// ObjectOptions locates the dataset object.
type ObjectOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Key       string
	Region    string
	UseSSL    bool
}

// NewObjectSource constructs the source.
func NewObjectSource(opts ObjectOptions, logger *slog.Logger) (*ObjectSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	useSSL := opts.UseSSL || strings.HasPrefix(strings.ToLower(opts.Endpoint), "https")
	client, err := minio.New(sanitizeEndpoint(opts.Endpoint), &minio.Options{
		Creds:        credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure:       useSSL,
		Region:       opts.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init object storage client: %w", err)
	}
	return &ObjectSource{
		client: client,
		bucket: opts.Bucket,
		key:    opts.Key,
		logger: logger.With("component", "seeddata.object"),
	}, nil
}

// Name describes where the dataset lives.
func (s *ObjectSource) Name() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key)
}

// Load downloads and decodes the dataset.
func (s *ObjectSource) Load(ctx context.Context) ([]faq.SeedItem, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", s.Name(), err)
	}
	defer obj.Close()
	// GetObject is lazy; Stat surfaces a missing key before decoding.
	info, err := obj.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", s.Name(), err)
	}
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Name(), err)
	}
	s.logger.Info("seed dataset downloaded", "object", s.Name(), "bytes", info.Size, "etag", info.ETag)
	return Decode(data)
}

// Publish uploads a dataset to the configured key, creating the bucket when needed.
func (s *ObjectSource) Publish(ctx context.Context, data []byte) error {
	if _, err := Decode(data); err != nil {
		return err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}
	_, err := s.client.PutObject(ctx, s.bucket, s.key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:      "application/yaml",
		DisableMultipart: true,
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", s.Name(), err)
	}
	s.logger.Info("seed dataset published", "object", s.Name(), "bytes", len(data))
	return nil
}

func (s *ObjectSource) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err == nil && exists {
		return nil
	}
	err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "BucketAlreadyOwnedByYou" {
		return err
	}
	return nil
}

// sanitizeEndpoint removes schemes and paths to satisfy minio.New expectations.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	host, _, _ := strings.Cut(raw, "/")
	return host
}
