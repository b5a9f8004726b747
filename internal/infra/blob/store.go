package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"promo-quiz-service/internal/domain"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// Config holds object-store credentials. The store is configured only when
// endpoint, bucket and both keys are present.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL overrides the base of returned asset URLs, e.g. a CDN origin.
	PublicURL string
	// Prefix is prepended to every object key.
	Prefix string
}

// Configured reports whether all credentials are present.
func (c Config) Configured() bool {
	return c.Endpoint != "" && c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// Store keeps records and uploaded assets in an S3-compatible bucket.
// Records live at <prefix>data/<record>.json.
type Store struct {
	cfg    Config
	client *minio.Client
	log    zerolog.Logger
}

// NewStore builds a store. With incomplete credentials it returns an unconfigured
// store whose Available reports false.
func NewStore(cfg Config, log zerolog.Logger) (*Store, error) {
	s := &Store{cfg: cfg, log: log.With().Str("component", "blob").Logger()}
	if !cfg.Configured() {
		return s, nil
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	s.client = client
	return s, nil
}

func (s *Store) Name() string { return "blob" }

func (s *Store) Available() bool {
	return s.client != nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("make bucket: %w", err)
	}
	s.log.Info().Str("bucket", s.cfg.Bucket).Msg("bucket created")
	return nil
}

// RecordKey is the object key of a record.
func (s *Store) RecordKey(record domain.RecordName) string {
	return s.cfg.Prefix + "data/" + string(record) + ".json"
}

func (s *Store) Load(ctx context.Context, record domain.RecordName) ([]byte, error) {
	if s.client == nil {
		return nil, fmt.Errorf("blob store not configured")
	}
	obj, err := s.client.GetObject(ctx, s.cfg.Bucket, s.RecordKey(record), minio.GetObjectOptions{})
	if err != nil {
		return nil, s.loadErr(record, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.loadErr(record, err)
	}
	return data, nil
}

func (s *Store) loadErr(record domain.RecordName, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return domain.ErrRecordNotFound
	}
	return fmt.Errorf("get %s: %w", s.RecordKey(record), err)
}

func (s *Store) Save(ctx context.Context, record domain.RecordName, data []byte) error {
	if s.client == nil {
		return fmt.Errorf("blob store not configured")
	}
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, s.RecordKey(record), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", s.RecordKey(record), err)
	}
	return nil
}

// Clear removes the record object. Removing an absent object is not an error.
func (s *Store) Clear(ctx context.Context, record domain.RecordName) error {
	if s.client == nil {
		return fmt.Errorf("blob store not configured")
	}
	if err := s.client.RemoveObject(ctx, s.cfg.Bucket, s.RecordKey(record), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s: %w", s.RecordKey(record), err)
	}
	return nil
}

// Put uploads an asset and returns its public URL.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("blob store not configured")
	}
	if size <= 0 {
		size = -1
	}
	objectKey := s.cfg.Prefix + strings.TrimLeft(key, "/")
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, objectKey, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", objectKey, err)
	}
	return s.URL(objectKey), nil
}

// URL is the public address of an object key.
func (s *Store) URL(objectKey string) string {
	return PublicURL(s.cfg, objectKey)
}

// PublicURL builds the address of objectKey: PublicURL when set, otherwise a
// path-style URL on the endpoint.
func PublicURL(cfg Config, objectKey string) string {
	if cfg.PublicURL != "" {
		return strings.TrimRight(cfg.PublicURL, "/") + "/" + objectKey
	}
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return scheme + "://" + cfg.Endpoint + "/" + cfg.Bucket + "/" + objectKey
}
