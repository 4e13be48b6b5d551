package objectstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"tactile/internal/logging"
	"tactile/internal/services"
)

// Config captures the settings required to talk to the object store.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	Bucket    string
	UseSSL    bool
}

// Validate reports the first missing required field.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("object store: endpoint is required")
	}
	if strings.Contains(c.Endpoint, "://") {
		return fmt.Errorf("object store: endpoint must not include scheme: %q", c.Endpoint)
	}
	if strings.TrimSpace(c.AccessKey) == "" {
		return errors.New("object store: access key is required")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return errors.New("object store: secret key is required")
	}
	if strings.TrimSpace(c.Bucket) == "" {
		return errors.New("object store: bucket is required")
	}
	return nil
}

// MinioStore implements Store on top of an S3-compatible endpoint.
type MinioStore struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// NewMinioStore builds a minio-backed store from config.
func NewMinioStore(cfg Config, logger *slog.Logger) (*MinioStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "upload", "configure store", err.Error(), nil)
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "upload", "create client", "", err)
	}
	return &MinioStore{
		client: client,
		bucket: cfg.Bucket,
		logger: logging.NewComponentLogger(logger, "objectstore"),
	}, nil
}

// Put uploads localPath under a unique key below keyPrefix and returns the
// object URI. Keys embed a fresh UUID so concurrent runs never collide.
func (s *MinioStore) Put(ctx context.Context, localPath, keyPrefix string) (string, error) {
	key := buildKey(keyPrefix, localPath)
	s.logger.Info("uploading object",
		logging.String("local_path", localPath),
		logging.String("bucket", s.bucket),
		logging.String("key", key))

	_, err := s.client.FPutObject(ctx, s.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: contentTypeFor(localPath),
	})
	if err != nil {
		return "", classify("upload", "put object", err)
	}
	return FormatURI(s.bucket, key), nil
}

// Delete removes the object identified by uri. Missing objects report
// services.ErrNotFound, which cleanup treats as already released.
func (s *MinioStore) Delete(ctx context.Context, uri string) error {
	bucket, key, err := ParseURI(uri)
	if err != nil {
		return services.Wrap(services.ErrNotFound, "cleanup", "delete object", err.Error(), nil)
	}
	if err := s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return classify("cleanup", "delete object", err)
	}
	return nil
}

func buildKey(prefix, localPath string) string {
	ext := filepath.Ext(localPath)
	name := uuid.NewString() + ext
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	case ".flac":
		return "audio/flac"
	default:
		return "application/octet-stream"
	}
}

// classify maps S3 error responses onto the shared error taxonomy: credential
// problems are fatal, missing resources are ignorable on delete, everything
// else is retryable.
func classify(stage, operation string, err error) error {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
		return services.Wrap(services.ErrAuth, stage, operation, resp.Code, err)
	case "NoSuchKey", "NoSuchBucket":
		return services.Wrap(services.ErrNotFound, stage, operation, resp.Code, err)
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return services.Wrap(services.ErrAuth, stage, operation, "", err)
	case http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, stage, operation, "", err)
	}
	return services.Wrap(services.ErrTransient, stage, operation, "", err)
}
