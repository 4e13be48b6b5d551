package objectstore

import (
	"context"
	"fmt"
	"strings"
)

// Store is the remote object interface the pipeline consumes. Put returns a
// URI of the form s3://<bucket>/<key>; Delete accepts the same URI back.
type Store interface {
	Put(ctx context.Context, localPath, keyPrefix string) (string, error)
	Delete(ctx context.Context, uri string) error
}

// ParseURI splits an s3://bucket/key URI into bucket and key.
func ParseURI(uri string) (bucket, key string, err error) {
	const scheme = "s3://"
	if !strings.HasPrefix(uri, scheme) {
		return "", "", fmt.Errorf("object uri %q: expected %s prefix", uri, scheme)
	}
	rest := strings.TrimPrefix(uri, scheme)
	bucket, key, found := strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", fmt.Errorf("object uri %q: expected s3://bucket/key", uri)
	}
	return bucket, key, nil
}

// FormatURI builds the canonical URI for a stored object.
func FormatURI(bucket, key string) string {
	return fmt.Sprintf("s3://%s/%s", bucket, key)
}
