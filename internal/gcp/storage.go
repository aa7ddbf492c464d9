package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

// ErrInvalidGCSUri is returned by ParseGCSUri for anything that is not
// gs://bucket/object.
var ErrInvalidGCSUri = errors.New("invalid gcs uri")

// ParseGCSUri splits gs://bucket/path/to/object into bucket and object.
func ParseGCSUri(uri string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(uri, "gs://")
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidGCSUri, uri)
	}
	bucket, object, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidGCSUri, uri)
	}
	return bucket, object, nil
}

// GCSUri is the inverse of ParseGCSUri.
func GCSUri(bucket, object string) string {
	return fmt.Sprintf("gs://%s/%s", bucket, object)
}

// SaveToGCSAtomically writes content to a GCS object only if it doesn't
// already exist. An existing object is not an error.
func SaveToGCSAtomically(ctx context.Context, bucket *storage.BucketHandle, objectName string, content []byte) error {
	writer := bucket.Object(objectName).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)

	if _, err := io.Copy(writer, bytes.NewReader(content)); err != nil {
		_ = writer.Close()
		if isPreconditionFailed(err) {
			slog.Info("Object already exists, skipping write.", "object", objectName)
			return nil
		}
		return fmt.Errorf("failed to write to GCS: %w", err)
	}

	if err := writer.Close(); err != nil {
		if isPreconditionFailed(err) {
			slog.Info("Object already exists, skipping write.", "object", objectName)
			return nil
		}
		return fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return nil
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}

// ReadObject downloads a whole object into memory.
func ReadObject(ctx context.Context, client *storage.Client, bucket, object string) ([]byte, error) {
	reader, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open gs://%s/%s: %w", bucket, object, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", bucket, object, err)
	}
	return data, nil
}

// ParseGCSPrefix is ParseGCSUri for listing prefixes: the path after the
// bucket may be empty.
func ParseGCSPrefix(uri string) (bucket, prefix string, err error) {
	rest, ok := strings.CutPrefix(uri, "gs://")
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidGCSUri, uri)
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidGCSUri, uri)
	}
	return bucket, prefix, nil
}

// ListObjects returns the names of all objects under prefix that end in
// suffix, sorted.
func ListObjects(ctx context.Context, client *storage.Client, bucket, prefix, suffix string) ([]string, error) {
	it := client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})

	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list gs://%s/%s: %w", bucket, prefix, err)
		}
		if strings.HasSuffix(attrs.Name, suffix) {
			names = append(names, attrs.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// NewStorageClient creates a Cloud Storage client with credentials resolved
// by ClientOptions.
func NewStorageClient(ctx context.Context, credentialsFile string) (*storage.Client, error) {
	opts, err := ClientOptions(ctx, credentialsFile)
	if err != nil {
		return nil, err
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return client, nil
}
