package services

import (
	"context"

	"cloud.google.com/go/storage"

	"github.com/realmath/problempipeline/internal/gcp"
)

// ObjectSource lists and reads objects in a bucket.
type ObjectSource interface {
	List(ctx context.Context, bucket, prefix, suffix string) ([]string, error)
	Read(ctx context.Context, bucket, object string) ([]byte, error)
}

// ObjectStore is an ObjectSource that can also create objects. Save never
// overwrites: an object that already exists is left as is.
type ObjectStore interface {
	ObjectSource
	Save(ctx context.Context, bucket, object string, data []byte) error
}

// GCSObjectSource is the Cloud Storage ObjectStore.
type GCSObjectSource struct {
	Client *storage.Client
}

func (s GCSObjectSource) List(ctx context.Context, bucket, prefix, suffix string) ([]string, error) {
	return gcp.ListObjects(ctx, s.Client, bucket, prefix, suffix)
}

func (s GCSObjectSource) Read(ctx context.Context, bucket, object string) ([]byte, error) {
	return gcp.ReadObject(ctx, s.Client, bucket, object)
}

func (s GCSObjectSource) Save(ctx context.Context, bucket, object string, data []byte) error {
	return gcp.SaveToGCSAtomically(ctx, s.Client.Bucket(bucket), object, data)
}
