package services

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"

	"github.com/realmath/problempipeline/internal/gcp"
	"github.com/realmath/problempipeline/internal/models"
	"github.com/realmath/problempipeline/internal/schools"
)

// SchoolUploadSummary totals a school upload.
type SchoolUploadSummary struct {
	Deleted  int
	Uploaded int
	Failed   int
}

// SchoolUploader replaces the schools collection with a directory dump.
type SchoolUploader struct {
	collection string
	batchLimit int

	newBatch func() gcp.BatchWriter
	// eachDoc visits every existing document of the collection.
	eachDoc func(ctx context.Context, fn func(*firestore.DocumentRef) error) error
	newDoc  func() *firestore.DocumentRef
}

func NewSchoolUploader(client *firestore.Client, collection string, batchLimit int) *SchoolUploader {
	coll := client.Collection(collection)
	return &SchoolUploader{
		collection: collection,
		batchLimit: batchLimit,
		newBatch: func() gcp.BatchWriter {
			return gcp.NewWriteBatch(client)
		},
		eachDoc: func(ctx context.Context, fn func(*firestore.DocumentRef) error) error {
			return gcp.ForEachDocument(ctx, coll.Select(), func(snap *firestore.DocumentSnapshot) error {
				return fn(snap.Ref)
			})
		},
		newDoc: coll.NewDoc,
	}
}

// Upload deletes every existing school document, then writes one document
// per school with an auto-generated ID. Deletion must fully succeed before
// anything is written; a failed delete aborts with an error. Failed write
// batches are only counted in the summary.
func (u *SchoolUploader) Upload(ctx context.Context, list []models.School) (SchoolUploadSummary, error) {
	var summary SchoolUploadSummary
	logCtx := slog.With("collection", u.collection)

	logCtx.Info("Deleting existing schools.")
	deleter := gcp.NewBatcherFunc(u.newBatch, u.batchLimit)
	err := u.eachDoc(ctx, func(ref *firestore.DocumentRef) error {
		deleter.Delete(ctx, ref)
		return nil
	})
	if err != nil {
		return summary, err
	}
	if err := deleter.Flush(ctx); err != nil {
		summary.Deleted = deleter.Committed()
		return summary, fmt.Errorf("failed to delete existing schools: %w", err)
	}
	summary.Deleted = deleter.Committed()
	logCtx.Info("Deleted existing schools.", "count", summary.Deleted)

	writer := gcp.NewBatcherFunc(u.newBatch, u.batchLimit)
	for _, s := range list {
		writer.Set(ctx, u.newDoc(), schools.Document(s))
	}
	if err := writer.Flush(ctx); err != nil {
		logCtx.Error("Some school batches failed to upload", "error", err)
	}
	summary.Uploaded = writer.Committed()
	summary.Failed = writer.Failed()
	logCtx.Info("Uploaded schools.", "uploaded", summary.Uploaded, "failed", summary.Failed)
	return summary, nil
}
