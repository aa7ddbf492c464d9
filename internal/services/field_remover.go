package services

import (
	"context"
	"log/slog"

	"cloud.google.com/go/firestore"

	"github.com/realmath/problempipeline/internal/gcp"
)

// DefaultRemovedField is the field dropped from problems by default.
const DefaultRemovedField = "explanation"

// FieldRemovalSummary totals a field removal run.
type FieldRemovalSummary struct {
	Scanned int
	Removed int
	Failed  int
}

// FieldRemover deletes one top-level field from every document of a
// collection.
type FieldRemover struct {
	client     *firestore.Client
	batchLimit int
}

func NewFieldRemover(client *firestore.Client, batchLimit int) *FieldRemover {
	return &FieldRemover{client: client, batchLimit: batchLimit}
}

// Remove deletes field from each document in collection that has it. Only
// a failure to read the collection is returned; failed batches are counted
// in the summary.
func (r *FieldRemover) Remove(ctx context.Context, collection, field string) (FieldRemovalSummary, error) {
	var summary FieldRemovalSummary
	logCtx := slog.With("collection", collection, "field", field)

	b := gcp.NewBatcher(r.client, r.batchLimit)
	err := gcp.ForEachDocument(ctx, r.client.Collection(collection).Query, func(snap *firestore.DocumentSnapshot) error {
		summary.Scanned++
		if !hasField(snap.Data(), field) {
			return nil
		}
		logCtx.Debug("Scheduling field deletion", "docId", snap.Ref.ID)
		b.Update(ctx, snap.Ref, []firestore.Update{{FieldPath: firestore.FieldPath{field}, Value: firestore.Delete}})
		return nil
	})
	if err != nil {
		return summary, err
	}

	if err := b.Flush(ctx); err != nil {
		logCtx.Error("Some field removal batches failed", "error", err)
	}
	summary.Removed = b.Committed()
	summary.Failed = b.Failed()
	logCtx.Info("Field removal complete.", "scanned", summary.Scanned, "removed", summary.Removed, "failed", summary.Failed)
	return summary, nil
}

func hasField(data map[string]any, field string) bool {
	_, ok := data[field]
	return ok
}
