package gcp

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// ForEachDocument runs fn for every document of q, stopping at the first
// error.
func ForEachDocument(ctx context.Context, q firestore.Query, fn func(*firestore.DocumentSnapshot) error) error {
	it := q.Documents(ctx)
	defer it.Stop()

	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to iterate documents: %w", err)
		}
		if err := fn(snap); err != nil {
			return err
		}
	}
}
