package gcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
)

// MaxBatchWrites is the Firestore limit on writes in one commit.
const MaxBatchWrites = 500

// BatchWriter is the subset of *firestore.WriteBatch used by Batcher.
type BatchWriter interface {
	Set(dr *firestore.DocumentRef, data any)
	Update(dr *firestore.DocumentRef, updates []firestore.Update)
	Delete(dr *firestore.DocumentRef)
	Commit(ctx context.Context) error
}

// NewWriteBatch returns a fresh Firestore write batch behind BatchWriter.
func NewWriteBatch(client *firestore.Client) BatchWriter {
	return writeBatch{b: client.Batch()}
}

type writeBatch struct {
	b *firestore.WriteBatch
}

func (w writeBatch) Set(dr *firestore.DocumentRef, data any) { w.b.Set(dr, data) }

func (w writeBatch) Update(dr *firestore.DocumentRef, updates []firestore.Update) {
	w.b.Update(dr, updates)
}

func (w writeBatch) Delete(dr *firestore.DocumentRef) { w.b.Delete(dr) }

func (w writeBatch) Commit(ctx context.Context) error {
	_, err := w.b.Commit(ctx)
	return err
}

// Batcher groups writes into Firestore batches and commits each batch as soon
// as it holds limit writes. A failed commit is logged and its writes are
// counted as failed; later batches are still attempted.
type Batcher struct {
	newBatch func() BatchWriter
	limit    int

	current   BatchWriter
	pending   int
	committed int
	failed    int
	errs      []error
}

// NewBatcher returns a Batcher over client. limit is clamped to
// [1, MaxBatchWrites].
func NewBatcher(client *firestore.Client, limit int) *Batcher {
	return NewBatcherFunc(func() BatchWriter {
		return NewWriteBatch(client)
	}, limit)
}

// NewBatcherFunc returns a Batcher that obtains a fresh batch from newBatch
// after every commit.
func NewBatcherFunc(newBatch func() BatchWriter, limit int) *Batcher {
	if limit <= 0 || limit > MaxBatchWrites {
		limit = MaxBatchWrites
	}
	return &Batcher{newBatch: newBatch, limit: limit}
}

func (b *Batcher) batch() BatchWriter {
	if b.current == nil {
		b.current = b.newBatch()
	}
	return b.current
}

// Set queues a Set of data at dr.
func (b *Batcher) Set(ctx context.Context, dr *firestore.DocumentRef, data any) {
	b.batch().Set(dr, data)
	b.added(ctx)
}

// Update queues an Update of dr.
func (b *Batcher) Update(ctx context.Context, dr *firestore.DocumentRef, updates []firestore.Update) {
	b.batch().Update(dr, updates)
	b.added(ctx)
}

// Delete queues a Delete of dr.
func (b *Batcher) Delete(ctx context.Context, dr *firestore.DocumentRef) {
	b.batch().Delete(dr)
	b.added(ctx)
}

func (b *Batcher) added(ctx context.Context) {
	b.pending++
	if b.pending >= b.limit {
		b.commit(ctx)
	}
}

func (b *Batcher) commit(ctx context.Context) {
	if b.pending == 0 {
		return
	}
	n := b.pending
	err := b.current.Commit(ctx)
	b.current = nil
	b.pending = 0

	if err != nil {
		slog.Error("Batch commit failed", "writes", n, "error", err)
		b.failed += n
		b.errs = append(b.errs, fmt.Errorf("failed to commit batch of %d writes: %w", n, err))
		return
	}
	b.committed += n
	slog.Debug("Committed batch", "writes", n, "totalCommitted", b.committed)
}

// Flush commits any queued writes and returns every commit error seen so
// far, joined.
func (b *Batcher) Flush(ctx context.Context) error {
	b.commit(ctx)
	return errors.Join(b.errs...)
}

// Pending returns the number of queued, uncommitted writes.
func (b *Batcher) Pending() int { return b.pending }

// Committed returns the number of writes in successful commits.
func (b *Batcher) Committed() int { return b.committed }

// Failed returns the number of writes in failed commits.
func (b *Batcher) Failed() int { return b.failed }
