package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/realmath/problempipeline/internal/gcp"
	"github.com/realmath/problempipeline/internal/models"
	"github.com/realmath/problempipeline/internal/report"
)

// TaggedSuffix is the object suffix the tagger function writes.
const TaggedSuffix = "_tagged.csv"

// Aggregator merges the per-exam tagged tables under a bucket prefix into a
// single list, in object name order.
type Aggregator struct {
	source ObjectSource
}

func NewAggregator(source ObjectSource) *Aggregator {
	return &Aggregator{source: source}
}

// Aggregate reads every *_tagged.csv under gs://bucket/prefix. A table that
// cannot be read fails the whole run, since a partial distribution would be
// silently wrong.
func (a *Aggregator) Aggregate(ctx context.Context, bucket, prefix string) ([]models.TaggedProblem, error) {
	logCtx := slog.With("bucket", bucket, "prefix", prefix)

	names, err := a.source.List(ctx, bucket, prefix, TaggedSuffix)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		logCtx.Warn("No tagged tables found to aggregate.")
		return nil, nil
	}
	logCtx.Info("Found tagged tables for aggregation.", "fileCount", len(names))

	var all []models.TaggedProblem
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := a.source.Read(ctx, bucket, name)
		if err != nil {
			return nil, err
		}
		problems, err := report.ReadTagged(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", gcp.GCSUri(bucket, name), err)
		}
		logCtx.Debug("Appending table.", "gcsObject", name, "problems", len(problems))
		all = append(all, problems...)
	}
	return all, nil
}
