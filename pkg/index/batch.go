package index

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gitrdm/gokanterm/internal/metrics"
	"github.com/gitrdm/gokanterm/internal/parallel"
	"github.com/gitrdm/gokanterm/pkg/dtree"
	"github.com/gitrdm/gokanterm/pkg/term"
)

var tracer = otel.Tracer("gokanterm.index")

// BatchResult holds the candidates retrieved for one query.
type BatchResult struct {
	Query   *term.Term
	Entries []Entry
}

// BatchRetrieve runs one retrieval per query against the snapshot ix on at
// most workers goroutines (NumCPU when workers <= 0). Results are returned
// in query order. Retrieval only reads ix, so no locking is needed as long
// as the caller keeps using ix as a frozen value.
func (ix *ClauseIndex) BatchRetrieve(ctx context.Context, kind Kind, mode dtree.Mode, queries []*term.Term, workers int) ([]BatchResult, error) {
	ctx, span := tracer.Start(ctx, "index.BatchRetrieve",
		trace.WithAttributes(
			attribute.String("index.kind", kind.String()),
			attribute.String("index.mode", mode.String()),
			attribute.Int("index.queries", len(queries)),
		),
	)
	defer span.End()

	start := time.Now()
	defer func() { metrics.BatchRetrieveDuration.Observe(time.Since(start).Seconds()) }()

	results := make([]BatchResult, len(queries))
	pool := parallel.NewWorkerPool(workers)
	err := pool.Run(ctx, len(queries), func(ctx context.Context, i int) error {
		q := queries[i]
		if q == nil {
			return fmt.Errorf("index: query %d is nil: %w", i, term.ErrInvalidTerm)
		}
		results[i] = BatchResult{Query: q, Entries: slices.Collect(ix.Retrieve(kind, q, mode))}
		return ctx.Err()
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r.Entries)
	}
	span.SetAttributes(attribute.Int("index.candidates", total))
	span.SetStatus(codes.Ok, "")
	ix.logger.Debug("batch retrieval completed",
		slog.String("kind", kind.String()),
		slog.String("mode", mode.String()),
		slog.Int("queries", len(queries)),
		slog.Int("candidates", total),
		slog.Int("workers", pool.MaxWorkers()),
	)
	return results, nil
}
