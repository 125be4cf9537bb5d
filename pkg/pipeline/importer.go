// Package pipeline implements the batched asynchronous write pipeline.
//
// ImportBatch drives an iterator of input records into the target
// collection: each record is converted to a wire document and submitted as
// one asynchronous write, writes are grouped into batches of a configured
// size, and the driving goroutine blocks at every batch boundary until all
// writes in the batch complete. An optional pause between batches paces
// ingestion below the store's throttling threshold proactively.
package pipeline

import (
	"context"
	stderrors "errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/vortexlabs/docsink/pkg/docstore"
	"github.com/vortexlabs/docsink/pkg/errors"
	"github.com/vortexlabs/docsink/pkg/logger"
	"github.com/vortexlabs/docsink/pkg/metrics"
	"github.com/vortexlabs/docsink/pkg/record"
)

// Options controls one ImportBatch invocation
type Options struct {
	// BatchSize bounds the number of concurrently in-flight writes.
	// Must be at least 1.
	BatchSize int

	// InterBatchDelay pauses the driving goroutine after every full-size
	// batch flush. Zero disables pacing.
	InterBatchDelay time.Duration

	// RootField, when set, names the single row field whose string content
	// becomes the document body.
	RootField string

	// Upsert selects create-or-replace semantics; otherwise writes fail on
	// identity conflict.
	Upsert bool

	// RateLimitPerSec limits record submissions per second across the whole
	// invocation. Zero disables the limiter.
	RateLimitPerSec int
}

func (o Options) validate() error {
	if o.BatchSize < 1 {
		return errors.New(errors.ErrorTypeConfig, "batch size must be at least 1")
	}
	if o.InterBatchDelay < 0 {
		return errors.New(errors.ErrorTypeConfig, "inter-batch delay cannot be negative")
	}
	if o.RateLimitPerSec < 0 {
		return errors.New(errors.ErrorTypeConfig, "rate limit cannot be negative")
	}
	return nil
}

// Importer writes record streams into a document store through the opaque
// write primitive. It holds no per-invocation state; a single Importer may
// serve multiple sequential imports.
type Importer struct {
	writer docstore.Writer
	log    *zap.Logger
}

// NewImporter creates an importer over the given write primitive
func NewImporter(writer docstore.Writer) *Importer {
	return &Importer{
		writer: writer,
		log:    logger.With(zap.String("component", "importer")),
	}
}

// ImportBatch ingests every record the iterator yields, in iteration
// order, and returns after all submitted writes have completed.
//
// At most opts.BatchSize writes are in flight at any moment. All writes of
// batch N complete before any write of batch N+1 is submitted; completion
// order within a batch is unconstrained.
//
// The pipeline recovers nothing locally: the first conversion failure,
// source failure, or write failure aborts the call. Writes from batches
// flushed before the failure remain committed; retry-on-throttle is
// delegated entirely to the transport. Re-invoking after a failure replays
// the input from the beginning, so callers needing safe replays should set
// opts.Upsert.
func (im *Importer) ImportBatch(ctx context.Context, records record.Iterator, opts Options) error {
	if err := opts.validate(); err != nil {
		return err
	}

	var limiter *rate.Limiter
	if opts.RateLimitPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimitPerSec), opts.RateLimitPerSec)
	}

	operation := "create"
	if opts.Upsert {
		operation = "upsert"
	}

	start := time.Now()
	group, groupCtx := errgroup.WithContext(ctx)
	added := 0
	batches := 0
	total := 0

	for records.Next() {
		doc, err := records.Record().ToDocument(opts.RootField)
		if err != nil {
			// Await already-submitted siblings before surfacing the
			// conversion failure; a write failure observed while draining
			// takes precedence.
			if waitErr := im.awaitBatch(group, added); waitErr != nil {
				return waitErr
			}
			metrics.WriteErrors.WithLabelValues(string(errors.TypeOf(err))).Inc()
			return err
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				if waitErr := im.awaitBatch(group, added); waitErr != nil {
					return waitErr
				}
				return errors.Wrap(err, errors.ErrorTypeTimeout, "rate limiter interrupted")
			}
		}

		group.Go(func() error {
			metrics.InFlightWrites.Inc()
			defer metrics.InFlightWrites.Dec()

			var writeErr error
			if opts.Upsert {
				writeErr = im.writer.Upsert(groupCtx, doc)
			} else {
				writeErr = im.writer.Create(groupCtx, doc)
			}
			if writeErr != nil {
				metrics.WriteErrors.WithLabelValues(string(errors.TypeOf(writeErr))).Inc()
				return writeErr
			}
			metrics.RecordsWritten.WithLabelValues(operation).Inc()
			return nil
		})
		added++
		total++

		if added == opts.BatchSize {
			if err := im.awaitBatch(group, added); err != nil {
				return err
			}
			batches++

			if opts.InterBatchDelay > 0 {
				if err := sleepContext(ctx, opts.InterBatchDelay); err != nil {
					return err
				}
			}

			group, groupCtx = errgroup.WithContext(ctx)
			added = 0
		}
	}

	if err := records.Err(); err != nil {
		if waitErr := im.awaitBatch(group, added); waitErr != nil {
			return waitErr
		}
		return errors.Wrap(err, errors.ErrorTypeWrite, "record source failed")
	}

	// Trailing partial batch; no pacing pause after it.
	if added > 0 {
		if err := im.awaitBatch(group, added); err != nil {
			return err
		}
		batches++
	}

	im.log.Info("import completed",
		zap.Int("records", total),
		zap.Int("batches", batches),
		zap.String("operation", operation),
		zap.Duration("duration", time.Since(start)))

	return nil
}

// awaitBatch blocks until every write in the current batch has resolved,
// propagating the first observed failure.
func (im *Importer) awaitBatch(group *errgroup.Group, size int) error {
	if size == 0 {
		return group.Wait()
	}

	timer := metrics.NewFlushTimer()
	err := group.Wait()
	elapsed := timer.Stop()

	if err != nil {
		im.log.Error("batch flush failed",
			zap.Int("batch_size", size),
			zap.Duration("wait", elapsed),
			zap.Error(err))
		// Transport errors are already typed; preserve the kind for callers.
		var structured *errors.Error
		if stderrors.As(err, &structured) {
			return err
		}
		return errors.Wrap(err, errors.ErrorTypeWrite, "batch write failed")
	}

	metrics.BatchesFlushed.Inc()
	im.log.Debug("batch flushed",
		zap.Int("batch_size", size),
		zap.Duration("wait", elapsed))
	return nil
}

// sleepContext pauses for the inter-batch delay, honoring cancellation
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
