package docstore

import (
	"context"

	"github.com/vortexlabs/docsink/pkg/record"
)

// Writer is the opaque asynchronous write primitive consumed by the import
// pipeline. Implementations own all network I/O, per-call timeouts, and
// retry-on-throttle behavior; callers see only the final outcome of each
// operation.
type Writer interface {
	// Create writes a new document, failing with a conflict error if a
	// document with the same identity already exists.
	Create(ctx context.Context, doc record.Document) error

	// Upsert writes a document with create-or-replace semantics.
	Upsert(ctx context.Context, doc record.Document) error

	// Close releases the underlying connection resources.
	Close(ctx context.Context) error
}
