// Package docsink is a client-side ingestion library that bulk-loads
// records into a remote document database with bounded concurrency,
// configurable consistency and retry behavior, and inter-batch pacing.
//
// # Architecture
//
// Two cooperating components form the core:
//
// 1. Transport Configuration Builder (pkg/docstore): translates a flat set
// of named options into a fully-formed connection policy and consistency
// setting for the store client. Pure function of configuration, no I/O.
//
// 2. Batched Write Pipeline (pkg/pipeline): converts each input record to
// a wire document, submits one asynchronous write per record, waits for
// every write in a batch to complete before submitting the next batch, and
// optionally pauses between batches to throttle throughput.
//
// The document store itself is consumed through the opaque docstore.Writer
// primitive. The bundled implementation speaks the MongoDB wire protocol
// and absorbs throttling with configurable backoff; the pipeline never
// retries on its own.
//
// # Quick Start
//
//	provider := docstore.NewProvider(config.Settings{
//	    config.KeyEndpoint:   "mongodb://account.example.com:10255",
//	    config.KeyCredential: os.Getenv("STORE_KEY"),
//	    config.KeyDatabase:   "appdb",
//	    config.KeyCollection: "events",
//	})
//	writer, err := provider.Writer(ctx)
//	if err != nil {
//	    return err
//	}
//	importer := pipeline.NewImporter(writer)
//	err = importer.ImportBatch(ctx, records, pipeline.Options{
//	    BatchSize:       500,
//	    InterBatchDelay: 100 * time.Millisecond,
//	    Upsert:          true,
//	})
//
// Failure semantics: the first conversion or write failure aborts the
// import at its batch boundary. Documents from previously flushed batches
// remain committed; there is no per-record retry or partial-success
// reporting at this layer.
package docsink
