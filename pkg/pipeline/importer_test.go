package pipeline

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vortexlabs/docsink/pkg/errors"
	"github.com/vortexlabs/docsink/pkg/record"
)

// fakeWriter is an in-memory write primitive that tracks concurrency and
// can block, fail, or store documents on demand.
type fakeWriter struct {
	mu          sync.Mutex
	inflight    int
	maxInflight int
	calls       int
	docs        []record.Document
	store       map[string]record.Document
	delay       time.Duration
	failOn      func(doc record.Document) error
	// arrivals, when set, receives one release channel per write; the
	// write blocks until the test closes its channel.
	arrivals chan chan struct{}
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{store: make(map[string]record.Document)}
}

func (w *fakeWriter) begin(doc record.Document) error {
	w.mu.Lock()
	w.inflight++
	if w.inflight > w.maxInflight {
		w.maxInflight = w.inflight
	}
	w.calls++
	w.docs = append(w.docs, doc)
	failOn := w.failOn
	w.mu.Unlock()

	if w.arrivals != nil {
		release := make(chan struct{})
		w.arrivals <- release
		<-release
	}
	if w.delay > 0 {
		time.Sleep(w.delay)
	}
	if failOn != nil {
		if err := failOn(doc); err != nil {
			return err
		}
	}
	return nil
}

func (w *fakeWriter) end() {
	w.mu.Lock()
	w.inflight--
	w.mu.Unlock()
}

func (w *fakeWriter) Create(ctx context.Context, doc record.Document) error {
	if err := w.begin(doc); err != nil {
		w.end()
		return err
	}
	defer w.end()

	w.mu.Lock()
	defer w.mu.Unlock()
	if id, ok := doc["id"].(string); ok {
		if _, exists := w.store[id]; exists {
			return errors.New(errors.ErrorTypeConflict, "document already exists")
		}
		w.store[id] = doc
	}
	return nil
}

func (w *fakeWriter) Upsert(ctx context.Context, doc record.Document) error {
	if err := w.begin(doc); err != nil {
		w.end()
		return err
	}
	defer w.end()

	w.mu.Lock()
	defer w.mu.Unlock()
	if id, ok := doc["id"].(string); ok {
		w.store[id] = doc
	}
	return nil
}

func (w *fakeWriter) Close(ctx context.Context) error { return nil }

func (w *fakeWriter) callCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

func (w *fakeWriter) highWatermark() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.maxInflight
}

func documentRecords(n int) []*record.Record {
	records := make([]*record.Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, record.NewDocument(record.Document{
			"id":    fmt.Sprintf("doc-%d", i),
			"value": i,
		}))
	}
	return records
}

func TestImportBatch_WritesAllRecords(t *testing.T) {
	writer := newFakeWriter()
	importer := NewImporter(writer)

	err := importer.ImportBatch(context.Background(),
		record.NewSliceIterator(documentRecords(7)),
		Options{BatchSize: 3})

	require.NoError(t, err)
	assert.Equal(t, 7, writer.callCount())
	assert.Len(t, writer.store, 7)
}

func TestImportBatch_BoundsConcurrency(t *testing.T) {
	writer := newFakeWriter()
	writer.delay = 5 * time.Millisecond
	importer := NewImporter(writer)

	err := importer.ImportBatch(context.Background(),
		record.NewSliceIterator(documentRecords(20)),
		Options{BatchSize: 4})

	require.NoError(t, err)
	assert.Equal(t, 20, writer.callCount())
	assert.LessOrEqual(t, writer.highWatermark(), 4)
}

func TestImportBatch_FlushesAtBatchBoundaries(t *testing.T) {
	writer := newFakeWriter()
	writer.arrivals = make(chan chan struct{}, 8)
	importer := NewImporter(writer)

	done := make(chan error, 1)
	go func() {
		done <- importer.ImportBatch(context.Background(),
			record.NewSliceIterator(documentRecords(7)),
			Options{BatchSize: 3})
	}()

	// Three flush waits: after records 3, 6, and the trailing partial batch.
	for _, want := range []int{3, 3, 1} {
		wave := make([]chan struct{}, 0, want)
		for i := 0; i < want; i++ {
			select {
			case release := <-writer.arrivals:
				wave = append(wave, release)
			case <-time.After(2 * time.Second):
				t.Fatalf("expected %d writes in wave, saw %d", want, len(wave))
			}
		}

		// No write of the next batch may be submitted before this batch
		// has fully completed.
		select {
		case <-writer.arrivals:
			t.Fatal("write submitted across an unflushed batch boundary")
		case <-time.After(30 * time.Millisecond):
		}

		for _, release := range wave {
			close(release)
		}
	}

	require.NoError(t, <-done)
	assert.Equal(t, 7, writer.callCount())
}

func TestImportBatch_InterBatchDelay(t *testing.T) {
	const delay = 60 * time.Millisecond

	writer := newFakeWriter()
	importer := NewImporter(writer)

	start := time.Now()
	err := importer.ImportBatch(context.Background(),
		record.NewSliceIterator(documentRecords(7)),
		Options{BatchSize: 3, InterBatchDelay: delay})
	elapsed := time.Since(start)

	require.NoError(t, err)
	// Two full-size flushes pause; the trailing partial flush does not.
	assert.GreaterOrEqual(t, elapsed, 2*delay)
	assert.Less(t, elapsed, 3*delay)
}

func TestImportBatch_NoDelayWhenZero(t *testing.T) {
	writer := newFakeWriter()
	importer := NewImporter(writer)

	start := time.Now()
	err := importer.ImportBatch(context.Background(),
		record.NewSliceIterator(documentRecords(9)),
		Options{BatchSize: 3})

	require.NoError(t, err)
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestImportBatch_CreateConflictsOnReplay(t *testing.T) {
	writer := newFakeWriter()
	importer := NewImporter(writer)
	opts := Options{BatchSize: 2}

	require.NoError(t, importer.ImportBatch(context.Background(),
		record.NewSliceIterator(documentRecords(4)), opts))

	err := importer.ImportBatch(context.Background(),
		record.NewSliceIterator(documentRecords(4)), opts)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConflict))
}

func TestImportBatch_UpsertReplacesOnReplay(t *testing.T) {
	writer := newFakeWriter()
	importer := NewImporter(writer)
	opts := Options{BatchSize: 2, Upsert: true}

	require.NoError(t, importer.ImportBatch(context.Background(),
		record.NewSliceIterator(documentRecords(4)), opts))

	replacement := []*record.Record{
		record.NewDocument(record.Document{"id": "doc-0", "value": "replaced"}),
	}
	require.NoError(t, importer.ImportBatch(context.Background(),
		record.NewSliceIterator(replacement), opts))

	assert.Equal(t, "replaced", writer.store["doc-0"]["value"])
	assert.Len(t, writer.store, 4)
}

func TestImportBatch_RootFieldExtraction(t *testing.T) {
	writer := newFakeWriter()
	importer := NewImporter(writer)

	rows := []*record.Record{
		record.NewRow(map[string]interface{}{
			"payload": `{"id":"doc-a","name":"first"}`,
			"ignored": "other column",
		}),
	}

	err := importer.ImportBatch(context.Background(),
		record.NewSliceIterator(rows),
		Options{BatchSize: 1, RootField: "payload"})

	require.NoError(t, err)
	require.Len(t, writer.docs, 1)
	assert.Equal(t, record.Document{"id": "doc-a", "name": "first"}, writer.docs[0])
}

func TestImportBatch_RowWithoutRootField(t *testing.T) {
	writer := newFakeWriter()
	importer := NewImporter(writer)

	rows := []*record.Record{
		record.NewRow(map[string]interface{}{"id": "doc-b", "count": 3}),
	}

	err := importer.ImportBatch(context.Background(),
		record.NewSliceIterator(rows),
		Options{BatchSize: 1})

	require.NoError(t, err)
	require.Len(t, writer.docs, 1)
	assert.Equal(t, "doc-b", writer.docs[0]["id"])
	// Row went through JSON serialization; numbers come back as float64.
	assert.Equal(t, float64(3), writer.docs[0]["count"])
}

func TestImportBatch_ConversionFailureAborts(t *testing.T) {
	writer := newFakeWriter()
	importer := NewImporter(writer)

	records := []*record.Record{
		record.NewRow(map[string]interface{}{"payload": `{"id":"doc-a"}`}),
		record.NewRow(map[string]interface{}{"other": "no payload here"}),
		record.NewRow(map[string]interface{}{"payload": `{"id":"doc-c"}`}),
	}

	err := importer.ImportBatch(context.Background(),
		record.NewSliceIterator(records),
		Options{BatchSize: 3, RootField: "payload"})

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConversion))
	// The record after the failing one is never submitted.
	assert.Equal(t, 1, writer.callCount())
}

func TestImportBatch_StopsAtFailingBatch(t *testing.T) {
	writer := newFakeWriter()
	writer.failOn = func(doc record.Document) error {
		if doc["id"] == "doc-2" {
			return errors.New(errors.ErrorTypeWrite, "simulated write failure")
		}
		return nil
	}
	importer := NewImporter(writer)

	err := importer.ImportBatch(context.Background(),
		record.NewSliceIterator(documentRecords(8)),
		Options{BatchSize: 2})

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeWrite))
	// Batches after the failing one are never submitted.
	assert.LessOrEqual(t, writer.callCount(), 4)
}

func TestImportBatch_ValidatesOptions(t *testing.T) {
	importer := NewImporter(newFakeWriter())
	iterator := record.NewSliceIterator(documentRecords(1))

	tests := []struct {
		name string
		opts Options
	}{
		{name: "zero batch size", opts: Options{BatchSize: 0}},
		{name: "negative delay", opts: Options{BatchSize: 1, InterBatchDelay: -time.Second}},
		{name: "negative rate limit", opts: Options{BatchSize: 1, RateLimitPerSec: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := importer.ImportBatch(context.Background(), iterator, tt.opts)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
		})
	}
}

func TestImportBatch_RateLimitPacesSubmission(t *testing.T) {
	writer := newFakeWriter()
	importer := NewImporter(writer)

	start := time.Now()
	err := importer.ImportBatch(context.Background(),
		record.NewSliceIterator(documentRecords(6)),
		Options{BatchSize: 2, RateLimitPerSec: 100})

	require.NoError(t, err)
	assert.Equal(t, 6, writer.callCount())
	// Burst consumes the bucket at some point; just assert completion.
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestImportBatch_EmptyIterator(t *testing.T) {
	writer := newFakeWriter()
	importer := NewImporter(writer)

	err := importer.ImportBatch(context.Background(),
		record.NewSliceIterator(nil),
		Options{BatchSize: 5})

	require.NoError(t, err)
	assert.Equal(t, 0, writer.callCount())
}
