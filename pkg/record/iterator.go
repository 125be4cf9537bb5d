package record

// Iterator is a lazy, finite, single-pass sequence of input records.
// Usage follows the bufio.Scanner pattern:
//
//	for it.Next() {
//	    rec := it.Record()
//	    ...
//	}
//	if err := it.Err(); err != nil {
//	    ...
//	}
type Iterator interface {
	// Next advances to the next record, returning false at end of input
	// or on error.
	Next() bool
	// Record returns the current record. Only valid after Next returns true.
	Record() *Record
	// Err returns the first error encountered while iterating, if any.
	Err() error
}

// SliceIterator iterates over an in-memory slice of records.
type SliceIterator struct {
	records []*Record
	index   int
}

// NewSliceIterator returns an iterator over records
func NewSliceIterator(records []*Record) *SliceIterator {
	return &SliceIterator{records: records, index: -1}
}

// Next advances the iterator
func (it *SliceIterator) Next() bool {
	if it.index+1 >= len(it.records) {
		return false
	}
	it.index++
	return true
}

// Record returns the current record
func (it *SliceIterator) Record() *Record {
	return it.records[it.index]
}

// Err always returns nil for slice-backed iteration
func (it *SliceIterator) Err() error {
	return nil
}
