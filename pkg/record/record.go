// Package record defines the input record shapes accepted by the write
// pipeline and their conversion into wire-level documents.
//
// A record is one of three closed variants: an already document-shaped
// value, a tabular row, or an opaque value. Conversion to a Document is a
// single exhaustive dispatch over the variant; there is no runtime type
// inspection beyond the tag.
package record

import (
	"fmt"

	"github.com/vortexlabs/docsink/pkg/errors"
	"github.com/vortexlabs/docsink/pkg/json"
)

// Document is the wire-level JSON representation of one record as stored
// in the remote database.
type Document map[string]interface{}

// Kind tags the variant held by a Record
type Kind int

const (
	// KindDocument is a value that is already document-shaped
	KindDocument Kind = iota
	// KindRow is a tabular row of named fields
	KindRow
	// KindOpaque is any other value, converted via its string representation
	KindOpaque
)

// String returns the variant name
func (k Kind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindRow:
		return "row"
	case KindOpaque:
		return "opaque"
	default:
		return "unknown"
	}
}

// Record is a single input to the write pipeline. Exactly one variant is
// populated, selected by the kind tag.
type Record struct {
	kind     Kind
	document Document
	row      map[string]interface{}
	opaque   interface{}
}

// NewDocument wraps an already document-shaped value
func NewDocument(doc Document) *Record {
	return &Record{kind: KindDocument, document: doc}
}

// NewRow wraps a tabular row of named fields
func NewRow(fields map[string]interface{}) *Record {
	return &Record{kind: KindRow, row: fields}
}

// NewOpaque wraps any other value
func NewOpaque(value interface{}) *Record {
	return &Record{kind: KindOpaque, opaque: value}
}

// Kind returns the variant tag
func (r *Record) Kind() Kind {
	return r.kind
}

// Row returns the row fields; nil unless Kind is KindRow
func (r *Record) Row() map[string]interface{} {
	return r.row
}

// ToDocument converts the record into a wire document.
//
// Dispatch rules:
//   - a document value is used directly;
//   - a row with rootField set contributes only that field's string
//     content, parsed as the document body;
//   - a row without rootField is serialized whole to a JSON object;
//   - an opaque value contributes its string representation as the body.
//
// Conversion happens synchronously before submission; any failure here is
// fatal for the record and aborts the surrounding import.
func (r *Record) ToDocument(rootField string) (Document, error) {
	switch r.kind {
	case KindDocument:
		return r.document, nil

	case KindRow:
		if rootField != "" {
			raw, ok := r.row[rootField]
			if !ok {
				return nil, errors.New(errors.ErrorTypeConversion,
					"root field not present in row").WithDetail("root_field", rootField)
			}
			return parseBody(stringContent(raw))
		}
		data, err := json.Marshal(r.row)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConversion, "failed to serialize row")
		}
		var doc Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConversion, "failed to parse serialized row")
		}
		return doc, nil

	case KindOpaque:
		return parseBody(stringContent(r.opaque))

	default:
		return nil, errors.New(errors.ErrorTypeConversion,
			fmt.Sprintf("unsupported record kind %d", r.kind))
	}
}

// stringContent renders a field value as its string content
func stringContent(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// parseBody parses a JSON object body into a Document
func parseBody(body string) (Document, error) {
	var doc Document
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConversion,
			"document body is not a JSON object")
	}
	return doc, nil
}
