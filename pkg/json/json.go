// Package json provides high-performance JSON serialization for docsink.
// It wraps goccy/go-json behind a small surface so the serialization
// library can be swapped without touching callers.
package json

import (
	"bytes"
	"io"

	gojson "github.com/goccy/go-json"
)

// Marshal serializes a value to JSON
func Marshal(v interface{}) ([]byte, error) {
	return gojson.Marshal(v)
}

// MarshalToString serializes a value to a JSON string
func MarshalToString(v interface{}) (string, error) {
	data, err := gojson.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Unmarshal deserializes JSON data into a value
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// MarshalToWriter serializes a value directly to a writer without HTML escaping
func MarshalToWriter(w io.Writer, v interface{}) error {
	enc := gojson.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// NewDecoder returns a streaming decoder for the reader
func NewDecoder(r io.Reader) *gojson.Decoder {
	return gojson.NewDecoder(r)
}

// Valid reports whether data is syntactically valid JSON
func Valid(data []byte) bool {
	return gojson.Valid(bytes.TrimSpace(data))
}
