package model

import (
	"bytes"
	"encoding/json"
	"io"

	jsoniter "github.com/json-iterator/go"
)

// jsonAPI sorts map keys and keeps numbers verbatim, so that the same content is always rendered
// with the same bytes.
var jsonAPI = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	UseNumber:              true,
	ValidateJsonRawMessage: true,
}.Froze()

// Document is the opaque content of a flow version (a versioned flow snapshot)
type Document map[string]interface{}

// DecodeDocument reads a JSON object
func DecodeDocument(r io.Reader) (Document, error) {
	var doc Document
	if err := jsonAPI.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// UnmarshalDocument parses a JSON object
func UnmarshalDocument(data []byte) (Document, error) {
	return DecodeDocument(bytes.NewReader(data))
}

// Format renders the document as indented JSON, with sorted keys
func (d Document) Format() ([]byte, error) {
	return marshalIndent(d)
}

// marshalIndent encodes compactly then indents: jsoniter does not indent nested maps properly
// when sorting keys.
func marshalIndent(v interface{}) ([]byte, error) {
	compact, err := jsonAPI.Marshal(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
