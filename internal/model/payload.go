package model

import (
	"bytes"
	"encoding/json"
	"unicode/utf8"
)

// PayloadKind tags which field of a Payload carries the data
type PayloadKind string

const (
	PayloadJSON   PayloadKind = "json"
	PayloadText   PayloadKind = "text"
	PayloadBinary PayloadKind = "binary"
)

// Payload is a request or response body: JSON, text or binary.
// Exactly one of JSON, Text or Binary is meaningful, selected by Kind.
type Payload struct {
	Kind   PayloadKind     `json:"kind"`
	JSON   json.RawMessage `json:"json,omitempty"`
	Text   string          `json:"text,omitempty"`
	Binary []byte          `json:"binary,omitempty"`
}

// JSONPayload wraps a JSON document, stored compacted.
// Invalid JSON is kept as text.
func JSONPayload(raw []byte) Payload {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return TextPayload(string(raw))
	}
	return Payload{Kind: PayloadJSON, JSON: json.RawMessage(buf.Bytes())}
}

// TextPayload wraps a plain string
func TextPayload(s string) Payload {
	return Payload{Kind: PayloadText, Text: s}
}

// BinaryPayload wraps raw bytes
func BinaryPayload(b []byte) Payload {
	return Payload{Kind: PayloadBinary, Binary: append([]byte(nil), b...)}
}

// SniffPayload classifies a response body: valid JSON first, then UTF-8
// text, otherwise binary.
func SniffPayload(body []byte) Payload {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && json.Valid(trimmed) {
		return JSONPayload(trimmed)
	}
	if utf8.Valid(body) {
		return TextPayload(string(body))
	}
	return BinaryPayload(body)
}

// IsEmpty reports whether the payload carries nothing worth showing
func (p Payload) IsEmpty() bool {
	switch p.Kind {
	case PayloadJSON:
		return len(p.JSON) == 0
	case PayloadText:
		return p.Text == ""
	case PayloadBinary:
		return len(p.Binary) == 0
	default:
		return true
	}
}

// Bytes returns the payload as it goes over the wire
func (p Payload) Bytes() []byte {
	switch p.Kind {
	case PayloadJSON:
		return []byte(p.JSON)
	case PayloadText:
		return []byte(p.Text)
	case PayloadBinary:
		return p.Binary
	default:
		return nil
	}
}

// SerializedSize is the length of the JSON-serialized payload: the document
// itself for JSON, the quoted string for text and the raw byte count for
// binary.
func (p Payload) SerializedSize() int {
	switch p.Kind {
	case PayloadJSON:
		return len(p.JSON)
	case PayloadText:
		return len(quoteJSON(p.Text))
	case PayloadBinary:
		return len(p.Binary)
	default:
		return 0
	}
}

func quoteJSON(s string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return []byte(s)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
}
