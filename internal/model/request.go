package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Method is an HTTP method the client can dispatch
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
)

// Methods lists every supported method in display order
var Methods = []Method{MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch, MethodHead, MethodOptions}

// ParseMethod converts a method name (any case) into a Method
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Methods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unsupported method: %q", s)
}

// AllowsBody reports whether a body is sent for this method.
// GET and HEAD never carry one.
func (m Method) AllowsBody() bool {
	return m != MethodGet && m != MethodHead
}

// BodyKind selects how a request body string is encoded before transport
type BodyKind string

const (
	BodyNone     BodyKind = "none"
	BodyJSON     BodyKind = "json"
	BodyText     BodyKind = "text"
	BodyFormData BodyKind = "form-data"
)

// ParseBodyKind validates a body kind name
func ParseBodyKind(s string) (BodyKind, error) {
	switch k := BodyKind(strings.ToLower(strings.TrimSpace(s))); k {
	case BodyNone, BodyJSON, BodyText, BodyFormData:
		return k, nil
	case "":
		return BodyNone, nil
	default:
		return "", fmt.Errorf("unsupported body kind: %q", s)
	}
}

// Request represents a user-authored HTTP request
type Request struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Method    Method            `json:"method"`
	URL       string            `json:"url"`
	Headers   map[string]string `json:"headers"`
	Body      string            `json:"body,omitempty"`
	BodyKind  BodyKind          `json:"bodyType"`
	Timestamp int64             `json:"timestamp"`
}

// NewRequest returns a blank request the way a fresh editor tab starts out
func NewRequest() Request {
	return Request{
		ID:        NewID(),
		Name:      "Untitled Request",
		Method:    MethodGet,
		Headers:   map[string]string{},
		BodyKind:  BodyNone,
		Timestamp: NowMillis(),
	}
}

// Clone returns a copy of the request that shares no maps with r
func (r Request) Clone() Request {
	c := r
	c.Headers = CopyHeaders(r.Headers)
	return c
}

// DisplayName returns the request name, falling back to "METHOD URL"
func (r Request) DisplayName() string {
	if strings.TrimSpace(r.Name) != "" {
		return r.Name
	}
	return fmt.Sprintf("%s %s", r.Method, r.URL)
}

// Response is the normalized outcome of a dispatch.
// Status 0 means the call failed before any HTTP answer arrived.
type Response struct {
	Data       Payload           `json:"data"`
	Status     int               `json:"status"`
	StatusText string            `json:"statusText"`
	Headers    map[string]string `json:"headers"`
	Duration   int64             `json:"duration"`
	Size       int               `json:"size"`
	Error      string            `json:"error,omitempty"`
}

// Failed reports whether the dispatch ended in an error
func (r Response) Failed() bool {
	return r.Error != ""
}

// HistoryEntry is an immutable record of one completed dispatch
type HistoryEntry struct {
	ID        string   `json:"id"`
	Request   Request  `json:"request"`
	Response  Response `json:"response"`
	Timestamp int64    `json:"timestamp"`
}

// Environment is a named set of variables. Nothing substitutes them into
// requests yet.
type Environment struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Variables map[string]string `json:"variables"`
}

// NewID returns an opaque unique identifier
func NewID() string {
	return uuid.NewString()
}

// NowMillis returns the current time as epoch milliseconds
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// CopyHeaders returns a shallow copy of a header map, never nil
func CopyHeaders(h map[string]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
