package http

import (
	"context"
	"time"

	"github.com/vedsharma/reqdesk/internal/model"
)

// Descriptor is the transport-level form of a request
type Descriptor struct {
	// Method is lower-cased, e.g. "post"
	Method  string
	URL     string
	Headers map[string]string
	// Body is nil when nothing is sent
	Body    *model.Payload
	Timeout time.Duration
}

// Result is what the transport got back from the server
type Result struct {
	Data       model.Payload
	Status     int
	StatusText string
	Headers    map[string]string
}

// Transport performs the network call for a descriptor.
//
// Any HTTP answer the transport accepts is returned as a Result. Failures
// are returned as errors; a *ResponseError carries the server's answer when
// there was one.
type Transport interface {
	Do(ctx context.Context, d *Descriptor) (*Result, error)
}

// TransportFunc adapts a function to the Transport interface
type TransportFunc func(ctx context.Context, d *Descriptor) (*Result, error)

func (f TransportFunc) Do(ctx context.Context, d *Descriptor) (*Result, error) {
	return f(ctx, d)
}

// ResponseError is a failed call for which the server did respond, e.g. a
// non-2xx status under strict status checking.
type ResponseError struct {
	Message  string
	Response *Result
}

func (e *ResponseError) Error() string {
	return e.Message
}
