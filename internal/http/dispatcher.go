package http

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vedsharma/reqdesk/internal/logger"
	"github.com/vedsharma/reqdesk/internal/model"
)

const (
	contentTypeHeader = "Content-Type"
	jsonContentType   = "application/json"

	networkErrorText = "Network Error"
	errorText        = "Error"
)

// Dispatcher turns a Request into a transport call and normalizes whatever
// comes back into a Response.
type Dispatcher struct {
	transport Transport
	now       func() time.Time
	log       *zap.SugaredLogger
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// WithLogger sets the dispatch logger
func WithLogger(l *zap.SugaredLogger) Option {
	return func(d *Dispatcher) { d.log = logger.OrNop(l) }
}

// NewDispatcher creates a dispatcher over transport
func NewDispatcher(transport Transport, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		transport: transport,
		now:       time.Now,
		log:       logger.OrNop(nil),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Send dispatches req and always returns a Response; failures are reported
// through Response.Error and a zero or server-provided status.
func (d *Dispatcher) Send(ctx context.Context, req model.Request) model.Response {
	start := d.now()

	desc := BuildDescriptor(req)
	d.log.Debugw("dispatching request", "method", desc.Method, "url", desc.URL)

	result, err := d.transport.Do(ctx, desc)
	duration := d.now().Sub(start).Milliseconds()

	if err != nil {
		resp := normalizeFailure(err)
		resp.Duration = duration
		d.log.Warnw("request failed",
			"method", desc.Method, "url", desc.URL, "status", resp.Status, "error", resp.Error)
		return resp
	}

	resp := model.Response{
		Data:       result.Data,
		Status:     result.Status,
		StatusText: result.StatusText,
		Headers:    model.CopyHeaders(result.Headers),
		Duration:   duration,
		Size:       result.Data.SerializedSize(),
	}
	d.log.Debugw("request completed", "status", resp.Status, "duration_ms", duration, "size", resp.Size)
	return resp
}

// BuildDescriptor converts a request into its transport form.
//
// The body is attached only for methods that allow one. A json body that
// parses is sent as JSON and forces Content-Type to application/json; one
// that doesn't parse is sent as the raw string with headers untouched.
func BuildDescriptor(req model.Request) *Descriptor {
	desc := &Descriptor{
		Method:  strings.ToLower(string(req.Method)),
		URL:     req.URL,
		Headers: model.CopyHeaders(req.Headers),
		Timeout: DefaultTimeout,
	}

	if !req.Method.AllowsBody() || req.Body == "" {
		return desc
	}

	if req.BodyKind == model.BodyJSON {
		payload := model.JSONPayload([]byte(req.Body))
		if payload.Kind == model.PayloadJSON {
			desc.Body = &payload
			forceJSONContentType(desc.Headers)
			return desc
		}
	}

	payload := model.TextPayload(req.Body)
	desc.Body = &payload
	return desc
}

// forceJSONContentType replaces any Content-Type, whatever its case, with
// application/json.
func forceJSONContentType(headers map[string]string) {
	for k := range headers {
		if strings.EqualFold(k, contentTypeHeader) {
			delete(headers, k)
		}
	}
	headers[contentTypeHeader] = jsonContentType
}

func normalizeFailure(err error) model.Response {
	message := err.Error()

	var respErr *ResponseError
	if !errors.As(err, &respErr) || respErr.Response == nil {
		return model.Response{
			Data:       model.TextPayload(message),
			Status:     0,
			StatusText: networkErrorText,
			Headers:    map[string]string{},
			Size:       len(message),
			Error:      message,
		}
	}

	embedded := respErr.Response
	data := embedded.Data
	if data.IsEmpty() {
		data = model.TextPayload(message)
	}
	statusText := embedded.StatusText
	if statusText == "" {
		statusText = errorText
	}

	return model.Response{
		Data:       data,
		Status:     embedded.Status,
		StatusText: statusText,
		Headers:    model.CopyHeaders(embedded.Headers),
		Size:       data.SerializedSize(),
		Error:      message,
	}
}
