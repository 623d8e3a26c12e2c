package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/vedsharma/reqdesk/internal/logger"
	"github.com/vedsharma/reqdesk/internal/model"
)

const (
	// MaxResponseSize limits response body to 50MB to prevent memory exhaustion
	MaxResponseSize = 50 * 1024 * 1024

	// DefaultTimeout bounds every dispatch
	DefaultTimeout = 30 * time.Second
)

// ClientOptions configures a RestyTransport
type ClientOptions struct {
	// StrictStatus reports non-2xx answers as *ResponseError
	StrictStatus bool
	// MaxResponseSize caps response bodies; zero means MaxResponseSize
	MaxResponseSize int64
	Logger          *zap.SugaredLogger
}

// RestyTransport executes descriptors with a resty client
type RestyTransport struct {
	client *resty.Client
	strict bool
	limit  int64
	log    *zap.SugaredLogger
}

// NewClient creates a resty-backed transport
func NewClient(opts ClientOptions) *RestyTransport {
	limit := opts.MaxResponseSize
	if limit <= 0 {
		limit = MaxResponseSize
	}
	log := logger.OrNop(opts.Logger)

	c := resty.New()
	c.SetTimeout(DefaultTimeout)
	c.SetLogger(log)

	return &RestyTransport{client: c, strict: opts.StrictStatus, limit: limit, log: log}
}

// Do executes the descriptor and converts the answer into a Result
func (t *RestyTransport) Do(ctx context.Context, d *Descriptor) (*Result, error) {
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	// The body is read here so it can be capped
	req := t.client.R().SetContext(ctx).SetDoNotParseResponse(true)
	if len(d.Headers) > 0 {
		req.SetHeaders(d.Headers)
	}
	if d.Body != nil {
		req.SetBody(d.Body.Bytes())
	}

	resp, err := req.Execute(strings.ToUpper(d.Method), d.URL)
	if err != nil {
		return nil, transportError(err, d.Timeout)
	}

	body, err := t.readBody(resp)
	if err != nil {
		return nil, transportError(err, d.Timeout)
	}

	result := &Result{
		Data:       model.SniffPayload(body),
		Status:     resp.StatusCode(),
		StatusText: statusText(resp),
		Headers:    flattenHeaders(resp.Header()),
	}

	if t.strict && (result.Status < 200 || result.Status >= 300) {
		return nil, &ResponseError{
			Message:  fmt.Sprintf("Request failed with status code %d", result.Status),
			Response: result,
		}
	}
	return result, nil
}

// readBody reads the raw body with a size limit to prevent memory exhaustion
func (t *RestyTransport) readBody(resp *resty.Response) ([]byte, error) {
	raw := resp.RawBody()
	if raw == nil {
		return nil, nil
	}
	defer raw.Close()

	body, err := io.ReadAll(io.LimitReader(raw, t.limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > t.limit {
		t.log.Warnw("response body truncated", "limit", t.limit)
		body = body[:t.limit]
	}
	return body, nil
}

// transportError rewrites deadline errors into a readable message
func transportError(err error, timeout time.Duration) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("timeout of %dms exceeded", timeout.Milliseconds())
	}
	return err
}

// statusText strips the numeric code from "404 Not Found"
func statusText(resp *resty.Response) string {
	code := resp.StatusCode()
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status(), strconv.Itoa(code)))
	if text == "" {
		text = http.StatusText(code)
	}
	return text
}

// flattenHeaders joins repeated header values with ", "
func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if values := h[k]; len(values) > 0 {
			out[k] = strings.Join(values, ", ")
		}
	}
	return out
}
