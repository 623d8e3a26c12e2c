package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	httpclient "github.com/vedsharma/reqdesk/internal/http"
	"github.com/vedsharma/reqdesk/internal/logger"
	"github.com/vedsharma/reqdesk/internal/model"
	"github.com/vedsharma/reqdesk/internal/storage"
)

var (
	// ErrEmptyURL is returned when a request without a URL is sent
	ErrEmptyURL = errors.New("request URL is empty")
	// ErrNotFound is returned when a saved request or history entry is missing
	ErrNotFound = errors.New("not found")
)

// Options controls what a Session records
type Options struct {
	// RecordHistory appends every dispatch to history
	RecordHistory bool
	// RedactHistory masks sensitive header values in history snapshots
	RedactHistory bool
}

// Session ties the dispatcher to the local store: every send is recorded
// in history.
type Session struct {
	dispatcher *httpclient.Dispatcher
	store      *storage.Store
	opts       Options
	log        *zap.SugaredLogger
}

// NewSession creates a session
func NewSession(dispatcher *httpclient.Dispatcher, store *storage.Store, opts Options, log *zap.SugaredLogger) *Session {
	return &Session{dispatcher: dispatcher, store: store, opts: opts, log: logger.OrNop(log)}
}

// Store returns the session's local store
func (s *Session) Store() *storage.Store {
	return s.store
}

// WithoutHistory returns a session over the same dispatcher and store that
// records nothing
func (s *Session) WithoutHistory() *Session {
	c := *s
	c.opts.RecordHistory = false
	return &c
}

// Send dispatches req and returns the resulting history entry. The entry is
// persisted unless history recording is off; redaction applies to the
// persisted copy only. Only a blank URL is an error; transport failures live
// in the entry's Response.
func (s *Session) Send(ctx context.Context, req model.Request) (model.HistoryEntry, error) {
	if strings.TrimSpace(req.URL) == "" {
		return model.HistoryEntry{}, ErrEmptyURL
	}

	resp := s.dispatcher.Send(ctx, req)

	entry := model.HistoryEntry{
		ID:        model.NewID(),
		Request:   req.Clone(),
		Response:  resp,
		Timestamp: model.NowMillis(),
	}

	if s.opts.RecordHistory {
		s.store.AppendHistory(s.historyCopy(entry))
		s.log.Debugw("recorded history entry", "id", entry.ID, "status", resp.Status)
	}
	return entry, nil
}

// historyCopy returns the entry as it is stored, with sensitive headers
// masked when redaction is on
func (s *Session) historyCopy(entry model.HistoryEntry) model.HistoryEntry {
	if !s.opts.RedactHistory {
		return entry
	}
	entry.Request.Headers = FilterSensitiveHeaders(entry.Request.Headers)
	entry.Response.Headers = FilterSensitiveHeaders(entry.Response.Headers)
	return entry
}

// SendSaved dispatches a saved request found by index, id or name
func (s *Session) SendSaved(ctx context.Context, ref string) (model.HistoryEntry, error) {
	req, err := s.FindSaved(ref)
	if err != nil {
		return model.HistoryEntry{}, err
	}
	return s.Send(ctx, req)
}

// Replay sends the request of a history entry again
func (s *Session) Replay(ctx context.Context, ref string) (model.HistoryEntry, error) {
	entry, err := s.FindHistory(ref)
	if err != nil {
		return model.HistoryEntry{}, err
	}
	return s.Send(ctx, entry.Request)
}

// FindHistory resolves a 1-based index or an entry id
func (s *Session) FindHistory(ref string) (model.HistoryEntry, error) {
	history := s.store.History()

	if index, err := strconv.Atoi(ref); err == nil {
		if index > 0 && index <= len(history) {
			return history[index-1], nil
		}
	}

	if e, ok := s.store.HistoryEntry(ref); ok {
		return e, nil
	}
	return model.HistoryEntry{}, fmt.Errorf("history entry %s: %w", ref, ErrNotFound)
}

// FindSaved resolves a 1-based index, an id or a name among saved requests
func (s *Session) FindSaved(ref string) (model.Request, error) {
	saved := s.store.SavedRequests()

	if index, err := strconv.Atoi(ref); err == nil {
		if index > 0 && index <= len(saved) {
			return saved[index-1], nil
		}
	}

	if r, ok := s.store.SavedRequest(ref); ok {
		return r, nil
	}
	for _, r := range saved {
		if r.Name == ref {
			return r, nil
		}
	}
	return model.Request{}, fmt.Errorf("saved request %s: %w", ref, ErrNotFound)
}
