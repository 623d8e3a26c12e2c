package storage

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/vedsharma/reqdesk/internal/logger"
	"github.com/vedsharma/reqdesk/internal/model"
)

// Keys of the four collections inside the blob store
const (
	KeyRequests     = "http-client-requests"
	KeyHistory      = "http-client-history"
	KeyEnvironments = "http-client-environments"
	KeyActiveEnv    = "http-client-active-env"
)

// HistoryLimit is how many dispatches the history keeps
const HistoryLimit = 100

// Store persists saved requests, history and environments in a BlobStore.
//
// Every method is best-effort: failures are logged and swallowed. A failed
// read behaves like an empty collection, and an update whose read failed is
// dropped so the stored value survives. A failed write leaves the previously
// persisted value in place.
type Store struct {
	blobs BlobStore
	log   *zap.SugaredLogger
}

// NewStore wraps a blob store. A nil log discards diagnostics.
func NewStore(blobs BlobStore, log *zap.SugaredLogger) *Store {
	return &Store{blobs: blobs, log: logger.OrNop(log)}
}

// Close closes the underlying blob store
func (s *Store) Close() error {
	return s.blobs.Close()
}

// =============================================================================
// Saved Requests
// =============================================================================

// SavedRequests returns the saved requests in stored order
func (s *Store) SavedRequests() []model.Request {
	requests, _ := s.savedRequests()
	return requests
}

// savedRequests also reports whether the backend could be read at all
func (s *Store) savedRequests() ([]model.Request, bool) {
	var requests []model.Request
	res := s.load(KeyRequests, &requests)
	if res != loadDecoded || requests == nil {
		return []model.Request{}, res != loadFailed
	}
	return requests, true
}

// SavedRequest looks a saved request up by id
func (s *Store) SavedRequest(id string) (model.Request, bool) {
	for _, r := range s.SavedRequests() {
		if r.ID == id {
			return r, true
		}
	}
	return model.Request{}, false
}

// SaveRequest replaces the saved request with the same id in place, or
// appends it when the id is new.
func (s *Store) SaveRequest(req model.Request) {
	requests, readable := s.savedRequests()
	if !readable {
		s.log.Warnw("skipping save request after failed read", "key", KeyRequests, "id", req.ID)
		return
	}

	replaced := false
	for i := range requests {
		if requests[i].ID == req.ID {
			requests[i] = req
			replaced = true
			break
		}
	}
	if !replaced {
		requests = append(requests, req)
	}

	s.persist(KeyRequests, requests, "save request")
}

// DeleteRequest removes the saved request with the given id
func (s *Store) DeleteRequest(id string) {
	requests, readable := s.savedRequests()
	if !readable {
		s.log.Warnw("skipping delete request after failed read", "key", KeyRequests, "id", id)
		return
	}
	filtered := requests[:0]
	for _, r := range requests {
		if r.ID != id {
			filtered = append(filtered, r)
		}
	}
	s.persist(KeyRequests, filtered, "delete request")
}

// =============================================================================
// History
// =============================================================================

// History returns the recorded dispatches, most recent first
func (s *Store) History() []model.HistoryEntry {
	entries, _ := s.history()
	return entries
}

func (s *Store) history() ([]model.HistoryEntry, bool) {
	var entries []model.HistoryEntry
	res := s.load(KeyHistory, &entries)
	if res != loadDecoded || entries == nil {
		return []model.HistoryEntry{}, res != loadFailed
	}
	return entries, true
}

// HistoryEntry looks a history entry up by id
func (s *Store) HistoryEntry(id string) (model.HistoryEntry, bool) {
	for _, e := range s.History() {
		if e.ID == id {
			return e, true
		}
	}
	return model.HistoryEntry{}, false
}

// AppendHistory prepends entry and keeps only the newest HistoryLimit entries
func (s *Store) AppendHistory(entry model.HistoryEntry) {
	existing, readable := s.history()
	if !readable {
		s.log.Warnw("skipping save history after failed read", "key", KeyHistory, "id", entry.ID)
		return
	}
	entries := append([]model.HistoryEntry{entry}, existing...)
	if len(entries) > HistoryLimit {
		entries = entries[:HistoryLimit]
	}
	s.persist(KeyHistory, entries, "save history")
}

// ClearHistory removes every history entry
func (s *Store) ClearHistory() {
	if err := s.blobs.Delete(KeyHistory); err != nil {
		s.log.Errorw("failed to clear history", "key", KeyHistory, "error", err)
	}
}

// =============================================================================
// Environments
// =============================================================================

// Environments returns every stored environment
func (s *Store) Environments() []model.Environment {
	var envs []model.Environment
	if s.load(KeyEnvironments, &envs) != loadDecoded || envs == nil {
		return []model.Environment{}
	}
	return envs
}

// ReplaceEnvironments overwrites the whole environment list
func (s *Store) ReplaceEnvironments(envs []model.Environment) {
	if envs == nil {
		envs = []model.Environment{}
	}
	s.persist(KeyEnvironments, envs, "save environments")
}

// ActiveEnvironment returns the active environment id. The id is not
// checked against the stored environments.
func (s *Store) ActiveEnvironment() (string, bool) {
	id, ok, err := s.blobs.Get(KeyActiveEnv)
	if err != nil {
		s.log.Errorw("failed to get active environment", "key", KeyActiveEnv, "error", err)
		return "", false
	}
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// SetActiveEnvironment stores id as the active environment; an empty id
// removes the pointer.
func (s *Store) SetActiveEnvironment(id string) {
	var err error
	if id == "" {
		err = s.blobs.Delete(KeyActiveEnv)
	} else {
		err = s.blobs.Set(KeyActiveEnv, id)
	}
	if err != nil {
		s.log.Errorw("failed to set active environment", "key", KeyActiveEnv, "error", err)
	}
}

// =============================================================================
// helpers
// =============================================================================

// loadResult is the outcome of reading one collection
type loadResult int

const (
	// loadAbsent covers a missing key and a blob that does not decode; both
	// read as empty and may be overwritten.
	loadAbsent loadResult = iota
	loadDecoded
	// loadFailed means the backend itself errored; the stored value is
	// unknown and must not be overwritten.
	loadFailed
)

// load decodes the JSON blob under key into out
func (s *Store) load(key string, out any) loadResult {
	raw, ok, err := s.blobs.Get(key)
	if err != nil {
		s.log.Errorw("failed to load", "key", key, "error", err)
		return loadFailed
	}
	if !ok || raw == "" {
		return loadAbsent
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		s.log.Warnw("failed to decode", "key", key, "error", err)
		return loadAbsent
	}
	return loadDecoded
}

func (s *Store) persist(key string, value any, op string) {
	data, err := json.Marshal(value)
	if err != nil {
		s.log.Errorw("failed to "+op, "key", key, "error", err)
		return
	}
	if err := s.blobs.Set(key, string(data)); err != nil {
		s.log.Errorw("failed to "+op, "key", key, "error", err)
		return
	}
	s.log.Debugw(op, "key", key, "bytes", len(data))
}
