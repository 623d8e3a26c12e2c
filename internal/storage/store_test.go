package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vedsharma/reqdesk/internal/model"
)

// flakyBlobStore wraps a memory store and fails on demand
type flakyBlobStore struct {
	*MemoryBlobStore
	failGet    bool
	getFails   int
	failSet    bool
	failDelete bool
}

var errInjected = errors.New("quota exceeded")

func (f *flakyBlobStore) Get(key string) (string, bool, error) {
	if f.failGet {
		return "", false, errInjected
	}
	if f.getFails > 0 {
		f.getFails--
		return "", false, errInjected
	}
	return f.MemoryBlobStore.Get(key)
}

func (f *flakyBlobStore) Set(key, value string) error {
	if f.failSet {
		return errInjected
	}
	return f.MemoryBlobStore.Set(key, value)
}

func (f *flakyBlobStore) Delete(key string) error {
	if f.failDelete {
		return errInjected
	}
	return f.MemoryBlobStore.Delete(key)
}

func newTestRequest(id string) model.Request {
	return model.Request{
		ID:        id,
		Name:      "req " + id,
		Method:    model.MethodPost,
		URL:       "https://example.com/" + id,
		Headers:   map[string]string{"X-Id": id},
		Body:      `{"id":"` + id + `"}`,
		BodyKind:  model.BodyJSON,
		Timestamp: 1700000000000,
	}
}

func newTestEntry(i int) model.HistoryEntry {
	id := fmt.Sprintf("h%03d", i)
	return model.HistoryEntry{
		ID:      id,
		Request: newTestRequest(id),
		Response: model.Response{
			Data:       model.TextPayload("ok"),
			Status:     200,
			StatusText: "OK",
			Headers:    map[string]string{},
			Duration:   int64(i),
			Size:       4,
		},
		Timestamp: int64(i),
	}
}

func TestSaveRequestRoundTrip(t *testing.T) {
	store := NewStore(NewMemoryBlobStore(), nil)

	req := newTestRequest("a")
	store.SaveRequest(req)

	got := store.SavedRequests()
	require.Len(t, got, 1)
	assert.Equal(t, req, got[0])
}

func TestSaveRequestUpsertsByID(t *testing.T) {
	store := NewStore(NewMemoryBlobStore(), nil)

	store.SaveRequest(newTestRequest("a"))
	store.SaveRequest(newTestRequest("b"))
	store.SaveRequest(newTestRequest("c"))

	updated := newTestRequest("b")
	updated.Name = "renamed"
	store.SaveRequest(updated)

	got := store.SavedRequests()
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, "renamed", got[1].Name)

	store.SaveRequest(newTestRequest("d"))
	got = store.SavedRequests()
	require.Len(t, got, 4)
	assert.Equal(t, "d", got[3].ID)
}

func TestDeleteRequest(t *testing.T) {
	store := NewStore(NewMemoryBlobStore(), nil)
	store.SaveRequest(newTestRequest("a"))
	store.SaveRequest(newTestRequest("b"))

	store.DeleteRequest("a")
	store.DeleteRequest("missing")

	got := store.SavedRequests()
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)

	_, ok := store.SavedRequest("a")
	assert.False(t, ok)
	r, ok := store.SavedRequest("b")
	assert.True(t, ok)
	assert.Equal(t, "b", r.ID)
}

func TestAppendHistoryKeepsNewestHundred(t *testing.T) {
	store := NewStore(NewMemoryBlobStore(), nil)

	for i := 1; i <= 105; i++ {
		store.AppendHistory(newTestEntry(i))
	}

	got := store.History()
	require.Len(t, got, HistoryLimit)
	assert.Equal(t, "h105", got[0].ID)
	assert.Equal(t, "h006", got[99].ID)
	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i-1].Timestamp, got[i].Timestamp)
	}
}

func TestHistoryEntryRoundTrip(t *testing.T) {
	store := NewStore(NewMemoryBlobStore(), nil)
	entry := newTestEntry(1)
	entry.Response.Data = model.JSONPayload([]byte(`{"a":[1,2]}`))

	store.AppendHistory(entry)

	got, ok := store.HistoryEntry(entry.ID)
	require.True(t, ok)
	assert.Equal(t, entry, got)
}

func TestClearHistory(t *testing.T) {
	blobs := NewMemoryBlobStore()
	store := NewStore(blobs, nil)
	store.AppendHistory(newTestEntry(1))
	store.AppendHistory(newTestEntry(2))

	store.ClearHistory()

	assert.Empty(t, store.History())
	assert.NotNil(t, store.History())
	_, ok, _ := blobs.Get(KeyHistory)
	assert.False(t, ok, "history key should be removed, not overwritten")
}

func TestEnvironmentsReplaceAll(t *testing.T) {
	store := NewStore(NewMemoryBlobStore(), nil)

	store.ReplaceEnvironments([]model.Environment{
		{ID: "e1", Name: "dev", Variables: map[string]string{"host": "localhost"}},
		{ID: "e2", Name: "prod", Variables: map[string]string{"host": "example.com"}},
	})
	store.ReplaceEnvironments([]model.Environment{
		{ID: "e3", Name: "stage", Variables: map[string]string{}},
	})

	got := store.Environments()
	require.Len(t, got, 1)
	assert.Equal(t, "e3", got[0].ID)

	store.ReplaceEnvironments(nil)
	assert.Empty(t, store.Environments())
}

func TestActiveEnvironment(t *testing.T) {
	blobs := NewMemoryBlobStore()
	store := NewStore(blobs, nil)

	_, ok := store.ActiveEnvironment()
	assert.False(t, ok)

	// dangling pointers are allowed
	store.SetActiveEnvironment("nope")
	id, ok := store.ActiveEnvironment()
	assert.True(t, ok)
	assert.Equal(t, "nope", id)

	store.SetActiveEnvironment("")
	_, ok = store.ActiveEnvironment()
	assert.False(t, ok)
	_, present, _ := blobs.Get(KeyActiveEnv)
	assert.False(t, present)
}

func TestCorruptBlobReadsAsEmpty(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	blobs := NewMemoryBlobStore()
	store := NewStore(blobs, zap.New(core).Sugar())

	require.NoError(t, blobs.Set(KeyRequests, "{not json"))
	require.NoError(t, blobs.Set(KeyHistory, "null"))

	assert.Empty(t, store.SavedRequests())
	assert.NotNil(t, store.History())
	assert.Empty(t, store.History())
	assert.Equal(t, 1, logs.FilterMessage("failed to decode").Len())
	assert.Equal(t, 0, logs.FilterLevelExact(zapcore.ErrorLevel).Len())

	store.SaveRequest(newTestRequest("fresh"))
	require.Len(t, store.SavedRequests(), 1)
	assert.Equal(t, "fresh", store.SavedRequests()[0].ID)
}

func TestFailedReadDoesNotOverwrite(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	blobs := &flakyBlobStore{MemoryBlobStore: NewMemoryBlobStore()}
	store := NewStore(blobs, zap.New(core).Sugar())

	for i := 1; i <= 50; i++ {
		store.AppendHistory(newTestEntry(i))
	}
	store.SaveRequest(newTestRequest("a"))
	store.SaveRequest(newTestRequest("b"))

	blobs.getFails = 1
	store.AppendHistory(newTestEntry(51))
	blobs.getFails = 1
	store.SaveRequest(newTestRequest("c"))
	blobs.getFails = 1
	store.DeleteRequest("a")

	history := store.History()
	require.Len(t, history, 50)
	assert.Equal(t, "h050", history[0].ID)

	saved := store.SavedRequests()
	require.Len(t, saved, 2)
	assert.Equal(t, "a", saved[0].ID)
	assert.Equal(t, "b", saved[1].ID)

	assert.Equal(t, 3, logs.FilterMessage("failed to load").Len())
	assert.Equal(t, 3, logs.FilterMessageSnippet("after failed read").Len())

	store.AppendHistory(newTestEntry(51))
	assert.Len(t, store.History(), 51)
}

func TestFailedWriteKeepsPriorState(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	blobs := &flakyBlobStore{MemoryBlobStore: NewMemoryBlobStore()}
	store := NewStore(blobs, zap.New(core).Sugar())

	store.SaveRequest(newTestRequest("a"))
	store.AppendHistory(newTestEntry(1))

	blobs.failSet = true
	blobs.failDelete = true
	assert.NotPanics(t, func() {
		store.SaveRequest(newTestRequest("b"))
		store.AppendHistory(newTestEntry(2))
		store.ClearHistory()
		store.SetActiveEnvironment("e1")
		store.ReplaceEnvironments([]model.Environment{{ID: "e1"}})
	})

	blobs.failSet = false
	blobs.failDelete = false
	require.Len(t, store.SavedRequests(), 1)
	require.Len(t, store.History(), 1)
	assert.Equal(t, "h001", store.History()[0].ID)
	assert.Empty(t, store.Environments())
	assert.Equal(t, 5, logs.Len())
}

func TestFailedReadReturnsEmpty(t *testing.T) {
	blobs := &flakyBlobStore{MemoryBlobStore: NewMemoryBlobStore()}
	store := NewStore(blobs, nil)
	store.SaveRequest(newTestRequest("a"))
	store.SetActiveEnvironment("e1")

	blobs.failGet = true
	assert.Empty(t, store.SavedRequests())
	assert.Empty(t, store.History())
	assert.Empty(t, store.Environments())
	_, ok := store.ActiveEnvironment()
	assert.False(t, ok)
}

func TestMissingFieldsAreTolerated(t *testing.T) {
	blobs := NewMemoryBlobStore()
	store := NewStore(blobs, nil)
	require.NoError(t, blobs.Set(KeyRequests, `[{"id":"old","method":"GET","url":"http://x"}]`))

	got := store.SavedRequests()
	require.Len(t, got, 1)
	assert.Equal(t, "old", got[0].ID)
	assert.Empty(t, got[0].Body)
	assert.Nil(t, got[0].Headers)
}
