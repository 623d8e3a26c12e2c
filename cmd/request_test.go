package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedsharma/reqdesk/internal/app"
	"github.com/vedsharma/reqdesk/internal/model"
)

func resetRequestFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		headers, data, bodyKind, requestName = nil, "", "", ""
	})
}

func TestParseHeaders(t *testing.T) {
	got := parseHeaders([]string{"Accept: application/json", "X-Url: http://a:b", "broken", " X-Trim :  v "})
	assert.Equal(t, map[string]string{
		"Accept": "application/json",
		"X-Url":  "http://a:b",
		"X-Trim": "v",
	}, got)
}

func TestBuildRequestDefaultsToJSONWithBody(t *testing.T) {
	resetRequestFlags(t)
	headers = []string{"X-Trace: 1"}
	data = `{"a":1}`
	requestName = "create"

	req, err := buildRequest(model.MethodPost, "https://example.com")
	require.NoError(t, err)

	assert.Equal(t, model.MethodPost, req.Method)
	assert.Equal(t, model.BodyJSON, req.BodyKind)
	assert.Equal(t, `{"a":1}`, req.Body)
	assert.Equal(t, "create", req.Name)
	assert.Equal(t, "1", req.Headers["X-Trace"])
	assert.NotEmpty(t, req.ID)
}

func TestBuildRequestWithoutBody(t *testing.T) {
	resetRequestFlags(t)

	req, err := buildRequest(model.MethodGet, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, model.BodyNone, req.BodyKind)
	assert.Equal(t, "Untitled Request", req.Name)
}

func TestBuildRequestValidation(t *testing.T) {
	resetRequestFlags(t)

	_, err := buildRequest(model.MethodGet, " ")
	assert.ErrorIs(t, err, app.ErrEmptyURL)

	bodyKind = "xml"
	_, err = buildRequest(model.MethodPost, "https://example.com")
	assert.Error(t, err)
}

func TestBuildRequestReadsBodyFile(t *testing.T) {
	resetRequestFlags(t)
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "body.txt"), []byte("hello"), 0o600))

	data = "@body.txt"
	bodyKind = "text"
	req, err := buildRequest(model.MethodPut, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "hello", req.Body)
	assert.Equal(t, model.BodyText, req.BodyKind)
}

func TestReadBodyFromFileStaysInWorkingDir(t *testing.T) {
	root := t.TempDir()
	work := filepath.Join(root, "work")
	require.NoError(t, os.Mkdir(work, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(root, "secret.txt"), []byte("s"), 0o600))
	chdir(t, work)

	_, err := readBodyFromFile("../secret.txt")
	assert.ErrorContains(t, err, "access denied")

	require.NoError(t, os.Symlink(filepath.Join(root, "secret.txt"), filepath.Join(work, "link.txt")))
	_, err = readBodyFromFile("link.txt")
	assert.ErrorContains(t, err, "symlink target")

	_, err = readBodyFromFile("missing.txt")
	assert.Error(t, err)
}

// chdir is a Go 1.21-compatible stand-in for testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
