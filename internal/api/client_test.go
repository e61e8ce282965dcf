package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

func TestNew(t *testing.T) {
	c := New("http://localhost:5000", "secret123")

	require.NotNil(t, c)
	assert.Equal(t, "http://localhost:5000", c.baseURL)
	assert.Equal(t, "secret123", c.apiKey)
	assert.NotNil(t, c.httpClient)
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c := New("http://localhost:5000/", "secret")
	assert.Equal(t, "http://localhost:5000", c.baseURL)
}

func TestHealthcheck(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"ok", http.StatusOK, false},
		{"server error", http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/healthcheck", r.URL.Path)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			err := New(server.URL, "").Healthcheck()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHealthcheck_ServerDown(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	assert.Error(t, New(url, "").Healthcheck())
}

func TestUpload_Success(t *testing.T) {
	fields := map[string]string{}
	var content []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/combatlogs/add", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		if !assert.NoError(t, r.ParseMultipartForm(10<<20)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		for _, key := range []string{"secret", "filename", "runId", "primaryFile", "fights", "durationMs", "tag"} {
			fields[key] = r.FormValue(key)
		}

		file, _, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		content, _ = io.ReadAll(file)

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	path := writeTestFile(t, "WoWCombatLog_20240102_150405_abcd1234.json.gz", []byte("test content"))

	c := New(server.URL, "mysecret")
	err := c.Upload(path, UploadMetadata{
		RunID:       "abcd1234-0000-0000-0000-000000000000",
		PrimaryFile: "/logs/WoWCombatLog.txt",
		Fights:      3,
		Duration:    1500 * time.Millisecond,
		Tag:         "raid",
	})
	require.NoError(t, err)

	assert.Equal(t, "mysecret", fields["secret"])
	assert.Equal(t, "WoWCombatLog_20240102_150405_abcd1234.json.gz", fields["filename"])
	assert.Equal(t, "abcd1234-0000-0000-0000-000000000000", fields["runId"])
	assert.Equal(t, "WoWCombatLog.txt", fields["primaryFile"])
	assert.Equal(t, "3", fields["fights"])
	assert.Equal(t, "1500", fields["durationMs"])
	assert.Equal(t, "raid", fields["tag"])
	assert.Equal(t, "test content", string(content))
}

func TestUpload_FileNotFound(t *testing.T) {
	c := New("http://localhost:5000", "secret")
	err := c.Upload("/nonexistent/file.json.gz", UploadMetadata{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open file")
}

func TestUpload_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	path := writeTestFile(t, "run.json", []byte("content"))

	err := New(server.URL, "wrong-secret").Upload(path, UploadMetadata{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}
