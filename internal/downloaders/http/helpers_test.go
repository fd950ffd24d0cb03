package accelhttp

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tanq16/accel/internal/utils"
)

func testPayload(size int) []byte {
	payload := make([]byte, size)
	for i := range payload {
		payload[i] = byte((i*31 + i/251) % 256)
	}
	return payload
}

// serveRanges answers HEAD and ranged GETs for payload the way a
// range-capable file server does.
func serveRanges(payload []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(payload))
	}
}

func newRangeServer(t *testing.T, payload []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(serveRanges(payload))
	t.Cleanup(server.Close)
	return server
}

func testSpec(t *testing.T, link string, threads int) utils.DownloadSpec {
	t.Helper()
	return utils.DownloadSpec{
		URL:        link,
		OutputPath: filepath.Join(t.TempDir(), "artifact.bin"),
		Threads:    threads,
		Retries:    0,
		RetryWait:  time.Millisecond,
		HTTPClientConfig: utils.HTTPClientConfig{
			Timeout: 5 * time.Second,
			Headers: map[string]string{},
		},
	}
}

func requireNoParts(t *testing.T, outputPath string) {
	t.Helper()
	matches, err := filepath.Glob(outputPath + "_part_*")
	require.NoError(t, err)
	require.Empty(t, matches, "part stores left on disk")
}

func requireNotExists(t *testing.T, path string) {
	t.Helper()
	_, err := os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)
}
