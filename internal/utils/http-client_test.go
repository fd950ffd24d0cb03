package utils

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccelHTTPClientHeaders(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer server.Close()

	client := NewAccelHTTPClient(HTTPClientConfig{
		UserAgent: "accel/test",
		Headers: map[string]string{
			"X-Token": "abc",
			"Range":   "bytes=0-",
		},
	})
	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	req.Header.Set("Range", "bytes=5-9")
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "accel/test", got.Get("User-Agent"))
	assert.Equal(t, "abc", got.Get("X-Token"))
	assert.Equal(t, "bytes=5-9", got.Get("Range"))
	assert.Empty(t, got.Get("Accept-Encoding"), "compression must stay off for ranged reads")
}

func TestAccelHTTPClientConfiguredUserAgentHeader(t *testing.T) {
	var agent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent = r.UserAgent()
	}))
	defer server.Close()

	client := NewAccelHTTPClient(HTTPClientConfig{
		UserAgent: "accel/test",
		Headers:   map[string]string{"User-Agent": "custom/2"},
	})
	req, err := http.NewRequest(http.MethodHead, server.URL, nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "accel/test", agent)
}

func TestAccelHTTPClientTLS(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	_, err = NewAccelHTTPClient(HTTPClientConfig{}).Do(req)
	assert.Error(t, err)

	req, err = http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	resp, err := NewAccelHTTPClient(HTTPClientConfig{Insecure: true, HighThreadMode: true}).Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAccelHTTPClientProxy(t *testing.T) {
	var target, proxyAuth string
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		target = r.URL.String()
		proxyAuth = r.Header.Get("Proxy-Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer proxy.Close()

	client := NewAccelHTTPClient(HTTPClientConfig{
		ProxyURL:      proxy.URL,
		ProxyUsername: "bob",
		ProxyPassword: "s3cret",
	})
	req, err := http.NewRequest(http.MethodGet, "http://files.internal/archive.tar", nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://files.internal/archive.tar", target)
	assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("bob:s3cret")), proxyAuth)
}
