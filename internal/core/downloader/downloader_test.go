// Package downloader_test contains tests for the downloader package.
package downloader_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyrope-pm/pyrope/internal/core/downloader"
)

func TestDownloadTarball_Success(t *testing.T) {
	t.Parallel()
	expected := []byte("tarball bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write(expected)
		require.NoError(t, err, "failed to write response in mock server")
	}))
	defer server.Close()

	content, err := downloader.DownloadTarball(server.URL)
	require.NoError(t, err, "DownloadTarball returned an unexpected error")
	assert.Equal(t, expected, content, "downloaded content mismatch")
}

func TestDownloadTarball_NotFound(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := downloader.DownloadTarball(server.URL)
	require.Error(t, err, "DownloadTarball should have returned an error for 404")
	assert.Contains(t, err.Error(), "received status code 404")
}

func TestDownloadTarball_ServerError(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := downloader.DownloadTarball(server.URL)
	require.Error(t, err, "DownloadTarball should have returned an error for 500")
	assert.Contains(t, err.Error(), "received status code 500")
}

func TestDownloadTarball_NetworkError(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close() // connection refused from here on

	_, err := downloader.DownloadTarball(url)
	require.Error(t, err, "DownloadTarball should fail when the server is unreachable")
	assert.Contains(t, err.Error(), "failed to perform GET request")
}
