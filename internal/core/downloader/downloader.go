// Package downloader fetches package tarballs over HTTP.
package downloader

import (
	"fmt"
	"io"
	"net/http"
)

// DownloadTarball fetches the archive at url and returns its raw bytes
// for digesting. Any non-200 response is an error; there are no retries,
// callers layer retry policy on top if they need one.
func DownloadTarball(url string) ([]byte, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to perform GET request to %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download tarball from %s: received status code %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read tarball body from %s: %w", url, err)
	}
	return body, nil
}
