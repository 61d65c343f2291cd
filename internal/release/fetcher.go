package release

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// ProgressFunc receives download progress. total is zero when the server
// did not report a content length.
type ProgressFunc func(done, total int64)

// Fetcher streams release artifacts to disk. Downloads are fully
// synchronous with no internal parallelism; archive downloads rely on the
// transport's defaults rather than an internal timeout.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher with a default HTTP client.
func NewFetcher() *Fetcher {
	return &Fetcher{client: &http.Client{}}
}

// Fetch downloads url into dest, invoking progress as bytes arrive.
// A partially written dest is removed on failure.
func (f *Fetcher) Fetch(url, dest string, progress ProgressFunc) error {
	resp, err := f.client.Get(url)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &RequestError{URL: url, StatusCode: resp.StatusCode}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("create download directory: %w", err)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create download file: %w", err)
	}

	total := resp.ContentLength
	if total < 0 {
		total = 0
	}

	var done int64
	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				_ = out.Close()
				_ = os.Remove(dest)
				return fmt.Errorf("write download file: %w", writeErr)
			}
			done += int64(n)
			if progress != nil {
				progress(done, total)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			_ = out.Close()
			_ = os.Remove(dest)
			return fmt.Errorf("read download stream: %w", readErr)
		}
	}

	return out.Close()
}
