// Package fetcher retrieves and decodes the census source files: HTTP and
// FTP transport with per-host rate limiting and conditional re-download,
// plus ZIP extraction and CSV/XLSX decoding for the formats INSEE and
// data.gouv.fr publish.
package fetcher

import (
	"context"
	"io"
)

// Fetcher downloads a remote source.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL into path and returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// ConditionalFetcher is implemented by transports that can skip a source
// the server reports as unchanged since the last download.
type ConditionalFetcher interface {
	// DownloadToFileIfChanged fetches the URL into path unless the remote
	// content is unchanged. Returns whether the file was rewritten.
	DownloadToFileIfChanged(ctx context.Context, url string, path string) (bool, error)
}
