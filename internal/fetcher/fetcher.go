package fetcher

import (
	"context"
	"io"
)

// Fetcher defines the interface for downloading remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body. Non-200
	// responses are returned as errors carrying the HTTP status.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}
