package ports

import (
	"context"

	"go.trai.ch/xbuild/internal/core/domain"
)

// Downloader transfers a URL to a local file.
//
//go:generate mockgen -source=fetcher.go -destination=mocks/mock_fetcher.go -package=mocks
type Downloader interface {
	// Download writes the body of url to dest.
	// Non-2xx responses and transport errors are reported as domain.ErrFetch.
	Download(ctx context.Context, url, dest string) error
}

// Fetcher materializes work items in the artifact cache.
type Fetcher interface {
	// Fetch makes item.Output() exist with the extracted contents of item.URL().
	// It is a no-op if the output already exists, and never leaves a partial output behind.
	Fetch(ctx context.Context, item domain.WorkItem) error
}
