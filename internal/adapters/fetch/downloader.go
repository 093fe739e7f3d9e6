// Package fetch downloads and unpacks artifacts into the cache.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"go.trai.ch/xbuild/internal/core/domain"
	"go.trai.ch/xbuild/internal/core/ports"
	"go.trai.ch/zerr"
)

// Downloader implements ports.Downloader over HTTP.
type Downloader struct {
	client *http.Client
}

var _ ports.Downloader = (*Downloader)(nil)

// NewDownloader creates a Downloader. A nil client uses a client without timeout.
func NewDownloader(client *http.Client) *Downloader {
	if client == nil {
		client = &http.Client{}
	}
	return &Downloader{client: client}
}

// Download streams the body of url into dest.
// The body is written to a temporary file next to dest and renamed once complete,
// so dest never holds a truncated payload.
func (d *Downloader) Download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrFetch, err), "invalid request"), "url", url)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrFetch, err), "GET "+url+" failed"), "url", url)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		err := zerr.Wrap(domain.ErrFetch, fmt.Sprintf("GET %s returned status code %d", url, resp.StatusCode))
		err = zerr.With(err, "url", url)
		return zerr.With(err, "status_code", resp.StatusCode)
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.With(errors.Join(domain.ErrFetch, err), "path", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return zerr.With(errors.Join(domain.ErrFetch, err), "path", dir)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	progress := &progressWriter{
		span:  ports.SpanFromContext(ctx),
		total: max(resp.ContentLength, 0),
	}

	if _, err := io.Copy(io.MultiWriter(tmp, progress), resp.Body); err != nil {
		_ = tmp.Close()
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrFetch, err), "reading body failed"), "url", url)
	}
	if err := tmp.Close(); err != nil {
		return zerr.With(errors.Join(domain.ErrFetch, err), "path", tmpName)
	}

	if err := os.Rename(tmpName, dest); err != nil {
		return zerr.With(errors.Join(domain.ErrFetch, err), "path", dest)
	}
	return nil
}

// progressWriter reports the running byte count to a span.
type progressWriter struct {
	span    ports.Span
	total   int64
	current int64
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.current += int64(len(p))
	w.span.Progress(w.current, w.total)
	return len(p), nil
}
