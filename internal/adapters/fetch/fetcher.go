package fetch

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
	"go.trai.ch/xbuild/internal/core/domain"
	"go.trai.ch/xbuild/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	tarZstSuffix    = ".tar.zst"
	frameworkSuffix = ".framework.zip"
	zipSuffix       = ".zip"
)

// Fetcher implements ports.Fetcher.
// Archives are unpacked into a staging directory beside the output and moved into
// place only once extraction succeeded.
type Fetcher struct {
	cacheDir   string
	downloader ports.Downloader
	store      ports.ArtifactStore
	logger     ports.Logger
	now        func() time.Time
}

var _ ports.Fetcher = (*Fetcher)(nil)

// NewFetcher creates a Fetcher for the cache rooted at cacheDir.
func NewFetcher(
	cacheDir string,
	downloader ports.Downloader,
	store ports.ArtifactStore,
	logger ports.Logger,
) *Fetcher {
	return &Fetcher{
		cacheDir:   cacheDir,
		downloader: downloader,
		store:      store,
		logger:     logger,
		now:        time.Now,
	}
}

// Fetch materializes item.Output(). It does nothing if the output already exists.
func (f *Fetcher) Fetch(ctx context.Context, item domain.WorkItem) (err error) {
	output := item.Output()
	if _, statErr := os.Lstat(output); statErr == nil {
		f.logger.Debug("already fetched " + output)
		return nil
	}

	parent := filepath.Dir(output)
	if mkErr := os.MkdirAll(parent, domain.DirPerm); mkErr != nil {
		return zerr.With(errors.Join(domain.ErrFetch, mkErr), "path", parent)
	}

	staging := stagingPath(item)
	_ = os.RemoveAll(staging)

	defer func() {
		_ = os.RemoveAll(staging)
		if err != nil {
			_ = os.RemoveAll(output)
		}
	}()

	f.logger.Debug("fetching " + item.URL())

	payload, err := f.materialize(ctx, item, staging)
	if err != nil {
		return err
	}

	f.record(item, payload)
	return nil
}

// materialize downloads and unpacks item, returning the downloaded payload path.
func (f *Fetcher) materialize(ctx context.Context, item domain.WorkItem, staging string) (string, error) {
	name := item.Name()
	output := item.Output()
	archive := domain.DownloadPath(f.cacheDir, name)

	switch {
	case strings.HasSuffix(name, tarZstSuffix):
		if err := f.download(ctx, item, archive); err != nil {
			return "", err
		}
		if err := extractTarZst(archive, staging, filterFor(item)); err != nil {
			return "", err
		}
		return archive, promote(staging, output, item.IntoOutput())

	case strings.HasSuffix(name, frameworkSuffix):
		if err := f.download(ctx, item, archive); err != nil {
			return "", err
		}
		outer := staging + ".outer"
		_ = os.RemoveAll(outer)
		defer func() {
			_ = os.RemoveAll(outer)
		}()
		if err := extractZip(archive, outer, filterFor(item)); err != nil {
			return "", err
		}
		nested := filepath.Join(outer, name)
		if _, err := os.Stat(nested); err != nil {
			return "", zerr.With(zerr.Wrap(domain.ErrArchive, "missing nested framework archive"), "path", nested)
		}
		if err := extractZip(nested, staging, filterFor(item)); err != nil {
			return "", err
		}
		if err := promote(staging, output, true); err != nil {
			return "", err
		}
		return archive, merge(outer, domain.FrameworkPath(f.cacheDir))

	case strings.HasSuffix(name, zipSuffix):
		if err := f.download(ctx, item, archive); err != nil {
			return "", err
		}
		if err := extractZip(archive, staging, filterFor(item)); err != nil {
			return "", err
		}
		return archive, promote(staging, output, item.IntoOutput())

	default:
		if err := f.downloader.Download(ctx, item.URL(), staging); err != nil {
			return "", err
		}
		if err := os.Rename(staging, output); err != nil {
			return "", zerr.With(errors.Join(domain.ErrFetch, err), "path", output)
		}
		return output, nil
	}
}

// download fetches item into archive unless the ledger shows that archive already holds
// the payload of an earlier fetch of the same URL.
func (f *Fetcher) download(ctx context.Context, item domain.WorkItem, archive string) error {
	if f.reusable(item, archive) {
		f.logger.Debug("reusing " + archive)
		return nil
	}
	return f.downloader.Download(ctx, item.URL(), archive)
}

func (f *Fetcher) reusable(item domain.WorkItem, archive string) bool {
	record, err := f.store.Get(item.Output())
	if err != nil || record == nil {
		return false
	}
	if record.URL != item.URL() || record.Payload != archive {
		return false
	}
	digest, size, err := digestFile(archive)
	return err == nil && size == record.Size && digest == record.Digest
}

// record writes the ledger entry for a completed fetch. Failures only warn.
func (f *Fetcher) record(item domain.WorkItem, payload string) {
	digest, size, err := digestFile(payload)
	if err != nil {
		f.logger.Warn(fmt.Sprintf("could not digest %s: %v", payload, err))
		return
	}

	record := domain.ArtifactRecord{
		URL:       item.URL(),
		Output:    item.Output(),
		Payload:   payload,
		Digest:    digest,
		Size:      size,
		FetchedAt: f.now().UTC(),
	}
	if err := f.store.Put(record); err != nil {
		f.logger.Warn(fmt.Sprintf("could not record %s: %v", item.Output(), err))
	}
}

// promote moves the extracted output out of staging.
// With intoOutput the staging directory itself becomes the output. Otherwise the archive
// must contain a top-level entry named like the output; other top-level entries are moved
// beside it unless something of that name already exists.
func promote(staging, output string, intoOutput bool) error {
	if intoOutput {
		if err := os.MkdirAll(staging, domain.DirPerm); err != nil {
			return zerr.With(errors.Join(domain.ErrArchive, err), "path", staging)
		}
		if err := os.Rename(staging, output); err != nil {
			return zerr.With(errors.Join(domain.ErrArchive, err), "path", output)
		}
		return nil
	}

	base := filepath.Base(output)
	if _, err := os.Lstat(filepath.Join(staging, base)); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrArchive, "archive does not contain "+base), "path", output)
	}

	entries, err := os.ReadDir(staging)
	if err != nil {
		return zerr.With(errors.Join(domain.ErrArchive, err), "path", staging)
	}

	parent := filepath.Dir(output)
	for _, entry := range entries {
		if entry.Name() == base {
			continue
		}
		if err := moveEntry(staging, parent, entry.Name()); err != nil {
			return err
		}
	}

	if err := os.Rename(filepath.Join(staging, base), output); err != nil {
		return zerr.With(errors.Join(domain.ErrArchive, err), "path", output)
	}
	return nil
}

// merge moves the entries of src into dst, keeping whatever dst already holds.
func merge(src, dst string) error {
	if err := os.MkdirAll(dst, domain.DirPerm); err != nil {
		return zerr.With(errors.Join(domain.ErrArchive, err), "path", dst)
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return zerr.With(errors.Join(domain.ErrArchive, err), "path", src)
	}
	for _, entry := range entries {
		if err := moveEntry(src, dst, entry.Name()); err != nil {
			return err
		}
	}
	return nil
}

func moveEntry(src, dst, name string) error {
	target := filepath.Join(dst, name)
	if _, err := os.Lstat(target); err == nil {
		return nil
	}
	if err := os.Rename(filepath.Join(src, name), target); err != nil {
		return zerr.With(errors.Join(domain.ErrArchive, err), "path", target)
	}
	return nil
}

// stagingPath returns the hidden sibling of the output that extraction happens in.
func stagingPath(item domain.WorkItem) string {
	output := item.Output()
	name := fmt.Sprintf(".%s.%x.partial", filepath.Base(output), xxhash.Sum64String(item.URL()))
	return filepath.Join(filepath.Dir(output), name)
}

func digestFile(path string) (string, int64, error) {
	//nolint:gosec // Path is a fetched artifact in the cache
	file, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer func() {
		_ = file.Close()
	}()

	info, err := file.Stat()
	if err != nil {
		return "", 0, err
	}
	if info.Mode()&fs.ModeType != 0 {
		return "", 0, zerr.With(zerr.New("not a regular file"), "path", path)
	}

	h := blake3.New()
	size, err := io.Copy(h, file)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), size, nil
}
