package fetch

import (
	"archive/tar"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"go.trai.ch/xbuild/internal/core/domain"
	"go.trai.ch/zerr"
)

// filter decides which archive entries are unpacked.
type filter struct {
	noSymlinks bool
	noColons   bool
}

func filterFor(item domain.WorkItem) filter {
	return filter{noSymlinks: item.SkipSymlinks(), noColons: item.SkipColons()}
}

func (f filter) skip(name string, symlink bool) bool {
	if f.noSymlinks && symlink {
		return true
	}
	return f.noColons && strings.Contains(name, ":")
}

// sandbox confines every write of one extraction to dest. Entry paths are resolved
// with securejoin, so symlinks unpacked by earlier entries cannot lead outside dest.
type sandbox struct {
	dest string
}

func newSandbox(dest string) (*sandbox, error) {
	if err := os.MkdirAll(dest, domain.DirPerm); err != nil {
		return nil, zerr.With(errors.Join(domain.ErrArchive, err), "path", dest)
	}
	return &sandbox{dest: dest}, nil
}

// entryPath cleans an archive entry name into a path relative to dest.
// ok is false for entries naming dest itself. Names that escape dest are rejected.
func entryPath(name string) (rel string, ok bool, err error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == "." {
		return "", false, nil
	}
	if !filepath.IsLocal(clean) {
		return "", false, zerr.With(zerr.Wrap(domain.ErrArchive, "entry escapes destination"), "entry", name)
	}
	return clean, true, nil
}

// resolve returns rel inside dest with every existing symlink scoped to dest.
func (s *sandbox) resolve(rel string) (string, error) {
	path, err := securejoin.SecureJoin(s.dest, rel)
	if err != nil {
		return "", errors.Join(domain.ErrArchive, err)
	}
	return path, nil
}

// prepare creates the resolved parent of rel and returns where rel itself is written.
// The last element is not resolved so an entry replaces rather than follows a symlink.
func (s *sandbox) prepare(rel string) (string, error) {
	parent, err := s.resolve(filepath.Dir(rel))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(parent, domain.DirPerm); err != nil {
		return "", err
	}
	return filepath.Join(parent, filepath.Base(rel)), nil
}

// checkLink rejects absolute link targets and relative ones pointing above dest.
func (s *sandbox) checkLink(rel, link string) error {
	if filepath.IsAbs(link) || strings.HasPrefix(link, "/") {
		return zerr.With(zerr.Wrap(domain.ErrArchive, "absolute symlink target"), "link", link)
	}
	resolved := filepath.Join(s.dest, filepath.Dir(rel), filepath.FromSlash(link))
	if !within(s.dest, resolved) {
		return zerr.With(zerr.Wrap(domain.ErrArchive, "symlink escapes destination"), "link", link)
	}
	return nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || filepath.IsLocal(rel)
}

func (s *sandbox) mkdir(rel string, mode fs.FileMode) error {
	path, err := s.resolve(rel)
	if err != nil {
		return err
	}
	return os.MkdirAll(path, dirMode(mode))
}

func (s *sandbox) writeFile(rel string, r io.Reader, mode fs.FileMode) error {
	target, err := s.prepare(rel)
	if err != nil {
		return err
	}
	if info, err := os.Lstat(target); err == nil && info.Mode()&fs.ModeSymlink != 0 {
		if err := os.Remove(target); err != nil {
			return err
		}
	}

	//nolint:gosec // Target is confined to the sandbox
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fileMode(mode))
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return errors.Join(domain.ErrArchive, err)
	}
	return out.Close()
}

func (s *sandbox) writeSymlink(rel, link string) error {
	if err := s.checkLink(rel, link); err != nil {
		return err
	}
	target, err := s.prepare(rel)
	if err != nil {
		return err
	}
	if err := os.Symlink(link, target); err != nil && !errors.Is(err, fs.ErrExist) {
		return err
	}
	return nil
}

func (s *sandbox) writeHardlink(rel, sourceRel string) error {
	source, err := s.resolve(sourceRel)
	if err != nil {
		return err
	}
	target, err := s.prepare(rel)
	if err != nil {
		return err
	}
	return os.Link(source, target)
}

// extractTarZst unpacks a zstd compressed tarball into dest.
func extractTarZst(archive, dest string, f filter) error {
	//nolint:gosec // Archive path is constructed by the fetcher
	file, err := os.Open(archive)
	if err != nil {
		return zerr.With(errors.Join(domain.ErrArchive, err), "path", archive)
	}
	defer func() {
		_ = file.Close()
	}()

	dec, err := zstd.NewReader(file)
	if err != nil {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrArchive, err), "invalid zstd stream"), "path", archive)
	}
	defer dec.Close()

	box, err := newSandbox(dest)
	if err != nil {
		return err
	}

	tr := tar.NewReader(dec)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return zerr.With(zerr.Wrap(errors.Join(domain.ErrArchive, err), "reading tar failed"), "path", archive)
		}

		if f.skip(hdr.Name, hdr.Typeflag == tar.TypeSymlink) {
			continue
		}

		rel, ok, err := entryPath(hdr.Name)
		if err != nil {
			return zerr.With(err, "path", archive)
		}
		if !ok {
			continue
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			err = box.mkdir(rel, hdr.FileInfo().Mode())
		case tar.TypeReg:
			err = box.writeFile(rel, tr, hdr.FileInfo().Mode())
		case tar.TypeSymlink:
			err = box.writeSymlink(rel, hdr.Linkname)
		case tar.TypeLink:
			var source string
			source, ok, err = entryPath(hdr.Linkname)
			if err == nil && ok {
				err = box.writeHardlink(rel, source)
			}
		default:
			continue
		}
		if err != nil {
			return entryError(err, archive, hdr.Name)
		}
	}
}

// extractZip unpacks a zip archive into dest.
func extractZip(archive, dest string, f filter) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrArchive, err), "invalid zip archive"), "path", archive)
	}
	defer func() {
		_ = r.Close()
	}()

	box, err := newSandbox(dest)
	if err != nil {
		return err
	}

	for _, zf := range r.File {
		mode := zf.Mode()
		symlink := mode&fs.ModeSymlink != 0

		if f.skip(zf.Name, symlink) {
			continue
		}

		rel, ok, err := entryPath(zf.Name)
		if err != nil {
			return zerr.With(err, "path", archive)
		}
		if !ok {
			continue
		}

		if err := box.extractZipEntry(zf, rel, mode); err != nil {
			return entryError(err, archive, zf.Name)
		}
	}
	return nil
}

func (s *sandbox) extractZipEntry(zf *zip.File, rel string, mode fs.FileMode) error {
	if mode.IsDir() {
		return s.mkdir(rel, mode)
	}

	rc, err := zf.Open()
	if err != nil {
		return errors.Join(domain.ErrArchive, err)
	}
	defer func() {
		_ = rc.Close()
	}()

	if mode&fs.ModeSymlink != 0 {
		link, err := io.ReadAll(rc)
		if err != nil {
			return errors.Join(domain.ErrArchive, err)
		}
		return s.writeSymlink(rel, string(link))
	}
	return s.writeFile(rel, rc, mode)
}

func dirMode(mode fs.FileMode) fs.FileMode {
	return mode.Perm() | 0o700
}

func fileMode(mode fs.FileMode) fs.FileMode {
	return mode.Perm() | 0o600
}

func entryError(err error, archive, entry string) error {
	if !errors.Is(err, domain.ErrArchive) {
		err = errors.Join(domain.ErrArchive, err)
	}
	return zerr.With(zerr.With(err, "path", archive), "entry", entry)
}
