// Package toolchain resolves versions and host artifacts of a Flutter checkout.
package toolchain

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/xbuild/internal/core/domain"
	"go.trai.ch/xbuild/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	// Remote is the upstream Flutter repository.
	Remote = "https://github.com/flutter/flutter"
	// Branch is the channel that is cloned and pulled.
	Branch = "stable"
)

// Flutter is a handle on a Flutter checkout and the engine artifacts cached for it.
type Flutter struct {
	repo     string
	cache    string
	git      string
	host     domain.CompileTarget
	executor ports.Executor
}

// New locates git and returns a handle for the checkout at repo.
// host is the host-Debug target whose engine artifacts provide dart and the frontend server.
func New(
	repo, cacheDir string,
	host domain.CompileTarget,
	locator ports.ToolLocator,
	executor ports.Executor,
) (*Flutter, error) {
	git, err := locator.Locate("git")
	if err != nil {
		return nil, err
	}
	if repo, err = filepath.Abs(repo); err != nil {
		return nil, zerr.With(errors.Join(domain.ErrInvalidCheckout, err), "path", repo)
	}
	if cacheDir, err = filepath.Abs(cacheDir); err != nil {
		return nil, zerr.With(err, "path", cacheDir)
	}
	return &Flutter{
		repo:     repo,
		cache:    cacheDir,
		git:      git,
		host:     host,
		executor: executor,
	}, nil
}

// Root returns the checkout directory.
func (f *Flutter) Root() string {
	return f.repo
}

// Host returns the host-Debug compile target.
func (f *Flutter) Host() domain.CompileTarget {
	return f.host
}

// Run executes cmd with the handle's executor.
func (f *Flutter) Run(ctx context.Context, cmd domain.Command) error {
	return f.executor.Run(ctx, cmd)
}

// Version returns the tag pointing at the checked out commit.
func (f *Flutter) Version(ctx context.Context) (string, error) {
	out, err := f.executor.Output(ctx, domain.NewCommand(f.git, "tag", "--points-at", "HEAD").WithDir(f.repo))
	if err != nil {
		return "", zerr.With(zerr.Wrap(errors.Join(domain.ErrVersionResolution, err), "failed to get flutter version"), "path", f.repo)
	}
	version := strings.TrimSpace(out)
	if version == "" {
		return "", zerr.With(zerr.Wrap(domain.ErrVersionResolution, "no tag points at HEAD"), "path", f.repo)
	}
	return version, nil
}

// CloneCommand returns the shallow clone of the stable branch into the checkout directory.
func (f *Flutter) CloneCommand() domain.Command {
	return domain.NewCommand(f.git, "clone", Remote, "--depth", "1", "--branch", Branch, filepath.Base(f.repo)).
		WithDir(filepath.Dir(f.repo))
}

// PullCommand returns the update of an existing checkout.
func (f *Flutter) PullCommand() domain.Command {
	return domain.NewCommand(f.git, "pull", "origin", Branch).WithDir(f.repo)
}

// Sync clones the checkout when it is absent and pulls it otherwise.
func (f *Flutter) Sync(ctx context.Context) error {
	info, err := os.Stat(f.repo)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(filepath.Dir(f.repo), domain.DirPerm); err != nil {
			return zerr.With(err, "path", filepath.Dir(f.repo))
		}
		return f.executor.Run(ctx, f.CloneCommand())
	case err != nil:
		return zerr.With(err, "path", f.repo)
	case !info.IsDir():
		return zerr.With(zerr.Wrap(domain.ErrInvalidCheckout, "not a directory"), "path", f.repo)
	}

	if _, err := os.Stat(filepath.Join(f.repo, ".git")); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrInvalidCheckout, "missing .git"), "path", f.repo)
	}
	return f.executor.Run(ctx, f.PullCommand())
}

// ArtifactVersion reads bin/internal/<name>.version.
func (f *Flutter) ArtifactVersion(name string) (string, error) {
	path := filepath.Join(f.repo, "bin", "internal", name+".version")
	//nolint:gosec // Path is inside the configured checkout
	data, err := os.ReadFile(path)
	if err != nil {
		return "", zerr.With(zerr.Wrap(errors.Join(domain.ErrVersionResolution, err), "failed to locate "+name+".version"), "path", path)
	}
	return strings.TrimSpace(string(data)), nil
}

// EngineVersion returns the engine commit the checkout pins.
func (f *Flutter) EngineVersion() (string, error) {
	return f.ArtifactVersion("engine")
}

// MaterialFontsMarker returns the storage path of the material fonts archive.
func (f *Flutter) MaterialFontsMarker() (string, error) {
	return f.ArtifactVersion("material_fonts")
}

// MaterialFontsVersion returns the fourth segment of the material fonts marker.
func (f *Flutter) MaterialFontsVersion() (string, error) {
	marker, err := f.MaterialFontsMarker()
	if err != nil {
		return "", err
	}
	parts := strings.Split(marker, "/")
	if len(parts) < 4 {
		return "", zerr.With(zerr.Wrap(domain.ErrVersionResolution, "malformed material_fonts.version"), "marker", marker)
	}
	return parts[3], nil
}

// MaterialFonts returns the directory the material fonts are extracted to.
func (f *Flutter) MaterialFonts() (string, error) {
	version, err := f.MaterialFontsVersion()
	if err != nil {
		return "", err
	}
	return domain.MaterialFontsPath(f.cache, version), nil
}

// EngineDir returns the engine artifact directory for target.
func (f *Flutter) EngineDir(target domain.CompileTarget) (string, error) {
	version, err := f.EngineVersion()
	if err != nil {
		return "", err
	}
	return domain.EnginePath(f.cache, version, target), nil
}

// EngineFile returns rel inside the engine directory of target. It must exist.
func (f *Flutter) EngineFile(target domain.CompileTarget, rel string) (string, error) {
	dir, err := f.EngineDir(target)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, rel)
	if _, err := os.Stat(path); err != nil {
		return "", zerr.With(zerr.Wrap(domain.ErrMissingArtifact, "failed to locate "+rel), "path", path)
	}
	return path, nil
}

// HostFile returns rel inside the host-Debug engine directory. It must exist.
func (f *Flutter) HostFile(rel string) (string, error) {
	return f.EngineFile(f.host, rel)
}

// ICUData returns icudtl.dat.
func (f *Flutter) ICUData() (string, error) {
	return f.HostFile("icudtl.dat")
}

// IsolateSnapshotData returns isolate_snapshot.bin.
func (f *Flutter) IsolateSnapshotData() (string, error) {
	return f.HostFile("isolate_snapshot.bin")
}

// VMSnapshotData returns vm_isolate_snapshot.bin.
func (f *Flutter) VMSnapshotData() (string, error) {
	return f.HostFile("vm_isolate_snapshot.bin")
}

// Dart returns the dart executable of the host engine.
func (f *Flutter) Dart() (string, error) {
	return f.HostFile(filepath.Join("dart-sdk", "bin", f.exe("dart")))
}

// FrontendServer returns the kernel compiler snapshot.
func (f *Flutter) FrontendServer() (string, error) {
	return f.HostFile("frontend_server.dart.snapshot")
}

// PatchedSDK returns the platform dill directory for opt.
func (f *Flutter) PatchedSDK(opt domain.Opt) (string, error) {
	if opt == domain.Release {
		return f.HostFile("flutter_patched_sdk_product")
	}
	return f.HostFile("flutter_patched_sdk")
}

// SkyEngine returns the sky_engine package of the host engine.
func (f *Flutter) SkyEngine() (string, error) {
	return f.HostFile("sky_engine")
}

// GenSnapshot returns the AOT compiler for target. iOS always uses the arm64 binary.
func (f *Flutter) GenSnapshot(target domain.CompileTarget) (string, error) {
	name := "gen_snapshot"
	if target.Platform() == domain.Ios {
		name = "gen_snapshot_arm64"
	}
	return f.EngineFile(target, f.exe(name))
}

// PreparePub writes the version file and links sky_engine into the checkout's package cache.
func (f *Flutter) PreparePub(ctx context.Context) error {
	version, err := f.Version(ctx)
	if err != nil {
		return err
	}
	versionFile := filepath.Join(f.repo, "version")
	if err := os.WriteFile(versionFile, []byte(version), domain.FilePerm); err != nil {
		return zerr.With(err, "path", versionFile)
	}

	src, err := f.SkyEngine()
	if err != nil {
		return err
	}

	pkgDir := filepath.Join(f.repo, "bin", "cache", "pkg")
	if err := os.MkdirAll(pkgDir, domain.DirPerm); err != nil {
		return zerr.With(err, "path", pkgDir)
	}

	dest := filepath.Join(pkgDir, "sky_engine")
	if err := os.RemoveAll(dest); err != nil {
		return zerr.With(err, "path", dest)
	}
	if err := os.Symlink(src, dest); err != nil {
		return zerr.With(err, "path", dest)
	}
	return nil
}

// PubCommand returns `dart pub get` (or upgrade) for the application at root.
func (f *Flutter) PubCommand(root string, upgrade bool) (domain.Command, error) {
	dart, err := f.Dart()
	if err != nil {
		return domain.Command{}, err
	}
	action := "get"
	if upgrade {
		action = "upgrade"
	}
	return domain.NewCommand(dart, "pub", action, "--no-precompile").
		WithDir(root).
		WithEnv("FLUTTER_ROOT", f.repo), nil
}

func (f *Flutter) exe(name string) string {
	if f.host.Platform() == domain.Windows {
		return name + ".exe"
	}
	return name
}
