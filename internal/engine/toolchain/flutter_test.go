package toolchain_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/xbuild/internal/core/domain"
	"go.trai.ch/xbuild/internal/core/ports/mocks"
	"go.trai.ch/xbuild/internal/engine/toolchain"
	"go.uber.org/mock/gomock"
)

const (
	engineVersion = "abc123"
	fontsHash     = "3012db47f3130e62f7cc0beabff968a33cbec8d8"
	fontsMarker   = "flutter_infra_release/flutter/fonts/" + fontsHash + "/fonts.zip"
)

var host = domain.NewCompileTarget(domain.Linux, domain.X64, domain.Debug)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// checkout creates a minimal Flutter checkout with version markers.
func checkout(t *testing.T) string {
	t.Helper()
	repo := filepath.Join(t.TempDir(), "flutter")
	require.NoError(t, os.MkdirAll(filepath.Join(repo, ".git"), 0o750))
	writeFile(t, filepath.Join(repo, "bin", "internal", "engine.version"), engineVersion+"\n")
	writeFile(t, filepath.Join(repo, "bin", "internal", "material_fonts.version"), fontsMarker+"\n")
	return repo
}

func newFlutter(t *testing.T, repo string) (*toolchain.Flutter, *mocks.MockExecutor, string) {
	t.Helper()
	ctrl := gomock.NewController(t)
	locator := mocks.NewMockToolLocator(ctrl)
	executor := mocks.NewMockExecutor(ctrl)
	locator.EXPECT().Locate("git").Return("/usr/bin/git", nil)

	cache := t.TempDir()
	f, err := toolchain.New(repo, cache, host, locator, executor)
	require.NoError(t, err)
	return f, executor, cache
}

func TestNew_GitMissing(t *testing.T) {
	ctrl := gomock.NewController(t)
	locator := mocks.NewMockToolLocator(ctrl)
	locator.EXPECT().Locate("git").Return("", domain.ErrToolNotFound)

	_, err := toolchain.New("/flutter", "/cache", host, locator, mocks.NewMockExecutor(ctrl))
	assert.True(t, errors.Is(err, domain.ErrToolNotFound))
}

func TestFlutter_Version(t *testing.T) {
	repo := checkout(t)
	f, executor, _ := newFlutter(t, repo)

	want := domain.NewCommand("/usr/bin/git", "tag", "--points-at", "HEAD").WithDir(repo)
	executor.EXPECT().Output(gomock.Any(), want).Return("3.7.12\n", nil)

	version, err := f.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3.7.12", version)
}

func TestFlutter_Version_Errors(t *testing.T) {
	tests := []struct {
		name   string
		output string
		err    error
	}{
		{name: "untagged", output: "\n"},
		{name: "git fails", err: domain.ErrToolInvocation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, executor, _ := newFlutter(t, checkout(t))
			executor.EXPECT().Output(gomock.Any(), gomock.Any()).Return(tt.output, tt.err)

			_, err := f.Version(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrVersionResolution))
			if tt.err != nil {
				assert.True(t, errors.Is(err, tt.err))
			}
		})
	}
}

func TestFlutter_ArtifactVersions(t *testing.T) {
	repo := checkout(t)
	f, _, cache := newFlutter(t, repo)

	version, err := f.EngineVersion()
	require.NoError(t, err)
	assert.Equal(t, engineVersion, version)

	fonts, err := f.MaterialFontsVersion()
	require.NoError(t, err)
	assert.Equal(t, fontsHash, fonts)

	dir, err := f.MaterialFonts()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cache, "material_fonts", fontsHash), dir)

	_, err = f.ArtifactVersion("gradle_wrapper")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrVersionResolution))
	assert.Contains(t, err.Error(), "gradle_wrapper.version")
}

func TestFlutter_MaterialFontsVersion_Malformed(t *testing.T) {
	repo := checkout(t)
	writeFile(t, filepath.Join(repo, "bin", "internal", "material_fonts.version"), "fonts.zip")
	f, _, _ := newFlutter(t, repo)

	_, err := f.MaterialFontsVersion()
	assert.True(t, errors.Is(err, domain.ErrVersionResolution))
}

func TestFlutter_EngineFiles(t *testing.T) {
	f, _, cache := newFlutter(t, checkout(t))

	target := domain.NewCompileTarget(domain.Ios, domain.Arm64, domain.Release)
	dir, err := f.EngineDir(target)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cache, "engine", engineVersion, "release", "ios", "arm64"), dir)

	_, err = f.ICUData()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMissingArtifact))
	assert.Contains(t, err.Error(), "icudtl.dat")

	hostDir, err := f.EngineDir(host)
	require.NoError(t, err)
	writeFile(t, filepath.Join(hostDir, "icudtl.dat"), "icu")
	writeFile(t, filepath.Join(hostDir, "dart-sdk", "bin", "dart"), "")

	icu, err := f.ICUData()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(hostDir, "icudtl.dat"), icu)

	dart, err := f.Dart()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(hostDir, "dart-sdk", "bin", "dart"), dart)

	writeFile(t, filepath.Join(dir, "gen_snapshot_arm64"), "")
	gen, err := f.GenSnapshot(target)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "gen_snapshot_arm64"), gen)
}

func TestFlutter_Sync(t *testing.T) {
	t.Run("clones when absent", func(t *testing.T) {
		repo := filepath.Join(t.TempDir(), "sdk", "flutter")
		f, executor, _ := newFlutter(t, repo)

		want := domain.NewCommand(
			"/usr/bin/git", "clone", "https://github.com/flutter/flutter",
			"--depth", "1", "--branch", "stable", "flutter",
		).WithDir(filepath.Dir(repo))
		executor.EXPECT().Run(gomock.Any(), want).Return(nil)

		require.NoError(t, f.Sync(context.Background()))
		assert.DirExists(t, filepath.Dir(repo))
	})

	t.Run("relative checkout resolves against the working directory", func(t *testing.T) {
		work := t.TempDir()
		t.Chdir(work)
		f, executor, _ := newFlutter(t, filepath.Join("app", "flutter"))

		assert.Equal(t, filepath.Join(work, "app", "flutter"), f.Root())
		want := domain.NewCommand(
			"/usr/bin/git", "clone", "https://github.com/flutter/flutter",
			"--depth", "1", "--branch", "stable", "flutter",
		).WithDir(filepath.Join(work, "app"))
		executor.EXPECT().Run(gomock.Any(), want).Return(nil)

		require.NoError(t, f.Sync(context.Background()))
		assert.DirExists(t, filepath.Join(work, "app"))
	})

	t.Run("pulls when present", func(t *testing.T) {
		repo := checkout(t)
		f, executor, _ := newFlutter(t, repo)

		want := domain.NewCommand("/usr/bin/git", "pull", "origin", "stable").WithDir(repo)
		executor.EXPECT().Run(gomock.Any(), want).Return(nil)

		require.NoError(t, f.Sync(context.Background()))
	})

	t.Run("rejects directory without git metadata", func(t *testing.T) {
		repo := t.TempDir()
		f, _, _ := newFlutter(t, repo)

		err := f.Sync(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidCheckout))
	})
}

func TestFlutter_PreparePub(t *testing.T) {
	repo := checkout(t)
	f, executor, _ := newFlutter(t, repo)
	executor.EXPECT().Output(gomock.Any(), gomock.Any()).Return("3.7.12", nil).Times(2)

	hostDir, err := f.EngineDir(host)
	require.NoError(t, err)
	skyEngine := filepath.Join(hostDir, "sky_engine")
	require.NoError(t, os.MkdirAll(skyEngine, 0o750))

	// Running twice replaces the stale link.
	require.NoError(t, f.PreparePub(context.Background()))
	require.NoError(t, f.PreparePub(context.Background()))

	version, err := os.ReadFile(filepath.Join(repo, "version"))
	require.NoError(t, err)
	assert.Equal(t, "3.7.12", string(version))

	link, err := os.Readlink(filepath.Join(repo, "bin", "cache", "pkg", "sky_engine"))
	require.NoError(t, err)
	assert.Equal(t, skyEngine, link)
}

func TestFlutter_PubCommand(t *testing.T) {
	repo := checkout(t)
	f, _, _ := newFlutter(t, repo)

	hostDir, err := f.EngineDir(host)
	require.NoError(t, err)
	dart := filepath.Join(hostDir, "dart-sdk", "bin", "dart")
	writeFile(t, dart, "")

	cmd, err := f.PubCommand("/app", true)
	require.NoError(t, err)
	assert.Equal(t, []string{dart, "pub", "upgrade", "--no-precompile"}, cmd.Argv())
	assert.Equal(t, "/app", cmd.Dir)
	assert.Equal(t, repo, cmd.Env["FLUTTER_ROOT"])
}
