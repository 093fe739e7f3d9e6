package buildenv_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/xbuild/internal/core/domain"
	"go.trai.ch/xbuild/internal/core/ports/mocks"
	"go.trai.ch/xbuild/internal/engine/buildenv"
	"go.trai.ch/xbuild/internal/engine/toolchain"
	"go.uber.org/mock/gomock"
)

func flutter(t *testing.T) *toolchain.Flutter {
	t.Helper()
	ctrl := gomock.NewController(t)
	locator := mocks.NewMockToolLocator(ctrl)
	locator.EXPECT().Locate("git").Return("/usr/bin/git", nil)

	host := domain.NewCompileTarget(domain.Linux, domain.X64, domain.Debug)
	f, err := toolchain.New(t.TempDir(), t.TempDir(), host, locator, mocks.NewMockExecutor(ctrl))
	require.NoError(t, err)
	return f
}

func baseConfig(t *testing.T) buildenv.Config {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "lib"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "lib", "main.dart"), []byte("void main() {}\n"), 0o600))

	return buildenv.Config{
		Target: domain.BuildTarget{
			Platform: domain.Android,
			Archs:    []domain.Arch{domain.Arm64},
			Opt:      domain.Release,
		},
		Host:       domain.NewCompileTarget(domain.Linux, domain.X64, domain.Debug),
		Root:       root,
		CacheDir:   filepath.Join(root, ".cache"),
		AndroidSDK: filepath.Join(root, "android-sdk"),
	}
}

func TestNew_ResolvesPaths(t *testing.T) {
	cfg := baseConfig(t)
	env, err := buildenv.New(cfg, flutter(t))
	require.NoError(t, err)

	root := cfg.Root
	target := domain.NewCompileTarget(domain.Android, domain.Arm64, domain.Release)

	assert.Equal(t, filepath.Join(root, "lib", "main.dart"), env.Entry())
	assert.Equal(t, filepath.Join(root, "build"), env.BuildDir())
	assert.Equal(t, domain.DefaultTargetSDKVersion, env.TargetSDKVersion())
	assert.Equal(t, filepath.Join(root, "android-sdk", "platforms", "android-33", "android.jar"), env.AndroidJar())
	assert.Equal(t, filepath.Join(root, "build", "release", "kernel_blob.bin"), env.KernelBlob())
	assert.Equal(t, filepath.Join(root, "build", "release", "kernel_blob.bin.d"), env.Depfile())
	assert.Equal(t, filepath.Join(root, "build", "release", "android", "arm64", "libapp.so"), env.Snapshot(target))
	assert.Equal(t, filepath.Join(root, ".cache", "Windows.sdk"), env.WindowsSDK())
	assert.Equal(t, filepath.Join(root, ".cache", "java", "r8-"+buildenv.R8Version+".jar"), env.R8Jar())
	assert.Equal(t,
		filepath.Join(root, ".cache", "java", "flutter_embedding_release-1.0.0-abc.jar"),
		env.FlutterEmbeddingJar("abc"),
	)
	assert.Equal(t, []domain.CompileTarget{target}, env.CompileTargets())
}

func TestNew_AppleSnapshot(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Target.Platform = domain.Ios
	env, err := buildenv.New(cfg, nil)
	require.NoError(t, err)

	target := domain.NewCompileTarget(domain.Ios, domain.Arm64, domain.Release)
	assert.Equal(t, filepath.Join(cfg.Root, "build", "release", "ios", "arm64", "App"), env.Snapshot(target))
	assert.Equal(t, env.IosSDK(), env.IosSDKRoot(), "non-mac hosts compile against the cached SDK")
	assert.Empty(t, env.Entry())
}

func TestNew_FetchesNothing(t *testing.T) {
	cfg := baseConfig(t)
	_, err := buildenv.New(cfg, flutter(t))
	require.NoError(t, err)

	assert.NoDirExists(t, cfg.CacheDir)
	assert.NoDirExists(t, filepath.Join(cfg.Root, "build"))
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*buildenv.Config)
		flutter bool
	}{
		{
			name:   "missing root",
			mutate: func(c *buildenv.Config) { c.Root = filepath.Join(c.Root, "missing") },
		},
		{
			name:    "missing entry",
			mutate:  func(c *buildenv.Config) { c.Entry = "lib/app.dart" },
			flutter: true,
		},
		{
			name:   "android without sdk",
			mutate: func(c *buildenv.Config) { c.AndroidSDK = "" },
		},
		{
			name:   "no architectures",
			mutate: func(c *buildenv.Config) { c.Target.Archs = nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig(t)
			tt.mutate(&cfg)

			var f *toolchain.Flutter
			if tt.flutter {
				f = flutter(t)
			}

			_, err := buildenv.New(cfg, f)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidEnv))
		})
	}
}

func TestConfigFromManifest(t *testing.T) {
	m := &domain.Manifest{
		Root:             "/app",
		BuildDir:         "/app/build",
		CacheDir:         "/cache",
		Entry:            "/app/lib/main.dart",
		AndroidSDK:       "/sdk",
		TargetSDKVersion: 31,
		Target:           domain.BuildTarget{Platform: domain.Linux, Archs: []domain.Arch{domain.X64}, Opt: domain.Debug},
	}
	host := domain.NewCompileTarget(domain.Linux, domain.X64, domain.Debug)

	cfg := buildenv.ConfigFromManifest(m, host, true)
	assert.Equal(t, m.Target, cfg.Target)
	assert.Equal(t, host, cfg.Host)
	assert.Equal(t, "/sdk", cfg.AndroidSDK)
	assert.Equal(t, 31, cfg.TargetSDKVersion)
	assert.True(t, cfg.Verbose)
}
