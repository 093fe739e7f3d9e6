package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/xbuild/internal/core/domain"
)

func TestParseTarget(t *testing.T) {
	p, err := domain.ParsePlatform("android")
	require.NoError(t, err)
	assert.Equal(t, domain.Android, p)

	a, err := domain.ParseArch("arm64")
	require.NoError(t, err)
	assert.Equal(t, domain.Arm64, a)

	o, err := domain.ParseOpt("release")
	require.NoError(t, err)
	assert.Equal(t, domain.Release, o)

	_, err = domain.ParsePlatform("beos")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidTarget))
	assert.Contains(t, err.Error(), "beos")

	_, err = domain.ParseArch("mips")
	assert.True(t, errors.Is(err, domain.ErrInvalidTarget))

	_, err = domain.ParseOpt("fast")
	assert.True(t, errors.Is(err, domain.ErrInvalidTarget))
}

func TestHostDetection(t *testing.T) {
	// The test binary always runs on a supported host.
	p, err := domain.HostPlatform()
	require.NoError(t, err)
	assert.Contains(t, domain.Platforms, p)

	a, err := domain.HostArch()
	require.NoError(t, err)
	assert.Contains(t, domain.Archs, a)
}

func TestCompileTarget_KeySeparation(t *testing.T) {
	const cache = "/cache"
	const version = "abc123"

	base := domain.NewCompileTarget(domain.Android, domain.Arm64, domain.Release)
	variants := []domain.CompileTarget{
		domain.NewCompileTarget(domain.Ios, domain.Arm64, domain.Release),
		domain.NewCompileTarget(domain.Android, domain.X64, domain.Release),
		domain.NewCompileTarget(domain.Android, domain.Arm64, domain.Debug),
	}

	for _, v := range variants {
		assert.NotEqual(t, base, v)
		assert.NotEqual(t, domain.EnginePath(cache, version, base), domain.EnginePath(cache, version, v))
	}

	assert.Equal(t, base, domain.NewCompileTarget(domain.Android, domain.Arm64, domain.Release))
	assert.Equal(t, "/cache/engine/abc123/release/android/arm64", domain.EnginePath(cache, version, base))
}

func TestBuildTarget_CompileTargets(t *testing.T) {
	bt := domain.BuildTarget{
		Platform: domain.Macos,
		Archs:    []domain.Arch{domain.X64, domain.Arm64},
		Opt:      domain.Debug,
	}

	got := bt.CompileTargets()
	require.Len(t, got, 2)
	assert.Equal(t, domain.NewCompileTarget(domain.Macos, domain.X64, domain.Debug), got[0])
	assert.Equal(t, domain.NewCompileTarget(domain.Macos, domain.Arm64, domain.Debug), got[1])
}

func TestArch_ClangArch(t *testing.T) {
	assert.Equal(t, "x86_64", domain.X64.ClangArch())
	assert.Equal(t, "arm64", domain.Arm64.ClangArch())
}

func TestWorkItem(t *testing.T) {
	item := domain.GithubRelease("/cache/Windows.sdk", "cloudpeers", "x", "v0.1.0+2", "Windows.sdk.tar.zst")

	assert.Equal(t, "https://github.com/cloudpeers/x/releases/download/v0.1.0+2/Windows.sdk.tar.zst", item.URL())
	assert.Equal(t, "Windows.sdk.tar.zst", item.Name())
	assert.False(t, item.SkipSymlinks())
	assert.False(t, item.SkipColons())

	filtered := item.NoSymlinks().NoColons()
	assert.True(t, filtered.SkipSymlinks())
	assert.True(t, filtered.SkipColons())
	assert.False(t, item.SkipSymlinks(), "builders must not mutate the receiver")
}

func TestCommand_WithEnv(t *testing.T) {
	base := domain.NewCommand("clang", "-c").WithEnv("A", "1")
	derived := base.WithEnv("B", "2")

	assert.Equal(t, map[string]string{"A": "1"}, base.Env)
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, derived.Env)
	assert.Equal(t, []string{"clang", "-c"}, derived.Argv())
}
