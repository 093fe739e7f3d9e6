package pipeline_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/xbuild/internal/core/domain"
	"go.trai.ch/xbuild/internal/engine/pipeline"
)

func TestKernelCommand(t *testing.T) {
	tests := []struct {
		golden   string
		platform domain.Platform
		opt      domain.Opt
	}{
		{golden: "kernel_release", platform: domain.Android, opt: domain.Release},
		{golden: "kernel_debug", platform: domain.Linux, opt: domain.Debug},
	}

	for _, tt := range tests {
		t.Run(tt.golden, func(t *testing.T) {
			f := newFixture(t, tt.platform, tt.opt)

			cmd, err := pipeline.KernelCommand(f.env)
			require.NoError(t, err)

			goldie.New(t).Assert(t, tt.golden, f.render(cmd))
		})
	}
}

func TestKernelCommand_MissingHostArtifact(t *testing.T) {
	f := newFixture(t, domain.Android, domain.Release)
	hostDir := domain.EnginePath(filepath.Join(f.root, "cache"), engineVersion, linuxHost)
	require.NoError(t, os.Remove(filepath.Join(hostDir, "frontend_server.dart.snapshot")))

	_, err := pipeline.KernelCommand(f.env)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMissingArtifact))
	assert.Contains(t, err.Error(), "frontend_server.dart.snapshot")
}

func TestELFSnapshotCommand(t *testing.T) {
	f := newFixture(t, domain.Android, domain.Release)
	target := domain.NewCompileTarget(domain.Android, domain.Arm64, domain.Release)

	cmd, err := pipeline.ELFSnapshotCommand(f.env, target)
	require.NoError(t, err)

	goldie.New(t).Assert(t, "elf_android_arm64", f.render(cmd))
}

func TestAppleSnapshotCommands(t *testing.T) {
	f := newFixture(t, domain.Ios, domain.Release)
	target := domain.NewCompileTarget(domain.Ios, domain.Arm64, domain.Release)

	cmds, err := pipeline.AppleSnapshotCommands(f.env, target)
	require.NoError(t, err)
	require.Len(t, cmds, 3)

	goldie.New(t).Assert(t, "apple_ios_arm64", f.render(cmds...))
}

func TestAppleSnapshotCommands_Macos(t *testing.T) {
	f := newFixture(t, domain.Macos, domain.Release, domain.X64)
	target := domain.NewCompileTarget(domain.Macos, domain.X64, domain.Release)

	cmds, err := pipeline.AppleSnapshotCommands(f.env, target)
	require.NoError(t, err)
	require.Len(t, cmds, 3)

	assert.Equal(t, "gen_snapshot", filepath.Base(cmds[0].Path))
	assert.Equal(t, []string{"clang", "-c"}, cmds[1].Argv()[:2])
	assert.Contains(t, cmds[1].Args, "x86_64")
	assert.NotContains(t, cmds[1].Args, "-miphoneos-version-min=9.0")
	assert.Empty(t, cmds[2].Env)
}

func TestDexCommand(t *testing.T) {
	f := newFixture(t, domain.Android, domain.Release)

	cmd, err := pipeline.DexCommand(f.env)
	require.NoError(t, err)

	goldie.New(t).Assert(t, "dex_release", f.render(cmd))
}

func TestEmptyDylibCommand(t *testing.T) {
	f := newFixture(t, domain.Ios, domain.Debug)
	target := domain.NewCompileTarget(domain.Ios, domain.Arm64, domain.Debug)

	goldie.New(t).Assert(t, "empty_dylib_ios", f.render(pipeline.EmptyDylibCommand(f.env, target)))
}
