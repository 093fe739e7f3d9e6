package pipeline_test

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.trai.ch/xbuild/internal/core/domain"
	"go.trai.ch/xbuild/internal/core/ports/mocks"
	"go.trai.ch/xbuild/internal/engine/buildenv"
	"go.trai.ch/xbuild/internal/engine/toolchain"
	"go.uber.org/mock/gomock"
)

const engineVersion = "e1e1"

var linuxHost = domain.NewCompileTarget(domain.Linux, domain.X64, domain.Debug)

type fixture struct {
	root     string
	env      *buildenv.Env
	executor *mocks.MockExecutor
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, nil, 0o600))
}

// newFixture lays out an application, a Flutter checkout and the engine artifacts the
// selected target needs, all below one temporary root.
func newFixture(t *testing.T, platform domain.Platform, opt domain.Opt, archs ...domain.Arch) *fixture {
	t.Helper()
	if len(archs) == 0 {
		archs = []domain.Arch{domain.Arm64}
	}

	root := t.TempDir()
	app := filepath.Join(root, "app")
	repo := filepath.Join(root, "flutter")
	cache := filepath.Join(root, "cache")

	touch(t, filepath.Join(app, "lib", "main.dart"))
	require.NoError(t, os.MkdirAll(filepath.Join(repo, ".git"), 0o750))
	internal := filepath.Join(repo, "bin", "internal")
	require.NoError(t, os.MkdirAll(internal, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(internal, "engine.version"), []byte(engineVersion), 0o600))

	hostDir := domain.EnginePath(cache, engineVersion, linuxHost)
	touch(t, filepath.Join(hostDir, "dart-sdk", "bin", "dart"))
	touch(t, filepath.Join(hostDir, "frontend_server.dart.snapshot"))
	require.NoError(t, os.MkdirAll(filepath.Join(hostDir, "flutter_patched_sdk"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(hostDir, "flutter_patched_sdk_product"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(hostDir, "sky_engine"), 0o750))

	target := domain.BuildTarget{Platform: platform, Archs: archs, Opt: opt}
	for _, ct := range target.CompileTargets() {
		dir := domain.EnginePath(cache, engineVersion, ct)
		touch(t, filepath.Join(dir, "gen_snapshot"))
		touch(t, filepath.Join(dir, "gen_snapshot_arm64"))
	}

	ctrl := gomock.NewController(t)
	locator := mocks.NewMockToolLocator(ctrl)
	locator.EXPECT().Locate("git").Return("/usr/bin/git", nil)
	executor := mocks.NewMockExecutor(ctrl)

	flutter, err := toolchain.New(repo, cache, linuxHost, locator, executor)
	require.NoError(t, err)

	env, err := buildenv.New(buildenv.Config{
		Target:     target,
		Host:       linuxHost,
		Root:       app,
		CacheDir:   cache,
		AndroidSDK: filepath.Join(root, "android-sdk"),
	}, flutter)
	require.NoError(t, err)

	return &fixture{root: root, env: env, executor: executor}
}

// render prints a command one argument per line with the fixture root replaced.
func (f *fixture) render(cmds ...domain.Command) []byte {
	var b strings.Builder
	for i, cmd := range cmds {
		if i > 0 {
			b.WriteString("\n")
		}
		if cmd.Dir != "" {
			fmt.Fprintf(&b, "dir: %s\n", cmd.Dir)
		}
		keys := make([]string, 0, len(cmd.Env))
		for k := range cmd.Env {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "env: %s=%s\n", k, cmd.Env[k])
		}
		for _, arg := range cmd.Argv() {
			b.WriteString(arg + "\n")
		}
	}
	return []byte(strings.ReplaceAll(b.String(), f.root, "$ROOT"))
}
