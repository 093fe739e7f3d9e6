// Package buildenv aggregates the resolved paths and target selection of a build.
package buildenv

import (
	"fmt"
	"os"
	"path/filepath"

	"go.trai.ch/xbuild/internal/core/domain"
	"go.trai.ch/xbuild/internal/engine/toolchain"
	"go.trai.ch/zerr"
)

const (
	// R8Version is the D8/R8 release used to build classes.dex.
	R8Version = "3.3.28"

	elfSnapshotName   = "libapp.so"
	appleSnapshotName = "App"
	emptyDylibName    = "libEmpty.dylib"
)

// Config is the input to New.
type Config struct {
	Target           domain.BuildTarget
	Host             domain.CompileTarget
	Root             string
	Entry            string
	BuildDir         string
	CacheDir         string
	AndroidSDK       string
	TargetSDKVersion int
	Verbose          bool
}

// ConfigFromManifest derives a Config from a loaded manifest.
func ConfigFromManifest(m *domain.Manifest, host domain.CompileTarget, verbose bool) Config {
	return Config{
		Target:           m.Target,
		Host:             host,
		Root:             m.Root,
		Entry:            m.Entry,
		BuildDir:         m.BuildDir,
		CacheDir:         m.CacheDir,
		AndroidSDK:       m.AndroidSDK,
		TargetSDKVersion: m.TargetSDKVersion,
		Verbose:          verbose,
	}
}

// Env is the read-only context shared by every pipeline stage.
type Env struct {
	target     domain.BuildTarget
	host       domain.CompileTarget
	root       string
	entry      string
	buildDir   string
	cacheDir   string
	androidSDK string
	targetSDK  int
	verbose    bool
	flutter    *toolchain.Flutter
}

// New resolves and validates cfg. flutter may be nil when no checkout is configured.
// Nothing is fetched or created.
func New(cfg Config, flutter *toolchain.Flutter) (*Env, error) {
	if len(cfg.Target.Archs) == 0 {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidEnv, "no architecture selected"), "platform", cfg.Target.Platform.String())
	}

	root, err := absolute(cfg.Root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidEnv, "application root does not exist"), "path", root)
	}

	env := &Env{
		target:    cfg.Target,
		host:      cfg.Host,
		root:      root,
		targetSDK: cfg.TargetSDKVersion,
		verbose:   cfg.Verbose,
		flutter:   flutter,
	}
	if env.targetSDK == 0 {
		env.targetSDK = domain.DefaultTargetSDKVersion
	}

	if env.buildDir, err = absoluteIn(root, cfg.BuildDir, "build"); err != nil {
		return nil, err
	}
	if env.cacheDir, err = absolute(cfg.CacheDir); err != nil {
		return nil, err
	}
	if cfg.AndroidSDK != "" {
		if env.androidSDK, err = absolute(cfg.AndroidSDK); err != nil {
			return nil, err
		}
	}

	if flutter != nil {
		if env.entry, err = absoluteIn(root, cfg.Entry, "lib/main.dart"); err != nil {
			return nil, err
		}
		if _, err := os.Stat(env.entry); err != nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidEnv, "entry file does not exist"), "path", env.entry)
		}
	}

	if cfg.Target.Platform == domain.Android && env.androidSDK == "" {
		return nil, zerr.Wrap(domain.ErrInvalidEnv, "android targets require an Android SDK directory")
	}

	return env, nil
}

func absolute(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", zerr.With(zerr.Wrap(domain.ErrInvalidEnv, err.Error()), "path", path)
	}
	return abs, nil
}

func absoluteIn(base, path, fallback string) (string, error) {
	if path == "" {
		path = fallback
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(base, path)
	}
	return absolute(path)
}

// Target returns the selected build target.
func (e *Env) Target() domain.BuildTarget { return e.target }

// CompileTargets returns one compile target per selected architecture.
func (e *Env) CompileTargets() []domain.CompileTarget { return e.target.CompileTargets() }

// Host returns the host-Debug compile target.
func (e *Env) Host() domain.CompileTarget { return e.host }

// Root returns the application root.
func (e *Env) Root() string { return e.root }

// Entry returns the absolute Dart entry file. Empty without a Flutter checkout.
func (e *Env) Entry() string { return e.entry }

// BuildDir returns the build output directory.
func (e *Env) BuildDir() string { return e.buildDir }

// CacheDir returns the artifact cache root.
func (e *Env) CacheDir() string { return e.cacheDir }

// Verbose reports whether tool output is streamed.
func (e *Env) Verbose() bool { return e.verbose }

// Flutter returns the toolchain handle, or nil.
func (e *Env) Flutter() *toolchain.Flutter { return e.flutter }

// AndroidSDK returns the Android SDK directory.
func (e *Env) AndroidSDK() string { return e.androidSDK }

// TargetSDKVersion returns the Android platform level.
func (e *Env) TargetSDKVersion() int { return e.targetSDK }

// AndroidJar returns the platform jar of the target SDK level.
func (e *Env) AndroidJar() string {
	return filepath.Join(e.androidSDK, "platforms", fmt.Sprintf("android-%d", e.targetSDK), "android.jar")
}

// WindowsSDK returns the cached Windows SDK.
func (e *Env) WindowsSDK() string { return filepath.Join(e.cacheDir, domain.WindowsSDKDirName) }

// MacosSDK returns the cached macOS SDK.
func (e *Env) MacosSDK() string { return filepath.Join(e.cacheDir, domain.MacosSDKDirName) }

// AndroidNDK returns the cached Android NDK.
func (e *Env) AndroidNDK() string { return filepath.Join(e.cacheDir, domain.AndroidNDKDirName) }

// IosSDK returns the cached iOS SDK.
func (e *Env) IosSDK() string { return filepath.Join(e.cacheDir, domain.IosSDKDirName) }

// IosSDKRoot returns the sysroot for iOS compilation, or "" when the host toolchain provides one.
func (e *Env) IosSDKRoot() string {
	if e.host.Platform() == domain.Macos {
		return ""
	}
	return e.IosSDK()
}

// R8Jar returns the cached r8 jar.
func (e *Env) R8Jar() string {
	return filepath.Join(domain.JavaPath(e.cacheDir), "r8-"+R8Version+".jar")
}

// FlutterEmbeddingJar returns the cached embedding jar for an engine version.
func (e *Env) FlutterEmbeddingJar(engineVersion string) string {
	name := fmt.Sprintf("flutter_embedding_%s-1.0.0-%s.jar", e.target.Opt, engineVersion)
	return filepath.Join(domain.JavaPath(e.cacheDir), name)
}

// KernelBlob returns the kernel output path.
func (e *Env) KernelBlob() string { return domain.KernelBlobPath(e.buildDir, e.target.Opt) }

// Depfile returns the kernel dependency file path.
func (e *Env) Depfile() string { return domain.DepfilePath(e.KernelBlob()) }

// TargetBuildDir returns the intermediate directory for target.
func (e *Env) TargetBuildDir(target domain.CompileTarget) string {
	return domain.TargetBuildDir(e.buildDir, target)
}

// Snapshot returns the AOT snapshot path for target.
func (e *Env) Snapshot(target domain.CompileTarget) string {
	name := elfSnapshotName
	if target.Platform().IsApple() {
		name = appleSnapshotName
	}
	return filepath.Join(e.TargetBuildDir(target), name)
}

// DexDir returns the directory classes.dex is written to.
func (e *Env) DexDir() string {
	return filepath.Join(e.buildDir, e.target.Opt.String(), domain.Android.String(), "dex")
}

// EmptyDylib returns the placeholder library built for target.
func (e *Env) EmptyDylib(target domain.CompileTarget) string {
	return filepath.Join(e.TargetBuildDir(target), emptyDylibName)
}
