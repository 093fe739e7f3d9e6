// Package config provides the manifest loader for xbuild.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"go.trai.ch/xbuild/internal/core/domain"
	"go.trai.ch/xbuild/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// DefaultEntry is the application entry point relative to the root.
const DefaultEntry = "lib/main.dart"

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

var _ ports.ConfigLoader = (*Loader)(nil)

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load finds xbuild.yaml in cwd or a parent directory and resolves it.
func (l *Loader) Load(cwd string) (*domain.Manifest, error) {
	configPath, err := findManifest(cwd)
	if err != nil {
		return nil, err
	}
	return l.LoadFile(configPath)
}

// LoadFile reads and resolves the manifest at configPath.
// Relative paths in the manifest resolve against its absolute directory.
func (l *Loader) LoadFile(configPath string) (*domain.Manifest, error) {
	configPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, zerr.With(errors.Join(domain.ErrConfigReadFailed, err), "path", configPath)
	}

	var dto Manifest
	if err := readAndUnmarshalYAML(configPath, &dto); err != nil {
		return nil, err
	}

	manifest, err := l.resolve(configPath, &dto)
	if err != nil {
		return nil, zerr.With(err, "config", configPath)
	}
	return manifest, nil
}

func (l *Loader) resolve(configPath string, dto *Manifest) (*domain.Manifest, error) {
	configDir := filepath.Dir(configPath)
	root := resolvePath(configDir, dto.Root, configDir)

	target, err := resolveTarget(dto.Target)
	if err != nil {
		return nil, err
	}

	m := &domain.Manifest{
		Name:             dto.Name,
		Root:             root,
		BuildDir:         resolvePath(root, dto.Build, filepath.Join(root, "build")),
		CacheDir:         resolvePath(configDir, dto.Cache, DefaultCacheDir()),
		Target:           target,
		TargetSDKVersion: domain.DefaultTargetSDKVersion,
	}
	if m.Name == "" {
		m.Name = filepath.Base(root)
	}

	if dto.Flutter != nil {
		m.FlutterRepo = resolvePath(configDir, dto.Flutter.Repo, DefaultFlutterRepo())
		m.Entry = resolvePath(root, dto.Flutter.Entry, filepath.Join(root, DefaultEntry))
	}

	m.AndroidSDK = defaultAndroidSDK()
	if dto.Android != nil {
		if dto.Android.SDK != "" {
			m.AndroidSDK = resolvePath(configDir, dto.Android.SDK, "")
		}
		if dto.Android.TargetSDKVersion != 0 {
			m.TargetSDKVersion = dto.Android.TargetSDKVersion
		}
	}

	if target.Platform == domain.Android && m.AndroidSDK == "" {
		l.Logger.Warn("android target selected but no SDK configured; set android.sdk or ANDROID_HOME")
	}

	return m, nil
}

// resolveTarget parses the target section, defaulting to a debug build for the host.
func resolveTarget(dto TargetDTO) (domain.BuildTarget, error) {
	var target domain.BuildTarget
	var err error

	if dto.Platform == "" {
		target.Platform, err = domain.HostPlatform()
	} else {
		target.Platform, err = domain.ParsePlatform(dto.Platform)
	}
	if err != nil {
		return target, err
	}

	for _, s := range dto.Archs {
		arch, err := domain.ParseArch(s)
		if err != nil {
			return target, err
		}
		target.Archs = append(target.Archs, arch)
	}
	if len(target.Archs) == 0 {
		arch, err := domain.HostArch()
		if err != nil {
			return target, err
		}
		target.Archs = []domain.Arch{arch}
	}

	target.Opt = domain.Debug
	if dto.Opt != "" {
		if target.Opt, err = domain.ParseOpt(dto.Opt); err != nil {
			return target, err
		}
	}

	return target, nil
}

func findManifest(cwd string) (string, error) {
	currentDir, err := filepath.Abs(cwd)
	if err != nil {
		return "", zerr.With(errors.Join(domain.ErrConfigNotFound, err), "cwd", cwd)
	}

	for {
		candidate := filepath.Join(currentDir, domain.ManifestFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return "", zerr.With(zerr.Wrap(domain.ErrConfigNotFound, "no manifest in the working directory or its parents"), "cwd", cwd)
}

// resolvePath makes configured relative to base, or returns fallback when it is empty.
func resolvePath(base, configured, fallback string) string {
	if configured == "" {
		return fallback
	}
	if filepath.IsAbs(configured) {
		return filepath.Clean(configured)
	}
	return filepath.Clean(filepath.Join(base, configured))
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is discovered by findManifest or given by the user
	data, err := os.ReadFile(configPath)
	if err != nil {
		return zerr.With(errors.Join(domain.ErrConfigReadFailed, err), "path", configPath)
	}

	if err := yaml.Unmarshal(data, target); err != nil {
		return zerr.With(errors.Join(domain.ErrConfigParseFailed, err), "path", configPath)
	}

	return nil
}
