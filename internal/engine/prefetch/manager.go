// Package prefetch downloads the SDKs and engine artifacts a build needs.
package prefetch

import (
	"context"
	"fmt"
	"slices"

	"go.trai.ch/xbuild/internal/core/domain"
	"go.trai.ch/xbuild/internal/core/ports"
	"go.trai.ch/xbuild/internal/engine/buildenv"
	"go.trai.ch/zerr"
)

const (
	sdkOrg     = "cloudpeers"
	sdkRepo    = "x"
	sdkRelease = "v0.1.0+2"

	engineRepo = "flutter-engine"

	fontsBaseURL     = "https://storage.googleapis.com/"
	mavenBaseURL     = "https://dl.google.com/android/maven2/"
	embeddingBaseURL = "https://storage.googleapis.com/download.flutter.io/"
)

// Manager fetches the artifacts required by a build environment.
type Manager struct {
	env     *buildenv.Env
	fetcher ports.Fetcher
	tracer  ports.Tracer
}

// NewManager creates a Manager.
func NewManager(env *buildenv.Env, fetcher ports.Fetcher, tracer ports.Tracer) *Manager {
	return &Manager{env: env, fetcher: fetcher, tracer: tracer}
}

// Prefetch fetches everything the selected target needs.
// buildDex additionally fetches the jars used to build classes.dex.
func (m *Manager) Prefetch(ctx context.Context, buildDex bool) error {
	target := m.env.Target().Platform
	host := m.env.Host().Platform()

	if err := m.platformSDKs(ctx, target, host); err != nil {
		return err
	}

	if m.env.Flutter() == nil {
		return nil
	}

	for _, t := range m.engineTargets() {
		if err := m.FlutterEngine(ctx, t); err != nil {
			return err
		}
	}
	if err := m.MaterialFonts(ctx); err != nil {
		return err
	}

	if buildDex && target == domain.Android {
		if err := m.R8(ctx); err != nil {
			return err
		}
		return m.FlutterEmbedding(ctx)
	}
	return nil
}

func (m *Manager) platformSDKs(ctx context.Context, target, host domain.Platform) error {
	switch target {
	case domain.Linux:
		if host != domain.Linux {
			return zerr.With(
				zerr.Wrap(domain.ErrUnsupportedCombination, "cross compiling to linux is not supported"),
				"host", host.String(),
			)
		}
	case domain.Windows:
		if host != domain.Windows {
			return m.WindowsSDK(ctx)
		}
	case domain.Macos:
		if host != domain.Macos {
			return m.MacosSDK(ctx)
		}
	case domain.Android:
		if err := m.AndroidNDK(ctx); err != nil {
			return err
		}
		return m.AndroidJar(ctx)
	case domain.Ios:
		return m.IosSDK(ctx)
	}
	return nil
}

// engineTargets returns the requested compile targets followed by the host-Debug target,
// without duplicates.
func (m *Manager) engineTargets() []domain.CompileTarget {
	targets := m.env.CompileTargets()
	if !slices.Contains(targets, m.env.Host()) {
		targets = append(targets, m.env.Host())
	}
	return targets
}

// WindowsSDK fetches the Windows SDK. Symlinks are skipped unless the host is Windows.
func (m *Manager) WindowsSDK(ctx context.Context) error {
	item := domain.GithubRelease(m.env.WindowsSDK(), sdkOrg, sdkRepo, sdkRelease, "Windows.sdk.tar.zst")
	if m.env.Host().Platform() != domain.Windows {
		item = item.NoSymlinks()
	}
	return m.fetch(ctx, item)
}

// MacosSDK fetches the macOS SDK. Colon entries are skipped on Windows hosts.
func (m *Manager) MacosSDK(ctx context.Context) error {
	item := domain.GithubRelease(m.env.MacosSDK(), sdkOrg, sdkRepo, sdkRelease, "MacOSX.sdk.tar.zst")
	return m.fetch(ctx, m.noColonsOnWindows(item))
}

// AndroidNDK fetches the Android NDK.
func (m *Manager) AndroidNDK(ctx context.Context) error {
	item := domain.GithubRelease(m.env.AndroidNDK(), sdkOrg, sdkRepo, sdkRelease, "Android.ndk.tar.zst")
	return m.fetch(ctx, item)
}

// IosSDK fetches the iOS SDK. Colon entries are skipped on Windows hosts.
func (m *Manager) IosSDK(ctx context.Context) error {
	item := domain.GithubRelease(m.env.IosSDK(), sdkOrg, sdkRepo, sdkRelease, "iPhoneOS.sdk.tar.zst")
	return m.fetch(ctx, m.noColonsOnWindows(item))
}

// AndroidJar fetches the platform jar of the target SDK level into the Android SDK.
func (m *Manager) AndroidJar(ctx context.Context) error {
	artifact := fmt.Sprintf("android-%d.jar", m.env.TargetSDKVersion())
	item := domain.GithubRelease(m.env.AndroidJar(), sdkOrg, sdkRepo, sdkRelease, artifact)
	return m.fetch(ctx, item)
}

// FlutterEngine fetches the engine artifacts for target.
func (m *Manager) FlutterEngine(ctx context.Context, target domain.CompileTarget) error {
	flutter := m.env.Flutter()
	version, err := flutter.EngineVersion()
	if err != nil {
		return err
	}
	output, err := flutter.EngineDir(target)
	if err != nil {
		return err
	}

	artifact := fmt.Sprintf("engine-%s-%s-%s.tar.zst", target.Platform(), target.Arch(), target.Opt())
	item := domain.GithubRelease(output, sdkOrg, engineRepo, "f-"+version, artifact).ExtractToOutput()
	return m.fetch(ctx, item)
}

// MaterialFonts fetches the material icon fonts.
func (m *Manager) MaterialFonts(ctx context.Context) error {
	flutter := m.env.Flutter()
	marker, err := flutter.MaterialFontsMarker()
	if err != nil {
		return err
	}
	output, err := flutter.MaterialFonts()
	if err != nil {
		return err
	}
	return m.fetch(ctx, domain.NewWorkItem(output, fontsBaseURL+marker).ExtractToOutput())
}

// R8 fetches the r8 jar providing D8.
func (m *Manager) R8(ctx context.Context) error {
	url := fmt.Sprintf("%scom/android/tools/r8/%s/r8-%s.jar", mavenBaseURL, buildenv.R8Version, buildenv.R8Version)
	return m.fetch(ctx, domain.NewWorkItem(m.env.R8Jar(), url))
}

// FlutterEmbedding fetches the Java embedding jar matching the engine version.
func (m *Manager) FlutterEmbedding(ctx context.Context) error {
	version, err := m.env.Flutter().EngineVersion()
	if err != nil {
		return err
	}
	opt := m.env.Target().Opt
	url := fmt.Sprintf(
		"%sio/flutter/flutter_embedding_%s/1.0.0-%s/flutter_embedding_%s-1.0.0-%s.jar",
		embeddingBaseURL, opt, version, opt, version,
	)
	return m.fetch(ctx, domain.NewWorkItem(m.env.FlutterEmbeddingJar(version), url))
}

func (m *Manager) noColonsOnWindows(item domain.WorkItem) domain.WorkItem {
	if m.env.Host().Platform() == domain.Windows {
		return item.NoColons()
	}
	return item
}

// fetch runs one fetch inside its own span.
func (m *Manager) fetch(ctx context.Context, item domain.WorkItem) error {
	ctx, span := m.tracer.Start(ctx, "fetch "+item.Name())
	defer span.End()

	span.SetAttribute(ports.AttrURL, item.URL())
	if err := m.fetcher.Fetch(ctx, item); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}
