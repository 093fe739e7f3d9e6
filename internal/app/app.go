// Package app implements the application layer for xbuild.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.trai.ch/xbuild/internal/adapters/cas"
	"go.trai.ch/xbuild/internal/adapters/config"
	"go.trai.ch/xbuild/internal/adapters/detector"
	"go.trai.ch/xbuild/internal/adapters/fetch"
	"go.trai.ch/xbuild/internal/adapters/linear"
	"go.trai.ch/xbuild/internal/adapters/telemetry"
	"go.trai.ch/xbuild/internal/core/domain"
	"go.trai.ch/xbuild/internal/core/ports"
	"go.trai.ch/xbuild/internal/engine/buildenv"
	"go.trai.ch/xbuild/internal/engine/pipeline"
	"go.trai.ch/xbuild/internal/engine/prefetch"
	"go.trai.ch/xbuild/internal/engine/toolchain"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	executor     ports.Executor
	locator      ports.ToolLocator
	host         ports.HostInfoProvider
	logger       ports.Logger
	renderers    linear.Factory
	downloader   ports.Downloader
	workDir      string
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	executor ports.Executor,
	locator ports.ToolLocator,
	host ports.HostInfoProvider,
	log ports.Logger,
	renderers linear.Factory,
	downloader ports.Downloader,
) *App {
	return &App{
		configLoader: loader,
		executor:     executor,
		locator:      locator,
		host:         host,
		logger:       log,
		renderers:    renderers,
		downloader:   downloader,
		workDir:      ".",
	}
}

// WithWorkDir sets the directory the manifest search starts from.
func (a *App) WithWorkDir(dir string) *App {
	a.workDir = dir
	return a
}

// GlobalOptions are shared by every command.
type GlobalOptions struct {
	// Config is an explicit manifest path. Empty means search upwards from the work dir.
	Config string
	// Cache overrides the cache root of the manifest.
	Cache string
	// Verbose lowers the log level to debug.
	Verbose bool
	// OutputMode is one of "auto", "interactive" or "linear".
	OutputMode string
}

// BuildOptions configuration for the Build method.
type BuildOptions struct {
	GlobalOptions
	Platform string
	Archs    []string
	Opt      string
	Dex      bool
	Upgrade  bool
}

// PrefetchOptions configuration for the Prefetch method.
type PrefetchOptions struct {
	GlobalOptions
	Dex bool
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	GlobalOptions
	Downloads bool
	Engine    bool
	All       bool
}

type verboser interface {
	SetVerbose(enable bool)
}

// Build runs the full stage plan for the selected target.
func (a *App) Build(ctx context.Context, opts BuildOptions) error {
	a.setVerbose(opts.Verbose)

	manifest, err := a.loadManifest(opts.GlobalOptions)
	if err != nil {
		return err
	}
	if err := overrideTarget(manifest, opts); err != nil {
		return err
	}

	return a.run(ctx, manifest, opts.GlobalOptions, func(env *buildenv.Env, po pipeline.Options) []pipeline.Stage {
		po.BuildDex = opts.Dex
		po.Upgrade = opts.Upgrade
		return pipeline.Plan(env, po)
	})
}

// Prefetch populates the cache for the manifest target without compiling anything.
func (a *App) Prefetch(ctx context.Context, opts PrefetchOptions) error {
	a.setVerbose(opts.Verbose)

	manifest, err := a.loadManifest(opts.GlobalOptions)
	if err != nil {
		return err
	}

	return a.run(ctx, manifest, opts.GlobalOptions, func(env *buildenv.Env, po pipeline.Options) []pipeline.Stage {
		po.BuildDex = opts.Dex
		return pipeline.PlanPrefetch(env, po)
	})
}

type planFunc func(env *buildenv.Env, opts pipeline.Options) []pipeline.Stage

func (a *App) run(ctx context.Context, manifest *domain.Manifest, opts GlobalOptions, plan planFunc) error {
	host := domain.NewCompileTarget(a.host.Platform(), a.host.Arch(), domain.Debug)

	var flutter *toolchain.Flutter
	if manifest.UsesFlutter() {
		var err error
		flutter, err = toolchain.New(manifest.FlutterRepo, manifest.CacheDir, host, a.locator, a.executor)
		if err != nil {
			return err
		}
	}

	env, err := buildenv.New(buildenv.ConfigFromManifest(manifest, host, opts.Verbose), flutter)
	if err != nil {
		return err
	}

	a.logger.Debug(fmt.Sprintf("building %s for %s from %s", manifest.Name, env.Target().Platform, host))

	// 1. Initialize Renderer
	mode := detector.ResolveMode(detector.DetectEnvironment(), opts.OutputMode)
	renderer := a.renderers(mode)

	// 2. Initialize Telemetry
	tracer, tp := telemetry.NewRendererTracer(domain.AppName, renderer)
	defer func() {
		_ = tp.Shutdown(context.WithoutCancel(ctx))
	}()

	// 3. Initialize the fetch layer and the stage plan
	store := cas.NewStore(domain.StorePath(env.CacheDir()))
	fetcher := fetch.NewFetcher(env.CacheDir(), a.downloader, store, a.logger)
	stages := plan(env, pipeline.Options{Prefetcher: prefetch.NewManager(env, fetcher, tracer)})
	runner := pipeline.NewRunner(tracer)

	// 4. Run Renderer and Pipeline concurrently
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := renderer.Start(ctx); err != nil {
			return err
		}
		return renderer.Wait()
	})

	g.Go(func() error {
		defer func() {
			_ = renderer.Stop()
		}()

		artifacts, err := runner.Run(ctx, env, stages)
		if err != nil {
			return errors.Join(domain.ErrBuildExecutionFailed, err)
		}
		for _, artifact := range artifacts {
			a.logger.Debug(fmt.Sprintf("%s: %s", artifact.Kind, artifact.Path))
		}
		return nil
	})

	return g.Wait()
}

// Clean removes cached downloads, engine artifacts or the whole cache.
func (a *App) Clean(_ context.Context, opts CleanOptions) error {
	a.setVerbose(opts.Verbose)

	cacheDir, err := a.cacheDir(opts.GlobalOptions)
	if err != nil {
		return err
	}

	var errs error
	remove := func(path string, name string) {
		a.logger.Info(fmt.Sprintf("removing %s...", name))
		if err := os.RemoveAll(path); err != nil {
			errs = errors.Join(errs, zerr.With(zerr.Wrap(err, "failed to remove "+name), "path", path))
			return
		}
		a.logger.Info(fmt.Sprintf("removed %s", name))
	}

	switch {
	case opts.All:
		remove(cacheDir, "artifact cache")
	default:
		if opts.Downloads {
			remove(filepath.Join(cacheDir, domain.DownloadDirName), "downloads")
			remove(domain.FrameworkPath(cacheDir), "unpacked frameworks")
		}
		if opts.Engine {
			remove(filepath.Join(cacheDir, domain.EngineDirName), "engine artifacts")
		}

		pruned, err := cas.NewStore(domain.StorePath(cacheDir)).Prune()
		if err != nil {
			errs = errors.Join(errs, zerr.Wrap(err, "failed to prune artifact ledger"))
		} else if len(pruned) > 0 {
			a.logger.Info(fmt.Sprintf("pruned %d ledger records", len(pruned)))
		}
	}

	return errs
}

// Host prints the host platform, architecture and operating system.
func (a *App) Host(ctx context.Context, w io.Writer) error {
	name, err := a.host.Name(ctx)
	if err != nil {
		return zerr.Wrap(err, "failed to read host name")
	}
	details, err := a.host.Details(ctx)
	if err != nil {
		return zerr.Wrap(err, "failed to read host details")
	}

	_, err = fmt.Fprintf(w, "platform: %s\narch:     %s\nname:     %s\nos:       %s\n",
		a.host.Platform(), a.host.Arch(), name, details)
	return err
}

func (a *App) setVerbose(enable bool) {
	if v, ok := a.logger.(verboser); ok && enable {
		v.SetVerbose(true)
	}
}

func (a *App) loadManifest(opts GlobalOptions) (*domain.Manifest, error) {
	var manifest *domain.Manifest
	var err error
	if opts.Config != "" {
		manifest, err = a.configLoader.LoadFile(opts.Config)
	} else {
		manifest, err = a.configLoader.Load(a.workDir)
	}
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}

	if opts.Cache != "" {
		if manifest.CacheDir, err = absCache(opts.Cache); err != nil {
			return nil, err
		}
	}
	return manifest, nil
}

func absCache(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to resolve cache directory"), "path", dir)
	}
	return abs, nil
}

// cacheDir resolves the cache root without requiring a manifest.
func (a *App) cacheDir(opts GlobalOptions) (string, error) {
	if opts.Cache != "" {
		return absCache(opts.Cache)
	}
	manifest, err := a.loadManifest(opts)
	if errors.Is(err, domain.ErrConfigNotFound) && opts.Config == "" {
		return config.DefaultCacheDir(), nil
	}
	if err != nil {
		return "", err
	}
	return manifest.CacheDir, nil
}

// overrideTarget applies the --platform, --arch and --opt flags to the manifest target.
func overrideTarget(m *domain.Manifest, opts BuildOptions) error {
	if opts.Platform != "" {
		platform, err := domain.ParsePlatform(opts.Platform)
		if err != nil {
			return err
		}
		m.Target.Platform = platform
	}

	if len(opts.Archs) > 0 {
		archs := make([]domain.Arch, 0, len(opts.Archs))
		for _, s := range opts.Archs {
			arch, err := domain.ParseArch(s)
			if err != nil {
				return err
			}
			archs = append(archs, arch)
		}
		m.Target.Archs = archs
	}

	if opts.Opt != "" {
		opt, err := domain.ParseOpt(opts.Opt)
		if err != nil {
			return err
		}
		m.Target.Opt = opt
	}
	return nil
}
