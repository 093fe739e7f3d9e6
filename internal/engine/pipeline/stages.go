package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"go.trai.ch/xbuild/internal/core/domain"
	"go.trai.ch/xbuild/internal/engine/buildenv"
	"go.trai.ch/zerr"
)

type syncStage struct{}

func (syncStage) Name() string { return "sync" }

func (syncStage) Build(ctx context.Context, env *buildenv.Env) (domain.Artifact, error) {
	flutter := env.Flutter()
	if err := flutter.Sync(ctx); err != nil {
		return domain.Artifact{}, err
	}
	return domain.Artifact{Kind: domain.KindCheckout, Path: flutter.Root()}, nil
}

type prefetchStage struct {
	prefetcher Prefetcher
	buildDex   bool
}

func (prefetchStage) Name() string { return "prefetch" }

func (s prefetchStage) Build(ctx context.Context, env *buildenv.Env) (domain.Artifact, error) {
	if err := s.prefetcher.Prefetch(ctx, s.buildDex); err != nil {
		return domain.Artifact{}, err
	}
	return domain.Artifact{Kind: domain.KindPrefetched, Path: env.CacheDir()}, nil
}

type pubStage struct {
	upgrade bool
}

func (pubStage) Name() string { return "pub" }

func (s pubStage) Build(ctx context.Context, env *buildenv.Env) (domain.Artifact, error) {
	flutter := env.Flutter()
	if err := flutter.PreparePub(ctx); err != nil {
		return domain.Artifact{}, err
	}
	cmd, err := flutter.PubCommand(env.Root(), s.upgrade)
	if err != nil {
		return domain.Artifact{}, err
	}
	if err := flutter.Run(ctx, cmd); err != nil {
		return domain.Artifact{}, err
	}
	return domain.Artifact{Kind: domain.KindPackages, Path: filepath.Join(env.Root(), packageConfig)}, nil
}

type kernelStage struct{}

func (kernelStage) Name() string { return "kernel" }

func (kernelStage) Build(ctx context.Context, env *buildenv.Env) (domain.Artifact, error) {
	cmd, err := KernelCommand(env)
	if err != nil {
		return domain.Artifact{}, err
	}
	if err := mkdir(filepath.Dir(env.KernelBlob())); err != nil {
		return domain.Artifact{}, err
	}
	if err := env.Flutter().Run(ctx, cmd); err != nil {
		return domain.Artifact{}, err
	}
	return domain.Artifact{Kind: domain.KindKernel, Path: env.KernelBlob()}, nil
}

type aotStage struct {
	target domain.CompileTarget
}

func (s aotStage) Name() string { return "aot-" + s.target.Arch().String() }

func (s aotStage) Build(ctx context.Context, env *buildenv.Env) (domain.Artifact, error) {
	var cmds []domain.Command
	if s.target.Platform().IsApple() {
		var err error
		if cmds, err = AppleSnapshotCommands(env, s.target); err != nil {
			return domain.Artifact{}, err
		}
	} else {
		cmd, err := ELFSnapshotCommand(env, s.target)
		if err != nil {
			return domain.Artifact{}, err
		}
		cmds = []domain.Command{cmd}
	}

	if err := mkdir(env.TargetBuildDir(s.target)); err != nil {
		return domain.Artifact{}, err
	}
	for _, cmd := range cmds {
		if err := env.Flutter().Run(ctx, cmd); err != nil {
			return domain.Artifact{}, err
		}
	}
	return domain.Artifact{Kind: domain.KindSnapshot, Path: env.Snapshot(s.target)}, nil
}

type dexStage struct{}

func (dexStage) Name() string { return "dex" }

func (dexStage) Build(ctx context.Context, env *buildenv.Env) (domain.Artifact, error) {
	cmd, err := DexCommand(env)
	if err != nil {
		return domain.Artifact{}, err
	}
	if err := mkdir(env.DexDir()); err != nil {
		return domain.Artifact{}, err
	}
	if err := env.Flutter().Run(ctx, cmd); err != nil {
		return domain.Artifact{}, err
	}
	return domain.Artifact{Kind: domain.KindDex, Path: filepath.Join(env.DexDir(), "classes.dex")}, nil
}

type emptyDylibStage struct {
	target domain.CompileTarget
}

func (s emptyDylibStage) Name() string { return "empty-dylib-" + s.target.Arch().String() }

func (s emptyDylibStage) Build(ctx context.Context, env *buildenv.Env) (domain.Artifact, error) {
	dir := env.TargetBuildDir(s.target)
	if err := mkdir(dir); err != nil {
		return domain.Artifact{}, err
	}
	src := filepath.Join(dir, emptySourceName)
	if err := os.WriteFile(src, nil, domain.FilePerm); err != nil {
		return domain.Artifact{}, zerr.With(err, "path", src)
	}
	if err := env.Flutter().Run(ctx, EmptyDylibCommand(env, s.target)); err != nil {
		return domain.Artifact{}, err
	}
	return domain.Artifact{Kind: domain.KindDylib, Path: env.EmptyDylib(s.target)}, nil
}

func mkdir(dir string) error {
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.With(err, "path", dir)
	}
	return nil
}
