// Package pipeline plans and runs the stages turning application source into
// platform snapshots.
package pipeline

import (
	"context"

	"go.trai.ch/xbuild/internal/core/domain"
	"go.trai.ch/xbuild/internal/core/ports"
	"go.trai.ch/xbuild/internal/engine/buildenv"
	"go.trai.ch/zerr"
)

// Stage is one step of a build.
type Stage interface {
	Name() string
	Build(ctx context.Context, env *buildenv.Env) (domain.Artifact, error)
}

// Prefetcher fetches the artifacts a build needs.
type Prefetcher interface {
	Prefetch(ctx context.Context, buildDex bool) error
}

// Options select optional stages.
type Options struct {
	// Upgrade runs `pub upgrade` instead of `pub get`.
	Upgrade bool
	// BuildDex builds classes.dex for Android targets.
	BuildDex bool
	// Prefetcher serves the prefetch stage.
	Prefetcher Prefetcher
}

// Plan returns the ordered stages for env.
// Without a Flutter checkout only the platform SDKs are prefetched.
func Plan(env *buildenv.Env, opts Options) []Stage {
	prefetch := prefetchStage{prefetcher: opts.Prefetcher, buildDex: opts.BuildDex}
	if env.Flutter() == nil {
		return []Stage{prefetch}
	}

	stages := []Stage{
		syncStage{},
		prefetch,
		pubStage{upgrade: opts.Upgrade},
		kernelStage{},
	}

	target := env.Target()
	if target.Opt == domain.Release {
		for _, t := range env.CompileTargets() {
			stages = append(stages, aotStage{target: t})
		}
	}

	switch target.Platform {
	case domain.Android:
		if opts.BuildDex {
			stages = append(stages, dexStage{})
		}
	case domain.Ios:
		for _, t := range env.CompileTargets() {
			stages = append(stages, emptyDylibStage{target: t})
		}
	}

	return stages
}

// PlanPrefetch returns the stages that only populate the cache: the checkout sync when a
// Flutter checkout is configured, then the prefetch.
func PlanPrefetch(env *buildenv.Env, opts Options) []Stage {
	prefetch := prefetchStage{prefetcher: opts.Prefetcher, buildDex: opts.BuildDex}
	if env.Flutter() == nil {
		return []Stage{prefetch}
	}
	return []Stage{syncStage{}, prefetch}
}

// Names returns the stage names in order.
func Names(stages []Stage) []string {
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.Name()
	}
	return names
}

// Runner executes stages sequentially, each inside its own span.
type Runner struct {
	tracer ports.Tracer
}

// NewRunner creates a Runner.
func NewRunner(tracer ports.Tracer) *Runner {
	return &Runner{tracer: tracer}
}

// Run executes stages in order and returns their artifacts. The first failure aborts.
func (r *Runner) Run(ctx context.Context, env *buildenv.Env, stages []Stage) ([]domain.Artifact, error) {
	r.tracer.EmitPlan(ctx, Names(stages))

	artifacts := make([]domain.Artifact, 0, len(stages))
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return artifacts, err
		}

		artifact, err := r.runStage(ctx, env, stage)
		if err != nil {
			return artifacts, zerr.With(zerr.Wrap(err, "stage "+stage.Name()+" failed"), "stage", stage.Name())
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, nil
}

func (r *Runner) runStage(ctx context.Context, env *buildenv.Env, stage Stage) (domain.Artifact, error) {
	ctx, span := r.tracer.Start(ctx, stage.Name())
	defer span.End()

	artifact, err := stage.Build(ctx, env)
	if err != nil {
		span.RecordError(err)
		return domain.Artifact{}, err
	}
	if artifact.Path != "" {
		span.SetAttribute(ports.AttrArtifact, artifact.Path)
	}
	return artifact, nil
}
