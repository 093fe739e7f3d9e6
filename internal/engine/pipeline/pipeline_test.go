package pipeline_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/xbuild/internal/core/domain"
	"go.trai.ch/xbuild/internal/core/ports"
	"go.trai.ch/xbuild/internal/core/ports/mocks"
	"go.trai.ch/xbuild/internal/engine/pipeline"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type fakePrefetcher struct {
	calls    int
	buildDex bool
}

func (p *fakePrefetcher) Prefetch(_ context.Context, buildDex bool) error {
	p.calls++
	p.buildDex = buildDex
	return nil
}

func newTracer(t *testing.T) *mocks.MockTracer {
	t.Helper()
	tracer := mocks.NewMockTracer(gomock.NewController(t))
	tracer.EXPECT().Start(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string) (context.Context, ports.Span) {
			return ctx, ports.SpanFromContext(ctx)
		}).AnyTimes()
	return tracer
}

func stageNamed(t *testing.T, stages []pipeline.Stage, name string) pipeline.Stage {
	t.Helper()
	for _, s := range stages {
		if s.Name() == name {
			return s
		}
	}
	t.Fatalf("no stage %q in %v", name, pipeline.Names(stages))
	return nil
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name     string
		platform domain.Platform
		opt      domain.Opt
		archs    []domain.Arch
		opts     pipeline.Options
		want     []string
	}{
		{
			name:     "android release with dex",
			platform: domain.Android,
			opt:      domain.Release,
			archs:    []domain.Arch{domain.Arm64, domain.X64},
			opts:     pipeline.Options{BuildDex: true},
			want:     []string{"sync", "prefetch", "pub", "kernel", "aot-arm64", "aot-x64", "dex"},
		},
		{
			name:     "android debug",
			platform: domain.Android,
			opt:      domain.Debug,
			want:     []string{"sync", "prefetch", "pub", "kernel"},
		},
		{
			name:     "ios release",
			platform: domain.Ios,
			opt:      domain.Release,
			want:     []string{"sync", "prefetch", "pub", "kernel", "aot-arm64", "empty-dylib-arm64"},
		},
		{
			name:     "linux debug ignores dex",
			platform: domain.Linux,
			opt:      domain.Debug,
			opts:     pipeline.Options{BuildDex: true},
			want:     []string{"sync", "prefetch", "pub", "kernel"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.platform, tt.opt, tt.archs...)
			assert.Equal(t, tt.want, pipeline.Names(pipeline.Plan(f.env, tt.opts)))
		})
	}
}

func TestPlanPrefetch(t *testing.T) {
	f := newFixture(t, domain.Android, domain.Release)
	assert.Equal(t, []string{"sync", "prefetch"}, pipeline.Names(pipeline.PlanPrefetch(f.env, pipeline.Options{BuildDex: true})))
}

func TestRunner_AndroidRelease(t *testing.T) {
	f := newFixture(t, domain.Android, domain.Release)
	target := domain.NewCompileTarget(domain.Android, domain.Arm64, domain.Release)
	flutter := f.env.Flutter()

	pub, err := flutter.PubCommand(f.env.Root(), false)
	require.NoError(t, err)
	kernel, err := pipeline.KernelCommand(f.env)
	require.NoError(t, err)
	snapshot, err := pipeline.ELFSnapshotCommand(f.env, target)
	require.NoError(t, err)

	gomock.InOrder(
		f.executor.EXPECT().Run(gomock.Any(), flutter.PullCommand()).Return(nil),
		f.executor.EXPECT().Output(gomock.Any(), gomock.Any()).Return("3.7.12", nil),
		f.executor.EXPECT().Run(gomock.Any(), pub).Return(nil),
		f.executor.EXPECT().Run(gomock.Any(), kernel).Return(nil),
		f.executor.EXPECT().Run(gomock.Any(), snapshot).Return(nil),
	)

	prefetcher := &fakePrefetcher{}
	stages := pipeline.Plan(f.env, pipeline.Options{Prefetcher: prefetcher})

	tracer := newTracer(t)
	tracer.EXPECT().EmitPlan(gomock.Any(), []string{"sync", "prefetch", "pub", "kernel", "aot-arm64"})

	artifacts, err := pipeline.NewRunner(tracer).Run(context.Background(), f.env, stages)
	require.NoError(t, err)
	require.Len(t, artifacts, 5)

	assert.Equal(t, 1, prefetcher.calls)
	assert.Equal(t, domain.Artifact{Kind: domain.KindKernel, Path: f.env.KernelBlob()}, artifacts[3])
	assert.Equal(t, domain.Artifact{Kind: domain.KindSnapshot, Path: f.env.Snapshot(target)}, artifacts[4])
	assert.DirExists(t, f.env.TargetBuildDir(target))
}

func TestRunner_IosAppleChain(t *testing.T) {
	f := newFixture(t, domain.Ios, domain.Release)
	target := domain.NewCompileTarget(domain.Ios, domain.Arm64, domain.Release)

	cmds, err := pipeline.AppleSnapshotCommands(f.env, target)
	require.NoError(t, err)

	gomock.InOrder(
		f.executor.EXPECT().Run(gomock.Any(), cmds[0]).Return(nil),
		f.executor.EXPECT().Run(gomock.Any(), cmds[1]).Return(nil),
		f.executor.EXPECT().Run(gomock.Any(), cmds[2]).Return(nil),
	)

	aot := stageNamed(t, pipeline.Plan(f.env, pipeline.Options{}), "aot-arm64")
	tracer := newTracer(t)
	tracer.EXPECT().EmitPlan(gomock.Any(), []string{"aot-arm64"})

	artifacts, err := pipeline.NewRunner(tracer).Run(context.Background(), f.env, []pipeline.Stage{aot})
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Equal(t, f.env.Snapshot(target), artifacts[0].Path)
	assert.Equal(t, "App", filepath.Base(artifacts[0].Path))
}

func TestRunner_LinkFailureReturnsNoSnapshot(t *testing.T) {
	f := newFixture(t, domain.Ios, domain.Release)

	linkErr := zerr.Wrap(domain.ErrToolInvocation, "clang exited with code 1")
	gomock.InOrder(
		f.executor.EXPECT().Run(gomock.Any(), gomock.Any()).Return(nil).Times(2),
		f.executor.EXPECT().Run(gomock.Any(), gomock.Any()).Return(linkErr),
	)

	stages := pipeline.Plan(f.env, pipeline.Options{})
	aot := stageNamed(t, stages, "aot-arm64")
	dylib := stageNamed(t, stages, "empty-dylib-arm64")

	ctrl := gomock.NewController(t)
	span := mocks.NewMockSpan(ctrl)
	span.EXPECT().RecordError(gomock.Any()).Times(1)
	span.EXPECT().End().Times(1)

	tracer := mocks.NewMockTracer(ctrl)
	tracer.EXPECT().EmitPlan(gomock.Any(), []string{"aot-arm64", "empty-dylib-arm64"})
	tracer.EXPECT().Start(gomock.Any(), "aot-arm64").
		DoAndReturn(func(ctx context.Context, _ string) (context.Context, ports.Span) {
			return ctx, span
		})

	artifacts, err := pipeline.NewRunner(tracer).Run(context.Background(), f.env, []pipeline.Stage{aot, dylib})
	require.Error(t, err)
	assert.Empty(t, artifacts)
	assert.True(t, errors.Is(err, domain.ErrToolInvocation))
	assert.Contains(t, err.Error(), "stage aot-arm64 failed")

	var zErr *zerr.Error
	require.True(t, errors.As(err, &zErr))
	assert.Equal(t, "aot-arm64", zErr.Metadata()["stage"])
}

func TestRunner_Cancelled(t *testing.T) {
	f := newFixture(t, domain.Linux, domain.Debug)
	tracer := mocks.NewMockTracer(gomock.NewController(t))
	tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline.NewRunner(tracer).Run(ctx, f.env, pipeline.Plan(f.env, pipeline.Options{}))
	assert.True(t, errors.Is(err, context.Canceled))
}
