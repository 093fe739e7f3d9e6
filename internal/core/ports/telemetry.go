package ports

import (
	"context"
	"io"
)

//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Span attribute keys.
const (
	// AttrURL is the download URL of a fetch span.
	AttrURL = "xbuild.url"
	// AttrArtifact is the path a stage span produced.
	AttrArtifact = "xbuild.artifact"
)

// Tracer is the entry point for creating spans.
type Tracer interface {
	// Start creates a new span and returns a context carrying it.
	Start(ctx context.Context, name string) (context.Context, Span)
	// EmitPlan announces the ordered stage names of a build.
	EmitPlan(ctx context.Context, stages []string)
}

// Span represents a unit of work.
type Span interface {
	io.Writer
	// End completes the span.
	End()
	// RecordError records an error for the span.
	RecordError(err error)
	// SetAttribute adds a key-value pair to the span.
	SetAttribute(key string, value any)
	// Progress reports transferred bytes. total is zero when unknown.
	Progress(current, total int64)
}

type spanKey struct{}

// ContextWithSpan returns a copy of ctx carrying span.
func ContextWithSpan(ctx context.Context, span Span) context.Context {
	return context.WithValue(ctx, spanKey{}, span)
}

// SpanFromContext returns the span carried by ctx, or a span that discards everything.
func SpanFromContext(ctx context.Context) Span {
	if span, ok := ctx.Value(spanKey{}).(Span); ok {
		return span
	}
	return noopSpan{}
}

type noopSpan struct{}

func (noopSpan) Write(p []byte) (int, error) { return len(p), nil }
func (noopSpan) End()                        {}
func (noopSpan) RecordError(error)           {}
func (noopSpan) SetAttribute(string, any)    {}
func (noopSpan) Progress(int64, int64)       {}
