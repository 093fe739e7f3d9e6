package ports

import (
	"context"
	"time"
)

// Renderer is the abstraction for output rendering.
// It decouples telemetry collection from presentation logic.
//
//go:generate mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// Start initializes the renderer and begins its lifecycle.
	Start(ctx context.Context) error

	// Stop signals the renderer to stop accepting new events.
	// It should flush any buffered output.
	Stop() error

	// Wait blocks until the renderer has fully terminated.
	Wait() error

	// OnPlanEmit is called once the stage list of a build is known.
	OnPlanEmit(stages []string)

	// OnTaskStart is called when a stage or fetch begins.
	// parentID is empty for root spans.
	OnTaskStart(spanID, parentID, name string, startTime time.Time)

	// OnTaskLog is called when a task emits output.
	// data may contain partial lines.
	OnTaskLog(spanID string, data []byte)

	// OnTaskProgress is called with the byte progress of a download.
	// total is zero when the size is unknown.
	OnTaskProgress(spanID string, current, total int64)

	// OnTaskComplete is called when a task finishes.
	// err is nil on success.
	OnTaskComplete(spanID string, endTime time.Time, err error)
}
