// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/xbuild/internal/core/domain"
)

// Executor runs external tools described by domain.Command.
//
//go:generate mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Run executes the command and waits for it to complete.
	// Output is streamed to the span found in ctx.
	// A non-zero exit is reported as domain.ErrToolInvocation.
	Run(ctx context.Context, cmd domain.Command) error

	// Output executes the command and returns its trimmed standard output.
	Output(ctx context.Context, cmd domain.Command) (string, error)
}

// ToolLocator resolves executables without running them.
type ToolLocator interface {
	// Locate returns the absolute path of the named executable.
	// It returns domain.ErrToolNotFound if the tool is not on PATH.
	Locate(name string) (string, error)
}
