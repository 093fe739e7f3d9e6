// Package shell runs external tools for the build pipeline.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/creack/pty"
	"go.trai.ch/xbuild/internal/core/domain"
	"go.trai.ch/xbuild/internal/core/ports"
	"go.trai.ch/zerr"
)

// tailSize is how much trailing output is kept for error reports.
const tailSize = 4096

// Executor implements ports.Executor using os/exec.
// Run attaches a pseudo terminal when available so tools keep their
// interactive formatting; Output always uses pipes.
type Executor struct {
	logger ports.Logger
	usePTY bool
}

var _ ports.Executor = (*Executor)(nil)

// Option configures an Executor.
type Option func(*Executor)

// WithoutPTY makes Run use plain pipes.
func WithoutPTY() Option {
	return func(e *Executor) {
		e.usePTY = false
	}
}

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger, opts ...Option) *Executor {
	e := &Executor{
		logger: logger,
		usePTY: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the command, streaming combined output to the span in ctx.
func (e *Executor) Run(ctx context.Context, c domain.Command) error {
	span := ports.SpanFromContext(ctx)
	tail := &tailBuffer{limit: tailSize}
	out := io.MultiWriter(span, tail)

	e.logger.Debug("running " + strings.Join(c.Argv(), " "))

	cmd := command(ctx, c)

	var err error
	if e.usePTY {
		err = runPTY(cmd, out)
		if errors.Is(err, pty.ErrUnsupported) {
			cmd = command(ctx, c)
			err = runPipes(cmd, out)
		}
	} else {
		err = runPipes(cmd, out)
	}

	if err != nil {
		return invocationError(c, err, tail.String())
	}
	return nil
}

// Output executes the command and returns its trimmed standard output.
// Standard error is included in the error on failure.
func (e *Executor) Output(ctx context.Context, c domain.Command) (string, error) {
	e.logger.Debug("running " + strings.Join(c.Argv(), " "))

	cmd := command(ctx, c)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", invocationError(c, err, stderr.String())
	}
	return strings.TrimSpace(stdout.String()), nil
}

func command(ctx context.Context, c domain.Command) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...) //nolint:gosec // commands are built by pipeline stages
	cmd.Dir = c.Dir
	cmd.Env = mergeEnv(os.Environ(), c.Env)
	return cmd
}

func runPTY(cmd *exec.Cmd, out io.Writer) error {
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return err
	}

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		// Reading the master returns EIO once the child exits.
		_, _ = io.Copy(out, ptmx)
	}()

	err = cmd.Wait()
	<-ioDone
	_ = ptmx.Close()
	return err
}

func runPipes(cmd *exec.Cmd, out io.Writer) error {
	// A single writer keeps stdout and stderr interleaved in order.
	w := &lockedWriter{w: out}
	cmd.Stdout = w
	cmd.Stderr = w
	return cmd.Run()
}

func invocationError(c domain.Command, err error, output string) error {
	name := filepath.Base(c.Path)

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}

	var msg string
	if exitCode >= 0 {
		msg = fmt.Sprintf("%s exited with code %d", name, exitCode)
	} else {
		msg = fmt.Sprintf("failed to run %s", name)
	}

	wrapped := zerr.Wrap(errors.Join(domain.ErrToolInvocation, err), msg)
	wrapped = zerr.With(wrapped, "command", strings.Join(c.Argv(), " "))
	wrapped = zerr.With(wrapped, "exit_code", exitCode)
	if output = strings.TrimSpace(output); output != "" {
		wrapped = zerr.With(wrapped, "output", output)
	}
	return wrapped
}

// mergeEnv applies overrides on top of the inherited environment.
func mergeEnv(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return base
	}

	env := make([]string, 0, len(base)+len(overrides))
	for _, entry := range base {
		k, _, ok := strings.Cut(entry, "=")
		if ok {
			if _, overridden := overrides[k]; overridden {
				continue
			}
		}
		env = append(env, entry)
	}
	for k, v := range overrides {
		env = append(env, k+"="+v)
	}
	return env
}
