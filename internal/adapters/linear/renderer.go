// Package linear provides a synchronous, line-buffered renderer.
package linear

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/xbuild/internal/core/ports"
	"go.trai.ch/xbuild/internal/ui/output"
	"go.trai.ch/xbuild/internal/ui/style"
)

// unknownSizeStep is how often progress is reported when the size is unknown.
const unknownSizeStep = 16 << 20

// Renderer implements ports.Renderer.
// It prints stage lines, prefixed tool output and throttled download progress.
type Renderer struct {
	stdout io.Writer
	stderr io.Writer
	output *termenv.Output
	// interactive redraws progress in place instead of printing a line per step.
	interactive bool

	mu      sync.Mutex
	tasks   map[string]*taskState
	buffers map[string]*bytes.Buffer
}

var _ ports.Renderer = (*Renderer)(nil)

type taskState struct {
	name         string
	startTime    time.Time
	lastReported int64
	progressLine bool
}

// NewRenderer creates a new Renderer.
func NewRenderer(stdout, stderr io.Writer, interactive bool) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	profile := output.ColorProfileANSI
	if interactive {
		profile = output.ColorProfile
	}

	return &Renderer{
		stdout:      stdout,
		stderr:      stderr,
		output:      output.NewWithProfile(stderr, profile),
		interactive: interactive,
		tasks:       make(map[string]*taskState),
		buffers:     make(map[string]*bytes.Buffer),
	}
}

// Start is a no-op for the linear renderer.
func (r *Renderer) Start(_ context.Context) error {
	return nil
}

// Stop flushes all remaining buffers.
func (r *Renderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for spanID := range r.buffers {
		r.flushBufferLocked(spanID)
	}
	return nil
}

// Wait is a no-op for the linear renderer.
func (r *Renderer) Wait() error {
	return nil
}

// OnPlanEmit prints the stage list.
func (r *Renderer) OnPlanEmit(stages []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	plan := strings.Join(stages, " "+style.Arrow+" ")
	_, _ = fmt.Fprintf(r.stderr, "%s %s\n", r.output.String("Plan:").Bold().String(), plan)
}

// OnTaskStart prints a start message.
func (r *Renderer) OnTaskStart(spanID, _ string, name string, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks[spanID] = &taskState{name: name, startTime: startTime}
	r.buffers[spanID] = new(bytes.Buffer)

	_, _ = fmt.Fprintf(r.stderr, "%s Starting...\n", r.prefix(name))
}

// OnTaskLog buffers output and prints complete lines with the task prefix.
func (r *Renderer) OnTaskLog(spanID string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[spanID]
	if !ok {
		return
	}
	r.endProgressLineLocked(task)

	buf := r.buffers[spanID]
	buf.Write(data)

	for {
		line, err := buf.ReadBytes('\n')
		if err != nil {
			// Incomplete line stays buffered.
			if len(line) > 0 {
				rest := new(bytes.Buffer)
				rest.Write(line)
				r.buffers[spanID] = rest
			}
			break
		}
		r.printLineLocked(task.name, line)
	}
}

// OnTaskProgress reports download progress.
// Non-interactive output prints one line per 10% step, or per 16 MiB when the size is unknown.
func (r *Renderer) OnTaskProgress(spanID string, current, total int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[spanID]
	if !ok {
		return
	}

	text := formatProgress(current, total)

	if r.interactive {
		_, _ = fmt.Fprintf(r.stderr, "\r%s %s %s", r.prefix(task.name), style.Download, text)
		task.progressLine = true
		return
	}

	var step int64 = unknownSizeStep
	if total > 0 {
		step = max(total/10, 1)
	}
	done := total > 0 && current >= total
	if done && task.lastReported >= total {
		return
	}
	if !done && current/step == task.lastReported/step {
		return
	}
	task.lastReported = current

	_, _ = fmt.Fprintf(r.stderr, "%s %s %s\n", r.prefix(task.name), style.Download, text)
}

// OnTaskComplete flushes remaining output and prints the result.
func (r *Renderer) OnTaskComplete(spanID string, endTime time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[spanID]
	if !ok {
		return
	}
	r.endProgressLineLocked(task)
	r.flushBufferLocked(spanID)

	duration := endTime.Sub(task.startTime).Round(time.Millisecond)
	prefix := r.prefix(task.name)

	if err != nil {
		symbol := r.output.String(style.Cross).Foreground(termenv.ANSIRed).String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s Failed after %v: %v\n", prefix, symbol, duration, err)
	} else {
		symbol := r.output.String(style.Check).Foreground(termenv.ANSIGreen).String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s Completed in %v\n", prefix, symbol, duration)
	}

	delete(r.tasks, spanID)
	delete(r.buffers, spanID)
}

func (r *Renderer) prefix(name string) string {
	return r.output.String("[" + name + "]").Faint().String()
}

// endProgressLineLocked terminates an in-place progress line.
// Must be called with r.mu held.
func (r *Renderer) endProgressLineLocked(task *taskState) {
	if task.progressLine {
		_, _ = fmt.Fprintln(r.stderr)
		task.progressLine = false
	}
}

// flushBufferLocked prints any partial line left for a task.
// Must be called with r.mu held.
func (r *Renderer) flushBufferLocked(spanID string) {
	task, ok := r.tasks[spanID]
	if !ok {
		return
	}

	buf := r.buffers[spanID]
	if buf.Len() > 0 {
		r.printLineLocked(task.name, buf.Bytes())
		buf.Reset()
	}
}

// printLineLocked prints a line with the task name prefix.
// Must be called with r.mu held.
func (r *Renderer) printLineLocked(taskName string, line []byte) {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))

	if len(line) == 0 {
		return
	}

	_, _ = fmt.Fprintf(r.stdout, "[%s] %s\n", taskName, string(line))
}

func formatProgress(current, total int64) string {
	if total <= 0 {
		return formatBytes(current)
	}
	return fmt.Sprintf("%s / %s (%d%%)", formatBytes(current), formatBytes(total), current*100/total)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
