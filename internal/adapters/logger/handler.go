package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/xbuild/internal/ui/output"
	"go.trai.ch/xbuild/internal/ui/style"
)

// StageKey names the build stage or fetch a record belongs to.
// The console shows it as a bracketed prefix rather than as key=value.
const StageKey = "stage"

// ConsoleHandler is a slog.Handler writing one colored line per record.
type ConsoleHandler struct {
	out    *termenv.Output
	level  slog.Leveler
	stage  string
	groups string
	attrs  []string
}

// NewConsoleHandler creates a ConsoleHandler writing to w, or stderr when w is nil.
// A *slog.LevelVar passed in opts stays live, so level changes apply immediately.
func NewConsoleHandler(w io.Writer, opts *slog.HandlerOptions) *ConsoleHandler {
	if w == nil {
		w = os.Stderr
	}

	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}

	return &ConsoleHandler{out: output.New(w), level: level}
}

// Enabled reports whether records at level are written.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle writes r as a single line.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	stage := h.stage
	attrs := slices.Clip(h.attrs)
	r.Attrs(func(attr slog.Attr) bool {
		if s, ok := stageOf(h.groups, attr); ok {
			stage = s
			return true
		}
		attrs = appendAttr(attrs, h.groups, attr)
		return true
	})

	var b strings.Builder
	glyph, color := levelStyle(r.Level)
	if glyph != "" {
		b.WriteString(glyph + " ")
	}
	if stage != "" {
		b.WriteString("[" + stage + "] ")
	}
	b.WriteString(r.Message)
	for _, attr := range attrs {
		b.WriteString(" " + attr)
	}

	line := h.out.String(b.String()).Foreground(termenv.RGBColor(string(color)))
	_, err := h.out.WriteString(line.String() + "\n")
	return err
}

// WithAttrs returns a handler that prefixes every record with attrs.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := h.clone()
	for _, attr := range attrs {
		if s, ok := stageOf(h.groups, attr); ok {
			next.stage = s
			continue
		}
		next.attrs = appendAttr(next.attrs, h.groups, attr)
	}
	return next
}

// WithGroup returns a handler qualifying later attribute keys with name.
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := h.clone()
	next.groups += name + "."
	return next
}

func (h *ConsoleHandler) clone() *ConsoleHandler {
	next := *h
	next.attrs = append([]string(nil), h.attrs...)
	return &next
}

func levelStyle(level slog.Level) (string, lipgloss.Color) {
	switch {
	case level >= slog.LevelError:
		return style.Cross, style.Red
	case level >= slog.LevelWarn:
		return style.Warning, style.Yellow
	case level >= slog.LevelInfo:
		return "", style.Slate
	default:
		return style.Dot, style.Iris
	}
}

// stageOf reports the stage named by an ungrouped StageKey attribute.
func stageOf(groups string, attr slog.Attr) (string, bool) {
	if groups != "" || attr.Key != StageKey {
		return "", false
	}
	return attr.Value.Resolve().String(), true
}

// appendAttr formats attr as key=value, flattening groups into dotted keys.
func appendAttr(dst []string, groups string, attr slog.Attr) []string {
	value := attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return dst
	}

	if value.Kind() == slog.KindGroup {
		prefix := groups
		if attr.Key != "" {
			prefix += attr.Key + "."
		}
		for _, child := range value.Group() {
			dst = appendAttr(dst, prefix, child)
		}
		return dst
	}

	return append(dst, groups+attr.Key+"="+formatValue(value))
}

func formatValue(v slog.Value) string {
	s := v.String()
	if v.Kind() == slog.KindAny {
		if err, ok := v.Any().(error); ok {
			s = err.Error()
		}
	}
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}
