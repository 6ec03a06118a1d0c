// Package logger builds the slog loggers used by the command line tools.
//
// Terminal output is colored by severity: errors red, warnings yellow, and
// checkpoint persistence messages green so saved epochs stand out.
package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
)

// Options configures NewLogger.
type Options struct {
	Level  slog.Level
	Writer io.Writer
	Format string // text, json
	Color  bool
}

// NewDefaultLogger returns a text logger on stderr, colored unless NO_COLOR
// is set.
func NewDefaultLogger(level slog.Level) *slog.Logger {
	return NewLogger(Options{
		Level:  level,
		Writer: os.Stderr,
		Format: "text",
		Color:  os.Getenv("NO_COLOR") == "",
	})
}

// NewLogger creates a logger from opts.
func NewLogger(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	handlerOpts := &slog.HandlerOptions{Level: opts.Level}

	if strings.EqualFold(opts.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	if !opts.Color {
		return slog.New(slog.NewTextHandler(w, handlerOpts))
	}
	return slog.New(NewColorHandler(w, handlerOpts))
}

// ParseLevel converts a level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// ColorHandler is a text handler that wraps each line in an ANSI color.
type ColorHandler struct {
	mu    *sync.Mutex
	out   io.Writer
	buf   *bytes.Buffer
	inner slog.Handler
}

// NewColorHandler creates a ColorHandler writing to w.
func NewColorHandler(w io.Writer, opts *slog.HandlerOptions) *ColorHandler {
	buf := &bytes.Buffer{}
	return &ColorHandler{
		mu:    &sync.Mutex{},
		out:   w,
		buf:   buf,
		inner: slog.NewTextHandler(buf, opts),
	}
}

// Enabled implements slog.Handler
func (h *ColorHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler
func (h *ColorHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.buf.Reset()
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}

	line := h.buf.Bytes()
	color := colorFor(r)
	if color == "" {
		_, err := h.out.Write(line)
		return err
	}

	trimmed := bytes.TrimRight(line, "\n")
	colored := make([]byte, 0, len(line)+len(color)+len(colorReset))
	colored = append(colored, color...)
	colored = append(colored, trimmed...)
	colored = append(colored, colorReset...)
	colored = append(colored, '\n')
	_, err := h.out.Write(colored)
	return err
}

// WithAttrs implements slog.Handler
func (h *ColorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ColorHandler{mu: h.mu, out: h.out, buf: h.buf, inner: h.inner.WithAttrs(attrs)}
}

// WithGroup implements slog.Handler
func (h *ColorHandler) WithGroup(name string) slog.Handler {
	return &ColorHandler{mu: h.mu, out: h.out, buf: h.buf, inner: h.inner.WithGroup(name)}
}

func colorFor(r slog.Record) string {
	switch {
	case r.Level >= slog.LevelError:
		return colorRed
	case r.Level >= slog.LevelWarn:
		return colorYellow
	case strings.Contains(strings.ToLower(r.Message), "persist"):
		return colorGreen
	default:
		return ""
	}
}
