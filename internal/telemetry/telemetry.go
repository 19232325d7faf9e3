// Package telemetry sets up the module's structured logging. Grounded on
// datacommonsorg/mixer's internal/log/log.go (SetUpLogger/
// setUpLocalLogger/CustomTextHandler): a JSON handler for production, a
// colorized human-readable handler gated by an env var for local
// development.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// localLogsEnvVar gates the human-readable handler. Unset or any value
// other than "true" keeps the default JSON handler.
const localLogsEnvVar = "QUERYLIB_LOCAL_LOGS"

// SetUp installs the module's default slog.Logger. Call once at process
// start, before any orchestrator.Execute call (spec.md §9 "pass a Context
// value explicitly down the call chain" — this is the one intentional
// exception: slog's package-level default is itself a context carrier by
// design, so querylib uses it rather than threading a *slog.Logger
// through every constructor).
func SetUp() {
	if os.Getenv(localLogsEnvVar) == "true" {
		setUpLocal()
		return
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	slog.SetDefault(logger)
}

func setUpLocal() {
	logger := slog.New(NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// TextHandler is a slog.Handler that writes color-coded, human-readable
// log lines, used for QUERYLIB_LOCAL_LOGS=true development runs.
type TextHandler struct {
	opts         slog.HandlerOptions
	mu           *sync.Mutex
	w            io.Writer
	attrs        []slog.Attr
	groups       []string
	excludedKeys map[string]struct{}
}

// NewTextHandler builds a TextHandler writing to w.
func NewTextHandler(w io.Writer, opts *slog.HandlerOptions) *TextHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &TextHandler{
		opts: *opts,
		mu:   new(sync.Mutex),
		w:    w,
		excludedKeys: map[string]struct{}{
			slog.LevelKey:   {},
			slog.MessageKey: {},
			slog.SourceKey:  {},
		},
	}
}

func (h *TextHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

func (h *TextHandler) Handle(_ context.Context, r slog.Record) error {
	buf := make([]byte, 0, 1024)

	var color string
	switch r.Level {
	case slog.LevelWarn:
		color = "\033[93m" // yellow
	case slog.LevelError:
		color = "\033[91m" // red
	}
	if color != "" {
		buf = append(buf, color...)
	}

	if !r.Time.IsZero() {
		buf = r.Time.AppendFormat(buf, "15:04:05 ")
	}
	buf = fmt.Appendf(buf, "%s\n", r.Message)

	r.Attrs(func(a slog.Attr) bool {
		if _, excluded := h.excludedKeys[a.Key]; !excluded {
			buf = fmt.Appendf(buf, "    %s: %s\n", a.Key, a.Value.String())
		}
		return true
	})
	for _, g := range h.groups {
		buf = fmt.Appendf(buf, "    %s:\n", g)
	}
	for _, a := range h.attrs {
		buf = fmt.Appendf(buf, "    %s: %s\n", a.Key, a.Value.String())
	}

	if color != "" {
		buf = append(buf, "\033[0m"...)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

func (h *TextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newH := *h
	newH.attrs = append(h.attrs, attrs...)
	return &newH
}

func (h *TextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newH := *h
	newH.groups = append(h.groups, name)
	return &newH
}
