package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

const initialBufferCapacity = 256

// LogFilePermissions defines the file permissions for log files (owner read/write only).
const LogFilePermissions = 0o600

// LineHandler writes one "timestamp LEVEL msg key=value" line per record.
type LineHandler struct {
	writer io.Writer
	mu     *sync.Mutex
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

// NewLineHandler creates a handler that writes to w at the given level.
func NewLineHandler(w io.Writer, level Level) *LineHandler {
	return &LineHandler{
		writer: w,
		mu:     &sync.Mutex{},
		level:  level.ToSlogLevel(),
	}
}

// NewFileHandler creates a handler that appends to the file at path.
func NewFileHandler(path string, level Level) (*LineHandler, error) {
	//nolint:gosec // path comes from user configuration
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, LogFilePermissions)
	if err != nil {
		return nil, err
	}

	return NewLineHandler(file, level), nil
}

// Enabled reports whether the handler handles records at the given level.
func (h *LineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and writes the record.
func (h *LineHandler) Handle(_ context.Context, r slog.Record) error {
	buf := make([]byte, 0, initialBufferCapacity)

	buf = append(buf, r.Time.Local().Format("2006-01-02T15:04:05-07:00")...)
	buf = append(buf, ' ')
	buf = append(buf, r.Level.String()...)
	buf = append(buf, ' ')
	buf = append(buf, r.Message...)

	for _, a := range h.attrs {
		buf = h.appendAttr(buf, a)
	}

	r.Attrs(func(a slog.Attr) bool {
		buf = h.appendAttr(buf, a)

		return true
	})

	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.writer.Write(buf)

	return err
}

func (h *LineHandler) appendAttr(buf []byte, a slog.Attr) []byte {
	if a.Equal(slog.Attr{}) {
		return buf
	}

	buf = append(buf, ' ')

	if len(h.groups) > 0 {
		buf = append(buf, strings.Join(h.groups, ".")...)
		buf = append(buf, '.')
	}

	buf = append(buf, a.Key...)
	buf = append(buf, '=')

	val := a.Value.Resolve().String()
	if strings.ContainsAny(val, " \t\n\r\"") {
		buf = append(buf, quoteValue(val)...)
	} else {
		buf = append(buf, val...)
	}

	return buf
}

func quoteValue(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\n", `\n`,
		"\r", `\r`,
		"\t", `\t`,
	)

	return `"` + r.Replace(s) + `"`
}

// WithAttrs returns a new handler with the given attributes added.
func (h *LineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	newAttrs = append(newAttrs, h.attrs...)
	newAttrs = append(newAttrs, attrs...)

	return &LineHandler{
		writer: h.writer,
		mu:     h.mu,
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

// WithGroup returns a new handler with the given group name added.
func (h *LineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	newGroups := make([]string, 0, len(h.groups)+1)
	newGroups = append(newGroups, h.groups...)
	newGroups = append(newGroups, name)

	return &LineHandler{
		writer: h.writer,
		mu:     h.mu,
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}

// Close closes the underlying writer if it implements io.Closer.
// Standard streams are left open.
func (h *LineHandler) Close() error {
	if h.writer == os.Stderr || h.writer == os.Stdout {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if closer, ok := h.writer.(io.Closer); ok {
		return closer.Close()
	}

	return nil
}
