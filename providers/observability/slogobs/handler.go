package slogobs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// Handler is a slog.Handler rendering records as compact, pretty or JSON
// lines. Attribute keys are printed in sorted order so output is stable.
type Handler struct {
	format Format
	level  slog.Leveler
	output io.Writer
	colors bool
	mu     *sync.Mutex
	attrs  []slog.Attr
	groups []string
}

// HandlerOptions configures a Handler.
type HandlerOptions struct {
	Format Format
	Level  slog.Leveler
	// Output defaults to os.Stdout.
	Output io.Writer
	// Colors enables ANSI colors. When false and Output is a terminal,
	// colors are turned on anyway for non-JSON formats.
	Colors bool
}

// NewHandler creates a Handler. A nil opts selects compact output at INFO.
func NewHandler(opts *HandlerOptions) *Handler {
	if opts == nil {
		opts = &HandlerOptions{}
	}
	output := opts.Output
	if output == nil {
		output = os.Stdout
	}
	format := opts.Format
	if format == "" {
		format = FormatCompact
	}
	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}

	colors := opts.Colors
	if !colors && format != FormatJSON {
		if f, ok := output.(*os.File); ok {
			colors = isTerminal(f)
		}
	}

	return &Handler{
		format: format,
		level:  level,
		output: output,
		colors: colors,
		mu:     &sync.Mutex{},
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and writes a log record.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var buf []byte
	switch h.format {
	case FormatPretty:
		buf = h.appendPretty(nil, r)
	case FormatJSON:
		var err error
		if buf, err = h.appendJSON(nil, r); err != nil {
			return err
		}
	default:
		buf = h.appendCompact(nil, r)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.output.Write(buf)
	return err
}

// WithAttrs returns a Handler that adds attrs to every record.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, attr := range attrs {
		clone.attrs = append(clone.attrs, slog.Attr{Key: h.qualify(attr.Key), Value: attr.Value})
	}
	return &clone
}

// WithGroup returns a Handler that prefixes later attribute keys with name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(slices.Clip(h.groups), name)
	return &clone
}

// appendCompact renders "2006-01-02 15:04:05 LEVEL message -> {attrs}".
func (h *Handler) appendCompact(buf []byte, r slog.Record) []byte {
	buf = append(buf, r.Time.Format(time.DateTime)...)
	buf = append(buf, ' ')
	buf = h.appendLevel(buf, r.Level, "%5s")
	buf = append(buf, ' ')
	buf = append(buf, r.Message...)

	if attrs := h.collectAttrs(r); len(attrs) > 0 {
		buf = append(buf, " -> "...)
		encoded, err := json.Marshal(attrs)
		if err != nil {
			buf = append(buf, "[json-error]"...)
		} else {
			buf = append(buf, encoded...)
		}
	}
	return append(buf, '\n')
}

// appendPretty renders the message on one line and each attribute indented
// on its own line below it.
func (h *Handler) appendPretty(buf []byte, r slog.Record) []byte {
	buf = append(buf, r.Time.Format(time.DateTime)...)
	buf = append(buf, ' ')
	buf = h.appendLevel(buf, r.Level, "%-5s")
	buf = append(buf, " | "...)
	buf = append(buf, r.Message...)
	buf = append(buf, '\n')

	attrs := h.collectAttrs(r)
	for _, key := range sortedKeys(attrs) {
		buf = append(buf, "    "...)
		buf = append(buf, key...)
		buf = append(buf, " = "...)
		buf = append(buf, fmt.Sprint(attrs[key])...)
		buf = append(buf, '\n')
	}
	return buf
}

// appendJSON renders one JSON object; attributes sit next to time, level and msg.
func (h *Handler) appendJSON(buf []byte, r slog.Record) ([]byte, error) {
	data := h.collectAttrs(r)
	data["time"] = r.Time.Format(time.RFC3339Nano)
	data["level"] = LogLevelString(r.Level)
	data["msg"] = r.Message

	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	buf = append(buf, encoded...)
	return append(buf, '\n'), nil
}

func (h *Handler) appendLevel(buf []byte, level slog.Level, layout string) []byte {
	name := fmt.Sprintf(layout, LogLevelString(level))
	if !h.colors {
		return append(buf, name...)
	}
	buf = append(buf, colorForLevel(level)...)
	buf = append(buf, name...)
	return append(buf, colorReset...)
}

// collectAttrs merges handler and record attributes. Record attributes win on
// key collisions.
func (h *Handler) collectAttrs(r slog.Record) map[string]any {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, attr := range h.attrs {
		addAttr(attrs, attr.Key, attr.Value)
	}
	r.Attrs(func(attr slog.Attr) bool {
		addAttr(attrs, h.qualify(attr.Key), attr.Value)
		return true
	})
	return attrs
}

func (h *Handler) qualify(key string) string {
	if len(h.groups) == 0 {
		return key
	}
	return strings.Join(h.groups, ".") + "." + key
}

func addAttr(attrs map[string]any, key string, value slog.Value) {
	value = value.Resolve()
	switch value.Kind() {
	case slog.KindGroup:
		for _, member := range value.Group() {
			addAttr(attrs, key+"."+member.Key, member.Value)
		}
	case slog.KindDuration:
		attrs[key] = value.Duration().String()
	case slog.KindTime:
		attrs[key] = value.Time().Format(time.RFC3339Nano)
	default:
		if err, ok := value.Any().(error); ok {
			attrs[key] = err.Error()
			return
		}
		attrs[key] = value.Any()
	}
}

func sortedKeys(attrs map[string]any) []string {
	keys := make([]string, 0, len(attrs))
	for key := range attrs {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGreen  = "\033[32m"
	colorBlue   = "\033[34m"
	colorGray   = "\033[90m"
)

func colorForLevel(level slog.Level) string {
	switch {
	case level < slog.LevelDebug:
		return colorGray
	case level < slog.LevelInfo:
		return colorBlue
	case level < slog.LevelWarn:
		return colorGreen
	case level < slog.LevelError:
		return colorYellow
	default:
		return colorRed
	}
}

func isTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}
