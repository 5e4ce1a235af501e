package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const consoleTimeLayout = "2006-01-02 15:04:05.000"

// shortIDLen is how much of a correlation id the console shows.
const shortIDLen = 8

// consoleHandler renders one human-readable line per record:
//
//	2026-10-18 09:12:03.114 WARN  resolver/relational #3f2a9c1b: lookup failed [remote] event_type=backend_timeout
//
// component, backend and correlation_id form the header and tier follows the
// message. Everything else trails as key=value pairs.
type consoleHandler struct {
	mu         *sync.Mutex
	w          io.Writer
	level      slog.Leveler
	withSource bool
	prefix     string
	attrs      []field
}

type field struct {
	key string
	val slog.Value
}

// lookupScope holds the fields the console lifts out of the key=value tail.
type lookupScope struct {
	component   string
	backend     string
	correlation string
	tier        string
}

func newConsoleHandler(w io.Writer, level slog.Leveler, withSource bool) *consoleHandler {
	return &consoleHandler{mu: &sync.Mutex{}, w: w, level: level, withSource: withSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]field, 0, len(h.attrs)+r.NumAttrs())
	fields = append(fields, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		fields = appendField(fields, h.prefix, a)
		return true
	})

	var scope lookupScope
	rest := fields[:0]
	for _, f := range fields {
		if scope.take(f) {
			continue
		}
		rest = append(rest, f)
	}

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var buf bytes.Buffer
	buf.WriteString(ts.Local().Format(consoleTimeLayout))
	fmt.Fprintf(&buf, " %-5s ", levelName(r.Level))
	scope.writeHeader(&buf)

	msg := strings.TrimSpace(r.Message)
	if msg == "" {
		msg = "(no message)"
	}
	buf.WriteString(msg)
	if scope.tier != "" {
		buf.WriteString(" [" + scope.tier + "]")
	}
	if h.withSource && r.PC != 0 {
		if src := r.Source(); src != nil {
			fmt.Fprintf(&buf, " (%s:%d)", filepath.Base(src.File), src.Line)
		}
	}
	for _, f := range rest {
		buf.WriteByte(' ')
		buf.WriteString(f.key)
		buf.WriteByte('=')
		buf.WriteString(renderValue(f.val))
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = make([]field, 0, len(h.attrs)+len(attrs))
	c.attrs = append(c.attrs, h.attrs...)
	for _, a := range attrs {
		c.attrs = appendField(c.attrs, h.prefix, a)
	}
	return &c
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	return &c
}

// take records f if it belongs to the header. The first value of each key
// wins, so a logger-level component is not overridden by a record attribute.
func (s *lookupScope) take(f field) bool {
	var slot *string
	switch f.key {
	case FieldComponent:
		slot = &s.component
	case FieldBackend:
		slot = &s.backend
	case FieldCorrelationID:
		slot = &s.correlation
	case FieldTier:
		slot = &s.tier
	default:
		return false
	}
	if *slot == "" {
		*slot = plainString(f.val)
	}
	return true
}

func (s *lookupScope) writeHeader(buf *bytes.Buffer) {
	if s.component == "" && s.backend == "" && s.correlation == "" {
		return
	}
	head := s.component
	if s.backend != "" {
		if head != "" {
			head += "/"
		}
		head += s.backend
	}
	if s.correlation != "" {
		id := strings.ReplaceAll(s.correlation, "-", "")
		if len(id) > shortIDLen {
			id = id[:shortIDLen]
		}
		if head != "" {
			head += " "
		}
		head += "#" + id
	}
	buf.WriteString(head)
	buf.WriteString(": ")
}

func appendField(dst []field, prefix string, a slog.Attr) []field {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return dst
	}
	if a.Value.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			dst = appendField(dst, inner, ga)
		}
		return dst
	}
	return append(dst, field{key: prefix + a.Key, val: a.Value})
}

func levelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARN"
	case l >= slog.LevelInfo:
		return "INFO"
	}
	return "DEBUG"
}

func plainString(v slog.Value) string {
	if v.Kind() == slog.KindAny {
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
	}
	return v.String()
}

// renderValue quotes a value only when it would otherwise be ambiguous in a
// key=value tail.
func renderValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindTime:
		s = v.Time().Local().Format(consoleTimeLayout)
	case slog.KindFloat64:
		s = strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	default:
		s = plainString(v)
	}
	if s == "" || strings.ContainsAny(s, " \t\r\n=\"") {
		return strconv.Quote(s)
	}
	return s
}
