package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"custid/internal/config"
	"custid/internal/logging"
	"custid/internal/services"
)

func TestNewFromConfigWritesFile(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.File = filepath.Join(t.TempDir(), "logs", "custid.log")
	cfg.Logging.Level = "debug"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Debug("debug message")

	content, err := os.ReadFile(cfg.Logging.File)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "debug message") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func newBufferLogger(t *testing.T, format, level string) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: format, Level: level, Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return logger, &buf
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logger, buf := newBufferLogger(t, "console", "info")
	logger.Info("message without caller")

	if strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", buf.String())
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logger, buf := newBufferLogger(t, "console", "debug")
	logger.Info("message with caller")

	if !strings.Contains(buf.String(), "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", buf.String())
	}
}

func TestConsoleLoggerRendersComponentPrefix(t *testing.T) {
	logger, buf := newBufferLogger(t, "console", "info")
	logging.NewComponentLogger(logger, "resolver").Info("lookup resolved", logging.Int("candidates", 2))

	line := buf.String()
	if !strings.Contains(line, "INFO  resolver: lookup resolved candidates=2") {
		t.Fatalf("expected component prefix, got %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should not be repeated as a field, got %q", line)
	}
}

func TestConsoleLoggerLiftsLookupScope(t *testing.T) {
	logger, buf := newBufferLogger(t, "console", "info")
	ctx := services.WithRequestID(context.Background(), "3f2a9c1b-7d4e-4a00-9c55-0123456789ab")
	ctx = services.WithBackend(ctx, "relational")

	log := logging.WithContext(ctx, logging.NewComponentLogger(logger, "resolver"))
	log.Warn("lookup failed", logging.Tier("remote"), logging.String(logging.FieldEventType, "backend_timeout"))

	line := strings.TrimSuffix(buf.String(), "\n")
	want := "WARN  resolver/relational #3f2a9c1b: lookup failed [remote] event_type=backend_timeout"
	if !strings.HasSuffix(line, want) {
		t.Fatalf("line = %q, want suffix %q", line, want)
	}
	for _, key := range []string{"backend=", "correlation_id=", "tier="} {
		if strings.Contains(line, key) {
			t.Fatalf("%s should be lifted out of the tail, got %q", key, line)
		}
	}
}

func TestConsoleLoggerHeaderWithoutComponent(t *testing.T) {
	logger, buf := newBufferLogger(t, "console", "info")
	logger.Info("fetched", logging.Backend("contract_api"), logging.String(logging.FieldCorrelationID, "short"))

	if !strings.Contains(buf.String(), "INFO  contract_api #short: fetched") {
		t.Fatalf("unexpected header: %q", buf.String())
	}
}

func TestConsoleLoggerQuotesAndGroups(t *testing.T) {
	logger, buf := newBufferLogger(t, "console", "info")
	logger.WithGroup("store").Info("saved",
		logging.String("path", "/tmp/my customers.json"),
		logging.String("note", ""),
		logging.Error(errors.New("disk full")),
	)

	line := buf.String()
	for _, want := range []string{
		`store.path="/tmp/my customers.json"`,
		`store.note=""`,
		`store.error="disk full"`,
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("missing %s in %q", want, line)
		}
	}
}

func TestJSONLoggerFieldNames(t *testing.T) {
	logger, buf := newBufferLogger(t, "json", "info")
	logger.Info("json message", logging.String("k", "v"))

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, buf.String())
	}
	if entry["level"] != "info" || entry["msg"] != "json message" || entry["k"] != "v" {
		t.Fatalf("unexpected entry: %#v", entry)
	}
	ts, ok := entry["ts"].(string)
	if !ok {
		t.Fatalf("expected ts key, got %#v", entry)
	}
	if _, err := time.Parse(time.RFC3339Nano, ts); err != nil {
		t.Fatalf("ts %q is not RFC 3339: %v", ts, err)
	}
}

func TestJSONLoggerDropsEmptyScopeFields(t *testing.T) {
	logger, buf := newBufferLogger(t, "json", "info")
	logger.Info("resolved", logging.Tier(""), logging.Backend("mirror"))

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if _, ok := entry[logging.FieldTier]; ok {
		t.Fatalf("empty tier should be dropped: %#v", entry)
	}
	if entry[logging.FieldBackend] != "mirror" {
		t.Fatalf("backend = %#v", entry[logging.FieldBackend])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewInvalidLevelDefaultsToInfo(t *testing.T) {
	logger, buf := newBufferLogger(t, "console", "invalid")
	logger.Debug("hidden")
	logger.Info("visible")

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "visible") {
		t.Fatalf("expected info level filtering, got %q", buf.String())
	}
}

type captureHandler struct {
	attrs   []slog.Attr
	records []slog.Record
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.records = append(h.records, r)
	return nil
}

func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h.attrs = append(h.attrs, attrs...)
	return h
}

func (h *captureHandler) WithGroup(string) slog.Handler { return h }

func (h *captureHandler) value(key string) (string, bool) {
	for _, a := range h.attrs {
		if a.Key == key {
			return a.Value.String(), true
		}
	}
	for _, r := range h.records {
		var found string
		var ok bool
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == key {
				found, ok = a.Value.String(), true
				return false
			}
			return true
		})
		if ok {
			return found, true
		}
	}
	return "", false
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := services.WithRequestID(context.Background(), "req-xyz")
	ctx = services.WithBackend(ctx, "contract_api")

	handler := &captureHandler{}
	logging.WithContext(ctx, slog.New(handler)).Info("contextual log")

	if len(handler.records) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(handler.records))
	}
	if got, _ := handler.value(logging.FieldCorrelationID); got != "req-xyz" {
		t.Fatalf("correlation_id = %q", got)
	}
	if got, _ := handler.value(logging.FieldBackend); got != "contract_api" {
		t.Fatalf("backend = %q", got)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	handler := &captureHandler{}
	logging.WarnWithContext(slog.New(handler), "backend failed", "backend_degraded",
		logging.String(logging.FieldErrorHint, "check relational.dsn"))

	if got, _ := handler.value(logging.FieldEventType); got != "backend_degraded" {
		t.Fatalf("event_type = %q", got)
	}
	if got, _ := handler.value(logging.FieldErrorHint); got != "check relational.dsn" {
		t.Fatalf("error_hint = %q", got)
	}
	if _, ok := handler.value(logging.FieldImpact); !ok {
		t.Fatal("expected impact default")
	}
}
