package logging_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"catchup/internal/logging"
)

type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, record slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, record.Clone())
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *recordingHandler) WithGroup(string) slog.Handler { return h }

func (h *recordingHandler) all() []slog.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]slog.Record(nil), h.records...)
}

func recordAttr(record slog.Record, key string) (string, bool) {
	var value string
	var found bool
	record.Attrs(func(attr slog.Attr) bool {
		if attr.Key == key {
			value = attr.Value.String()
			found = true
			return false
		}
		return true
	})
	return value, found
}

func TestTeeHandlerDuplicatesRecords(t *testing.T) {
	first := &recordingHandler{}
	second := &recordingHandler{}

	logger := slog.New(logging.TeeHandler(first, second))
	logger.Info("fan out", logging.String("k", "v"))

	for name, h := range map[string]*recordingHandler{"first": first, "second": second} {
		records := h.all()
		if len(records) != 1 {
			t.Fatalf("%s handler got %d records, want 1", name, len(records))
		}
		if records[0].Message != "fan out" {
			t.Fatalf("%s handler message = %q", name, records[0].Message)
		}
		if v, ok := recordAttr(records[0], "k"); !ok || v != "v" {
			t.Fatalf("%s handler missing attr k=v", name)
		}
	}
}

func TestTeeHandlerSkipsNilHandlers(t *testing.T) {
	h := &recordingHandler{}
	logger := slog.New(logging.TeeHandler(nil, h, nil))
	logger.Info("one")
	if len(h.all()) != 1 {
		t.Fatalf("expected single record, got %d", len(h.all()))
	}
}

func TestTeeHandlerAllNilDiscards(t *testing.T) {
	logger := slog.New(logging.TeeHandler(nil, nil))
	logger.Error("nowhere to go")
}

func TestJobHandlerStampsJobID(t *testing.T) {
	h := &recordingHandler{}
	logger := slog.New(logging.NewJobHandler(h, "job-7"))
	logger.Info("stamped")

	records := h.all()
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if v, ok := recordAttr(records[0], logging.FieldJobID); !ok || v != "job-7" {
		t.Fatalf("expected job_id=job-7, got %q (found=%v)", v, ok)
	}
}

func TestJobHandlerEmptyIDPassesThrough(t *testing.T) {
	h := &recordingHandler{}
	logger := slog.New(logging.NewJobHandler(h, ""))
	logger.Info("plain")

	records := h.all()
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if _, ok := recordAttr(records[0], logging.FieldJobID); ok {
		t.Fatal("expected no job_id attr for empty id")
	}
}
