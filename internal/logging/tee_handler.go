package logging

import (
	"context"
	"errors"
	"log/slog"
)

// teeHandler forwards each record to every sink that accepts its level. The
// pipeline relies on it to feed a run's records to both the shared daemon
// logger and the job's own log file.
type teeHandler struct {
	sinks []slog.Handler
}

// TeeHandler combines handlers into one. Nil entries are dropped; a single
// surviving handler is returned as is.
func TeeHandler(handlers ...slog.Handler) slog.Handler {
	sinks := make([]slog.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			sinks = append(sinks, h)
		}
	}
	switch len(sinks) {
	case 0:
		return slog.DiscardHandler
	case 1:
		return sinks[0]
	default:
		return &teeHandler{sinks: sinks}
	}
}

func (t *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, sink := range t.sinks {
		if sink.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t *teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for i, sink := range t.sinks {
		if !sink.Enabled(ctx, record.Level) {
			continue
		}
		rec := record
		if i < len(t.sinks)-1 {
			rec = record.Clone()
		}
		if err := sink.Handle(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sinks := make([]slog.Handler, len(t.sinks))
	for i, sink := range t.sinks {
		sinks[i] = sink.WithAttrs(attrs)
	}
	return &teeHandler{sinks: sinks}
}

func (t *teeHandler) WithGroup(name string) slog.Handler {
	sinks := make([]slog.Handler, len(t.sinks))
	for i, sink := range t.sinks {
		sinks[i] = sink.WithGroup(name)
	}
	return &teeHandler{sinks: sinks}
}
