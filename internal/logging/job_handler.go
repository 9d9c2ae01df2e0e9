package logging

import (
	"context"
	"log/slog"
)

// jobIDHandler wraps another handler to inject a job_id attribute into all
// records, so every line captured in a per-job log file carries the job it
// belongs to even when the call site did not pass one.
type jobIDHandler struct {
	base  slog.Handler
	jobID string
}

// NewJobHandler stamps jobID on every record passing through base.
func NewJobHandler(base slog.Handler, jobID string) slog.Handler {
	if base == nil {
		return slog.DiscardHandler
	}
	if jobID == "" {
		return base
	}
	return &jobIDHandler{base: base, jobID: jobID}
}

func (h *jobIDHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *jobIDHandler) Handle(ctx context.Context, record slog.Record) error {
	record.AddAttrs(slog.String(FieldJobID, h.jobID))
	return h.base.Handle(ctx, record)
}

func (h *jobIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &jobIDHandler{
		base:  h.base.WithAttrs(attrs),
		jobID: h.jobID,
	}
}

func (h *jobIDHandler) WithGroup(name string) slog.Handler {
	return &jobIDHandler{
		base:  h.base.WithGroup(name),
		jobID: h.jobID,
	}
}
