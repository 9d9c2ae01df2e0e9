package services

import (
	"errors"
	"fmt"
	"strings"
)

// Stage failure markers. Each pipeline stage surfaces exactly one of these so
// telemetry and notifications can name the failing capability without parsing
// message text.
var (
	ErrDownload      = errors.New("download error")
	ErrConversion    = errors.New("conversion error")
	ErrProcessing    = errors.New("processing error")
	ErrTranscription = errors.New("transcription error")
	ErrSummarization = errors.New("summarization error")
)

// Non-stage markers for the surrounding system.
var (
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureKind names the stage capability a pipeline error belongs to.
// Errors without a stage marker report as "pipeline".
func FailureKind(err error) string {
	switch {
	case errors.Is(err, ErrDownload):
		return "download"
	case errors.Is(err, ErrConversion):
		return "conversion"
	case errors.Is(err, ErrProcessing):
		return "processing"
	case errors.Is(err, ErrTranscription):
		return "transcription"
	case errors.Is(err, ErrSummarization):
		return "summarization"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "pipeline"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
