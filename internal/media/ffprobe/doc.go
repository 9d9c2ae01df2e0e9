// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// This package has no catchup-specific dependencies and could be extracted
// as a standalone library.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual stream properties (codec, duration, sample rate)
//   - Format: container-level metadata (duration, size, format name)
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns parsed Result
//
// Helper methods on Result give direct access to the first audio stream,
// duration, sample rate, and channel count, which is what the conversion and
// silence-collapsing stages need.
package ffprobe
