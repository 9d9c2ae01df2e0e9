// Package pipeline advances lecture jobs through the processing stages.
//
// The Runner executes one job at a time in stage order (download, convert,
// silence collapsing, transcription, summarization), persisting the status
// and checkpoint progress before each stage so observers always see what is
// underway. Every durable output is registered as an artifact row, including
// the per-job log that the Runner tees its records into.
//
// Stage work is delegated to the Clients bundle. Real clients shell out to
// yt-dlp and ffmpeg or call hosted APIs; the fakes in this package run the
// same path deterministically with no external processes, which is how the
// end-to-end tests exercise the orchestration.
//
// Add new lifecycle stages by extending the status enum in the store package
// and appending to the stage table in Runner.Run; this package is the
// authoritative home for ordering and failure semantics.
package pipeline
