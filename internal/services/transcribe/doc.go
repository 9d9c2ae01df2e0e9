// Package transcribe uploads lecture audio to an OpenAI-compatible
// transcription endpoint, window by window, and assembles the raw
// transcript.
package transcribe
