// Package summarize turns lecture transcripts into structured markdown
// summaries.
//
// Summarization runs in two passes. Pass one condenses each transcript
// chunk on its own; pass two merges the labeled partial summaries into a
// single document. The prompts carry negative instructions so unclear
// passages are reported as unclear instead of being filled in. Norwegian
// and English prompt sets are selected from the job language, falling back
// to the transcriber's detected language for automatic jobs.
//
// Two backends are available: an OpenAI-compatible chat completions
// endpoint (Mistral by default) and the Gemini API with rotation across
// multiple keys.
package summarize
