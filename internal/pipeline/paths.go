package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"catchup/internal/identity"
	"catchup/internal/store"
)

// Workspace is the deterministic on-disk layout for one lecture. Every job
// for the same lecture works in the same directory, so re-runs overwrite
// stage outputs in place while per-job logs stay distinct.
type Workspace struct {
	Root          string
	TranscriptDir string
	SummaryDir    string
	LogsDir       string
}

// WorkspaceFor derives the workspace from the lecture identity:
// {dataRoot}/{course}/{date}/{shortUID}.
func WorkspaceFor(dataRoot string, lecture *store.Lecture) Workspace {
	root := filepath.Join(dataRoot, lecture.CourseCode, lecture.Date, identity.ShortUID(lecture.SourceUID))
	return Workspace{
		Root:          root,
		TranscriptDir: filepath.Join(root, "transcript"),
		SummaryDir:    filepath.Join(root, "summary"),
		LogsDir:       filepath.Join(root, "logs"),
	}
}

// Ensure creates the workspace directories.
func (w Workspace) Ensure() error {
	for _, dir := range []string{w.Root, w.TranscriptDir, w.SummaryDir, w.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create workspace directory %q: %w", dir, err)
		}
	}
	return nil
}

// SourceURLPath is the file recording the submitted URL.
func (w Workspace) SourceURLPath() string {
	return filepath.Join(w.Root, "source_url.txt")
}

// MetadataPath is the lecture identity snapshot.
func (w Workspace) MetadataPath() string {
	return filepath.Join(w.Root, "metadata.json")
}

// OriginalAudioPath is the converted full-length WAV.
func (w Workspace) OriginalAudioPath() string {
	return filepath.Join(w.Root, "audio_original.wav")
}

// VADAudioPath is the silence-collapsed WAV.
func (w Workspace) VADAudioPath() string {
	return filepath.Join(w.Root, "audio_vad.wav")
}

// RawTranscriptPath is the concatenated transcript text.
func (w Workspace) RawTranscriptPath() string {
	return filepath.Join(w.TranscriptDir, "raw_transcript.txt")
}

// ChunksPath is the per-window chunk record JSON.
func (w Workspace) ChunksPath() string {
	return filepath.Join(w.TranscriptDir, "transcript_chunks.json")
}

// SummaryMarkdownPath is the rendered summary.
func (w Workspace) SummaryMarkdownPath() string {
	return filepath.Join(w.SummaryDir, "summary.md")
}

// SummaryJSONPath is the structured summary sidecar.
func (w Workspace) SummaryJSONPath() string {
	return filepath.Join(w.SummaryDir, "summary.json")
}

// JobLogPath is the per-job pipeline log file.
func (w Workspace) JobLogPath(jobID string) string {
	return filepath.Join(w.LogsDir, fmt.Sprintf("pipeline_%s.log", jobID))
}
