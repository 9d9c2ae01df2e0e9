package store

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a pipeline job.
type Status string

const (
	StatusQueued       Status = "queued"
	StatusDownloading  Status = "downloading"
	StatusConverting   Status = "converting"
	StatusVAD          Status = "vad"
	StatusTranscribing Status = "transcribing"
	StatusSummarizing  Status = "summarizing"
	StatusDone         Status = "done"
	StatusError        Status = "error"
)

var allStatuses = []Status{
	StatusQueued,
	StatusDownloading,
	StatusConverting,
	StatusVAD,
	StatusTranscribing,
	StatusSummarizing,
	StatusDone,
	StatusError,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusDownloading:  {},
	StatusConverting:   {},
	StatusVAD:          {},
	StatusTranscribing: {},
	StatusSummarizing:  {},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Progress returns the fixed progress checkpoint a job reaches when it
// enters the status. Checkpoints are coarse on purpose: they mark which
// stage is underway, not how far along the stage is.
func (s Status) Progress() float64 {
	switch s {
	case StatusDownloading:
		return 0.1
	case StatusConverting:
		return 0.2
	case StatusVAD:
		return 0.3
	case StatusTranscribing:
		return 0.4
	case StatusSummarizing:
		return 0.7
	case StatusDone:
		return 1.0
	default:
		return 0
	}
}

// IsTerminal reports whether the status ends the job lifecycle.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusError
}

// IsProcessingStatus reports whether a status reflects an in-flight stage.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// ArtifactKind identifies the type of a durable file produced by a stage.
type ArtifactKind string

const (
	ArtifactMetadataJSON     ArtifactKind = "metadata_json"
	ArtifactAudioOriginalWAV ArtifactKind = "audio_original_wav"
	ArtifactAudioVADWAV      ArtifactKind = "audio_vad_wav"
	ArtifactRawTranscriptTXT ArtifactKind = "raw_transcript_txt"
	ArtifactChunksJSON       ArtifactKind = "transcript_chunks_json"
	ArtifactSummaryMD        ArtifactKind = "summary_md"
	ArtifactSummaryJSON      ArtifactKind = "summary_json"
	ArtifactLog              ArtifactKind = "log"
)

// Lecture identifies one distinct source video. Lectures are deduplicated by
// SourceUID: repeated submissions of the same media reuse the existing record.
type Lecture struct {
	ID         string
	CourseCode string
	Date       string
	Title      string
	SourceURL  string
	SourceUID  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Job is one execution attempt of the pipeline for a lecture. Only the
// pipeline runner mutates a job once created; status moves forward through
// the stage order and never backward, except into StatusError which is final.
type Job struct {
	ID           string
	LectureID    string
	Language     string
	Status       Status
	Progress     float64
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	StartedAt    *time.Time
	FinishedAt   *time.Time
}

// Artifact records one durable output file produced by a pipeline stage.
// Artifacts are immutable once created; repeated jobs for the same lecture
// accumulate additional records rather than replacing earlier ones.
type Artifact struct {
	ID        int64
	LectureID string
	JobID     string
	Kind      ArtifactKind
	Path      string
	CreatedAt time.Time
}

// HealthSummary describes aggregated job counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Queued     int
	Processing int
	Done       int
	Errored    int
}

// DatabaseHealth captures diagnostic information about the catchup database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TablesPresent    []string
	MissingTables    []string
	IntegrityCheck   bool
	TotalLectures    int
	TotalJobs        int
	TotalArtifacts   int
	Error            string
}
