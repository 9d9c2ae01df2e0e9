package api

import "time"

// Wire types exchanged between the daemon's HTTP API and its clients. Field
// names stay snake_case so payloads match the artifact JSON the pipeline
// writes on disk.

// SubmitJobRequest is the POST /api/jobs payload.
type SubmitJobRequest struct {
	URL      string `json:"url"`
	Language string `json:"language,omitempty"`
}

// SubmitJobResponse acknowledges an accepted submission.
type SubmitJobResponse struct {
	JobID     string `json:"job_id"`
	LectureID string `json:"lecture_id"`
	Status    string `json:"status"`
}

// JobView is the transport projection of a job.
type JobView struct {
	ID           string     `json:"job_id"`
	LectureID    string     `json:"lecture_id"`
	Language     string     `json:"language"`
	Status       string     `json:"status"`
	Progress     float64    `json:"progress"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// LectureView is the transport projection of a lecture.
type LectureView struct {
	ID         string    `json:"lecture_id"`
	CourseCode string    `json:"course_code"`
	Date       string    `json:"lecture_date"`
	Title      string    `json:"title"`
	SourceURL  string    `json:"source_url"`
	SourceUID  string    `json:"source_uid"`
	CreatedAt  time.Time `json:"created_at"`
}

// ArtifactView is the transport projection of one durable output.
type ArtifactView struct {
	Kind      string    `json:"kind"`
	Path      string    `json:"path"`
	JobID     string    `json:"job_id"`
	CreatedAt time.Time `json:"created_at"`
}

// JobDetailResponse is one job with its lecture and artifacts.
type JobDetailResponse struct {
	Job       JobView        `json:"job"`
	Lecture   *LectureView   `json:"lecture,omitempty"`
	Artifacts []ArtifactView `json:"artifacts"`
}

// JobListResponse lists recent jobs.
type JobListResponse struct {
	Jobs []JobView `json:"jobs"`
}

// LectureDetailResponse is one lecture with its artifacts and attempts.
type LectureDetailResponse struct {
	Lecture   LectureView    `json:"lecture"`
	Artifacts []ArtifactView `json:"artifacts"`
	Jobs      []JobView      `json:"jobs"`
}

// CourseListResponse lists known course codes.
type CourseListResponse struct {
	Courses []string `json:"courses"`
}

// DateListResponse lists lecture dates within one course.
type DateListResponse struct {
	CourseCode string   `json:"course_code"`
	Dates      []string `json:"dates"`
}

// LectureListResponse lists lectures for one course and date.
type LectureListResponse struct {
	Lectures []LectureView `json:"lectures"`
}

// MetadataResponse mirrors the probe-only metadata view of a URL.
type MetadataResponse struct {
	Title              string `json:"title"`
	DurationSec        int    `json:"duration_sec"`
	CourseCode         string `json:"course_code"`
	LectureDate        string `json:"lecture_date"`
	SourceUID          string `json:"source_uid"`
	SourceUIDShort     string `json:"source_uid_short"`
	LanguageSuggestion string `json:"language_suggestion"`
}

// QueueStats reports worker pool occupancy.
type QueueStats struct {
	Workers       int  `json:"workers"`
	QueueCapacity int  `json:"queue_capacity"`
	Queued        int  `json:"queued"`
	Running       bool `json:"running"`
}

// JobCounts aggregates job totals per lifecycle group.
type JobCounts struct {
	Total      int `json:"total"`
	Queued     int `json:"queued"`
	Processing int `json:"processing"`
	Done       int `json:"done"`
	Errored    int `json:"errored"`
}

// DatabaseStatus reports store health.
type DatabaseStatus struct {
	Path    string `json:"path"`
	Healthy bool   `json:"healthy"`
}

// StatusResponse is the daemon snapshot served at /api/status.
type StatusResponse struct {
	Running        bool           `json:"running"`
	PID            int            `json:"pid"`
	UseFakeClients bool           `json:"use_fake_clients"`
	Queue          QueueStats     `json:"queue"`
	Jobs           JobCounts      `json:"jobs"`
	Database       DatabaseStatus `json:"database"`
}
