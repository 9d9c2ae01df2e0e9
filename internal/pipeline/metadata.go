package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"catchup/internal/store"
)

// Metadata is the identity snapshot written next to a lecture's outputs so
// the directory is self-describing without the database.
type Metadata struct {
	LectureID  string    `json:"lecture_id"`
	CourseCode string    `json:"course_code"`
	Date       string    `json:"date"`
	Title      string    `json:"title"`
	SourceURL  string    `json:"source_url"`
	SourceUID  string    `json:"source_uid"`
	JobID      string    `json:"job_id"`
	Language   string    `json:"language"`
	CreatedAt  time.Time `json:"created_at"`
}

// SummaryDocument is the structured sidecar written alongside summary.md.
type SummaryDocument struct {
	LectureID   string    `json:"lecture_id"`
	JobID       string    `json:"job_id"`
	Language    string    `json:"language"`
	ChunkCount  int       `json:"chunk_count"`
	Markdown    string    `json:"markdown"`
	GeneratedAt time.Time `json:"generated_at"`
}

// NewMetadata builds the snapshot for one job over a lecture.
func NewMetadata(lecture *store.Lecture, jobID, language string) Metadata {
	return Metadata{
		LectureID:  lecture.ID,
		CourseCode: lecture.CourseCode,
		Date:       lecture.Date,
		Title:      lecture.Title,
		SourceURL:  lecture.SourceURL,
		SourceUID:  lecture.SourceUID,
		JobID:      jobID,
		Language:   language,
		CreatedAt:  time.Now().UTC(),
	}
}

func writeJSONFile(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
