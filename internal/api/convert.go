package api

import "catchup/internal/store"

// FromJob converts a job record to its API representation.
func FromJob(job *store.Job) JobView {
	if job == nil {
		return JobView{}
	}
	return JobView{
		ID:           job.ID,
		LectureID:    job.LectureID,
		Language:     job.Language,
		Status:       string(job.Status),
		Progress:     job.Progress,
		ErrorMessage: job.ErrorMessage,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
		StartedAt:    job.StartedAt,
		FinishedAt:   job.FinishedAt,
	}
}

// FromJobs converts a slice of job records into API DTOs.
func FromJobs(jobs []*store.Job) []JobView {
	if len(jobs) == 0 {
		return nil
	}
	out := make([]JobView, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, FromJob(job))
	}
	return out
}

// FromLecture converts a lecture record to its API representation.
func FromLecture(lecture *store.Lecture) LectureView {
	if lecture == nil {
		return LectureView{}
	}
	return LectureView{
		ID:         lecture.ID,
		CourseCode: lecture.CourseCode,
		Date:       lecture.Date,
		Title:      lecture.Title,
		SourceURL:  lecture.SourceURL,
		SourceUID:  lecture.SourceUID,
		CreatedAt:  lecture.CreatedAt,
	}
}

// FromLectures converts a slice of lecture records into API DTOs.
func FromLectures(lectures []*store.Lecture) []LectureView {
	if len(lectures) == 0 {
		return nil
	}
	out := make([]LectureView, 0, len(lectures))
	for _, lecture := range lectures {
		out = append(out, FromLecture(lecture))
	}
	return out
}

// FromArtifact converts an artifact record to its API representation.
func FromArtifact(artifact *store.Artifact) ArtifactView {
	if artifact == nil {
		return ArtifactView{}
	}
	return ArtifactView{
		Kind:      string(artifact.Kind),
		Path:      artifact.Path,
		JobID:     artifact.JobID,
		CreatedAt: artifact.CreatedAt,
	}
}

// FromArtifacts converts a slice of artifact records into API DTOs.
func FromArtifacts(artifacts []*store.Artifact) []ArtifactView {
	if len(artifacts) == 0 {
		return nil
	}
	out := make([]ArtifactView, 0, len(artifacts))
	for _, artifact := range artifacts {
		out = append(out, FromArtifact(artifact))
	}
	return out
}

// FromHealthSummary converts aggregated job counts into API job totals.
func FromHealthSummary(summary store.HealthSummary) JobCounts {
	return JobCounts{
		Total:      summary.Total,
		Queued:     summary.Queued,
		Processing: summary.Processing,
		Done:       summary.Done,
		Errored:    summary.Errored,
	}
}
