package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const jobColumns = "id, lecture_id, language, status, progress, error_message, created_at, updated_at, started_at, finished_at"

// InterruptedMessage is the error message recorded for jobs that were
// in-flight when the daemon stopped.
const InterruptedMessage = "interrupted by daemon restart"

// CreateJob inserts a new job in the queued state. The job ID is supplied by
// the caller and must be unique; re-submissions of a lecture use a fresh ID.
func (s *Store) CreateJob(ctx context.Context, jobID, lectureID, language string) (*Job, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, errors.New("job id is required")
	}
	if strings.TrimSpace(lectureID) == "" {
		return nil, errors.New("lecture id is required")
	}
	if strings.TrimSpace(language) == "" {
		language = "auto"
	}

	timestamp := timestampNow()
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (id, lecture_id, language, status, progress, error_message, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		jobID,
		lectureID,
		language,
		StatusQueued,
		0.0,
		nil,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return s.GetJob(ctx, jobID)
}

// GetJob fetches a job by identifier. Returns nil when no such job exists.
func (s *Store) GetJob(ctx context.Context, jobID string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, jobID)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// UpdateJobStatus persists a status transition as a single write. The first
// transition out of queued stamps started_at; a transition into done or error
// stamps finished_at. The error message is stored verbatim; pass empty for
// non-error transitions.
func (s *Store) UpdateJobStatus(ctx context.Context, jobID string, status Status, progress float64, errorMessage string) error {
	timestamp := timestampNow()
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs
         SET status = ?, progress = ?, error_message = ?, updated_at = ?,
             started_at = CASE WHEN started_at IS NULL AND ? != ? THEN ? ELSE started_at END,
             finished_at = CASE WHEN ? IN (?, ?) THEN ? ELSE finished_at END
         WHERE id = ?`,
		status,
		progress,
		nullableString(errorMessage),
		timestamp,
		status,
		StatusQueued,
		timestamp,
		status,
		StatusDone,
		StatusError,
		timestamp,
		jobID,
	)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job %s not found", jobID)
	}
	return nil
}

// ListRecentJobs returns the newest jobs first, up to limit.
func (s *Store) ListRecentJobs(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent jobs: %w", err)
	}
	defer rows.Close()
	return collectJobs(rows)
}

// ListJobsForLecture returns every job recorded for a lecture, oldest first.
func (s *Store) ListJobsForLecture(ctx context.Context, lectureID string) ([]*Job, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE lecture_id = ? ORDER BY created_at`,
		lectureID,
	)
	if err != nil {
		return nil, fmt.Errorf("list jobs for lecture: %w", err)
	}
	defer rows.Close()
	return collectJobs(rows)
}

// ListQueuedJobs returns jobs still waiting to run, oldest first. The daemon
// re-enqueues these at startup so accepted work survives a restart.
func (s *Store) ListQueuedJobs(ctx context.Context) ([]*Job, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE status = ? ORDER BY created_at`,
		StatusQueued,
	)
	if err != nil {
		return nil, fmt.Errorf("list queued jobs: %w", err)
	}
	defer rows.Close()
	return collectJobs(rows)
}

// FailInterrupted marks jobs left in a processing state by a previous run as
// errored. Status never moves backward, so an interrupted job cannot return
// to queued; the lecture is re-submitted with a fresh job id instead.
func (s *Store) FailInterrupted(ctx context.Context) (int64, error) {
	statuses := make([]Status, 0, len(processingStatuses))
	for status := range processingStatuses {
		statuses = append(statuses, status)
	}
	placeholders := makePlaceholders(len(statuses))

	timestamp := timestampNow()
	args := make([]any, 0, len(statuses)+4)
	args = append(args, StatusError, InterruptedMessage, timestamp, timestamp)
	for _, status := range statuses {
		args = append(args, status)
	}

	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs
         SET status = ?, error_message = ?, updated_at = ?, finished_at = ?
         WHERE status IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("fail interrupted jobs: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns a count of jobs grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates job state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusQueued:
			health.Queued += count
		case StatusDone:
			health.Done += count
		case StatusError:
			health.Errored += count
		default:
			if _, ok := processingStatuses[status]; ok {
				health.Processing += count
			}
		}
	}
	return health, nil
}

func collectJobs(rows *sql.Rows) ([]*Job, error) {
	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id           string
		lectureID    string
		language     string
		statusStr    string
		progress     sql.NullFloat64
		errorMessage sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
		startedRaw   sql.NullString
		finishedRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&lectureID,
		&language,
		&statusStr,
		&progress,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:           id,
		LectureID:    lectureID,
		Language:     language,
		Status:       Status(statusStr),
		Progress:     progress.Float64,
		ErrorMessage: errorMessage.String,
	}
	if created, err := parseTimestamp(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimestamp(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	if startedRaw.Valid {
		if started, err := parseTimestamp(startedRaw.String); err == nil {
			job.StartedAt = &started
		}
	}
	if finishedRaw.Valid {
		if finished, err := parseTimestamp(finishedRaw.String); err == nil {
			job.FinishedAt = &finished
		}
	}
	return job, nil
}
