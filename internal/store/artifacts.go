package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const artifactColumns = "id, lecture_id, job_id, kind, path, created_at"

// CreateArtifact records one durable output file. Artifacts are append-only:
// repeated jobs on the same lecture add records, nothing is deduplicated.
func (s *Store) CreateArtifact(ctx context.Context, lectureID, jobID string, kind ArtifactKind, path string) (*Artifact, error) {
	if strings.TrimSpace(lectureID) == "" {
		return nil, errors.New("lecture id is required")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("artifact path is required")
	}

	timestamp := timestampNow()
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO artifacts (lecture_id, job_id, kind, path, created_at) VALUES (?, ?, ?, ?, ?)`,
		lectureID,
		nullableString(jobID),
		kind,
		path,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert artifact: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+artifactColumns+` FROM artifacts WHERE id = ?`, id)
	artifact, err := scanArtifact(row)
	if err != nil {
		return nil, fmt.Errorf("get artifact: %w", err)
	}
	return artifact, nil
}

// GetArtifactsForLecture returns every artifact recorded for a lecture,
// oldest first.
func (s *Store) GetArtifactsForLecture(ctx context.Context, lectureID string) ([]*Artifact, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+artifactColumns+` FROM artifacts WHERE lecture_id = ? ORDER BY id`,
		lectureID,
	)
	if err != nil {
		return nil, fmt.Errorf("artifacts for lecture: %w", err)
	}
	defer rows.Close()
	return collectArtifacts(rows)
}

// GetArtifactsForJob returns the artifacts a specific job produced, oldest
// first.
func (s *Store) GetArtifactsForJob(ctx context.Context, jobID string) ([]*Artifact, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+artifactColumns+` FROM artifacts WHERE job_id = ? ORDER BY id`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("artifacts for job: %w", err)
	}
	defer rows.Close()
	return collectArtifacts(rows)
}

func collectArtifacts(rows *sql.Rows) ([]*Artifact, error) {
	var artifacts []*Artifact
	for rows.Next() {
		artifact, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, rows.Err()
}

func scanArtifact(scanner interface{ Scan(dest ...any) error }) (*Artifact, error) {
	var (
		id         int64
		lectureID  string
		jobID      sql.NullString
		kind       string
		path       string
		createdRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&lectureID,
		&jobID,
		&kind,
		&path,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	artifact := &Artifact{
		ID:        id,
		LectureID: lectureID,
		JobID:     jobID.String,
		Kind:      ArtifactKind(kind),
		Path:      path,
	}
	if created, err := parseTimestamp(createdRaw.String); err == nil {
		artifact.CreatedAt = created
	}
	return artifact, nil
}
