package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const lectureColumns = "id, course_code, date, title, source_url, source_uid, created_at, updated_at"

// CreateLecture inserts a new lecture record. The caller supplies the derived
// identity fields; ID and SourceUID must be set.
func (s *Store) CreateLecture(ctx context.Context, lecture *Lecture) (*Lecture, error) {
	if lecture == nil {
		return nil, errors.New("lecture is nil")
	}
	if strings.TrimSpace(lecture.ID) == "" {
		return nil, errors.New("lecture id is required")
	}
	if strings.TrimSpace(lecture.SourceUID) == "" {
		return nil, errors.New("lecture source uid is required")
	}

	timestamp := timestampNow()
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO lectures (id, course_code, date, title, source_url, source_uid, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		lecture.ID,
		lecture.CourseCode,
		lecture.Date,
		lecture.Title,
		lecture.SourceURL,
		lecture.SourceUID,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert lecture: %w", err)
	}
	return s.GetLecture(ctx, lecture.ID)
}

// GetLecture fetches a lecture by its derived identifier. Returns nil when no
// such lecture exists.
func (s *Store) GetLecture(ctx context.Context, id string) (*Lecture, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+lectureColumns+` FROM lectures WHERE id = ?`, id)
	lecture, err := scanLecture(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get lecture: %w", err)
	}
	return lecture, nil
}

// GetLectureByUID fetches a lecture by its content-derived source UID.
// Returns nil when no such lecture exists.
func (s *Store) GetLectureByUID(ctx context.Context, sourceUID string) (*Lecture, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+lectureColumns+` FROM lectures WHERE source_uid = ?`, sourceUID)
	lecture, err := scanLecture(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get lecture by uid: %w", err)
	}
	return lecture, nil
}

// GetOrCreateLecture returns the existing lecture for the candidate's source
// UID, creating it when absent. The existing record is never updated, so two
// submissions of the same source always resolve to the same lecture.
func (s *Store) GetOrCreateLecture(ctx context.Context, candidate *Lecture) (*Lecture, error) {
	if candidate == nil {
		return nil, errors.New("lecture is nil")
	}

	existing, err := s.GetLectureByUID(ctx, candidate.SourceUID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	created, err := s.CreateLecture(ctx, candidate)
	if err == nil {
		return created, nil
	}

	// A concurrent submission may have inserted the same source UID between
	// the lookup and the insert. The unique constraint makes the insert fail;
	// the record we wanted now exists, so fetch it.
	existing, lookupErr := s.GetLectureByUID(ctx, candidate.SourceUID)
	if lookupErr == nil && existing != nil {
		return existing, nil
	}
	return nil, err
}

// ListCourses returns the distinct course codes with at least one lecture.
func (s *Store) ListCourses(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT course_code FROM lectures ORDER BY course_code`)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var courses []string
	for rows.Next() {
		var course string
		if err := rows.Scan(&course); err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	return courses, rows.Err()
}

// ListDatesForCourse returns the distinct lecture dates recorded for a course.
func (s *Store) ListDatesForCourse(ctx context.Context, courseCode string) ([]string, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT DISTINCT date FROM lectures WHERE course_code = ? ORDER BY date`,
		courseCode,
	)
	if err != nil {
		return nil, fmt.Errorf("list dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, err
		}
		dates = append(dates, date)
	}
	return dates, rows.Err()
}

// ListLecturesForCourseAndDate returns all lectures for one course on one date.
func (s *Store) ListLecturesForCourseAndDate(ctx context.Context, courseCode, date string) ([]*Lecture, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+lectureColumns+` FROM lectures WHERE course_code = ? AND date = ? ORDER BY created_at`,
		courseCode,
		date,
	)
	if err != nil {
		return nil, fmt.Errorf("list lectures: %w", err)
	}
	defer rows.Close()

	var lectures []*Lecture
	for rows.Next() {
		lecture, err := scanLecture(rows)
		if err != nil {
			return nil, err
		}
		lectures = append(lectures, lecture)
	}
	return lectures, rows.Err()
}

func scanLecture(scanner interface{ Scan(dest ...any) error }) (*Lecture, error) {
	var (
		id         string
		courseCode string
		date       string
		title      string
		sourceURL  string
		sourceUID  string
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&courseCode,
		&date,
		&title,
		&sourceURL,
		&sourceUID,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	lecture := &Lecture{
		ID:         id,
		CourseCode: courseCode,
		Date:       date,
		Title:      title,
		SourceURL:  sourceURL,
		SourceUID:  sourceUID,
	}
	if created, err := parseTimestamp(createdRaw.String); err == nil {
		lecture.CreatedAt = created
	}
	if updated, err := parseTimestamp(updatedRaw.String); err == nil {
		lecture.UpdatedAt = updated
	}
	return lecture, nil
}
