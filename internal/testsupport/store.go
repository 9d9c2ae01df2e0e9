package testsupport

import (
	"context"
	"testing"

	"catchup/internal/config"
	"catchup/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewLecture creates a lecture record for tests using the provided store.
func NewLecture(t testing.TB, st *store.Store, id, course, date, uid string) *store.Lecture {
	t.Helper()

	lecture, err := st.CreateLecture(context.Background(), &store.Lecture{
		ID:         id,
		CourseCode: course,
		Date:       date,
		Title:      course + " lecture",
		SourceURL:  "https://example.com/" + uid,
		SourceUID:  uid,
	})
	if err != nil {
		t.Fatalf("store.CreateLecture: %v", err)
	}
	return lecture
}

// NewJob creates a queued job for tests using the provided store.
func NewJob(t testing.TB, st *store.Store, jobID, lectureID string) *store.Job {
	t.Helper()

	job, err := st.CreateJob(context.Background(), jobID, lectureID, "auto")
	if err != nil {
		t.Fatalf("store.CreateJob: %v", err)
	}
	return job
}
