package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"catchup/internal/api"
	"catchup/internal/logging"
	"catchup/internal/store"
	"catchup/internal/testsupport"
)

func newTestDaemon(t *testing.T) *Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	d, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func TestAPISubmitJobReturnsAccepted(t *testing.T) {
	d := newTestDaemon(t)

	body := strings.NewReader(`{"url": "https://example.com/ELE130-intro.mp4", "language": "no"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/jobs", body)
	w := httptest.NewRecorder()
	d.api.handleJobs(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", w.Code, w.Body.String())
	}
	var resp api.SubmitJobResponse
	decodeBody(t, w, &resp)
	if resp.JobID == "" {
		t.Fatal("job id missing from response")
	}
	if !strings.HasPrefix(resp.LectureID, "ELE130_") {
		t.Fatalf("lecture id = %q, want course-derived identifier", resp.LectureID)
	}
	if resp.Status != string(store.StatusQueued) {
		t.Fatalf("status = %q, want queued", resp.Status)
	}

	job, err := d.store.GetJob(context.Background(), resp.JobID)
	if err != nil || job == nil {
		t.Fatalf("job row missing after submission: %v", err)
	}
}

func TestAPISubmitJobRejectsMissingURL(t *testing.T) {
	d := newTestDaemon(t)

	req := httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	d.api.handleJobs(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestAPISubmitJobRejectsMalformedBody(t *testing.T) {
	d := newTestDaemon(t)

	req := httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader(`{"url":`))
	w := httptest.NewRecorder()
	d.api.handleJobs(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var payload map[string]string
	decodeBody(t, w, &payload)
	if payload["error"] == "" {
		t.Fatal("error payload missing")
	}
}

func TestAPIListJobsHonorsLimit(t *testing.T) {
	d := newTestDaemon(t)
	lecture := testsupport.NewLecture(t, d.store, "ELE130_2025-09-01_abc", "ELE130", "2025-09-01", "abc")
	testsupport.NewJob(t, d.store, "job-1", lecture.ID)
	testsupport.NewJob(t, d.store, "job-2", lecture.ID)

	req := httptest.NewRequest(http.MethodGet, "/api/jobs?limit=1", nil)
	w := httptest.NewRecorder()
	d.api.handleJobs(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp api.JobListResponse
	decodeBody(t, w, &resp)
	if len(resp.Jobs) != 1 {
		t.Fatalf("jobs = %d, want 1", len(resp.Jobs))
	}
}

func TestAPIJobDetailIncludesLectureAndArtifacts(t *testing.T) {
	d := newTestDaemon(t)
	lecture := testsupport.NewLecture(t, d.store, "ELE130_2025-09-01_abc", "ELE130", "2025-09-01", "abc")
	job := testsupport.NewJob(t, d.store, "job-1", lecture.ID)
	if _, err := d.store.CreateArtifact(context.Background(), lecture.ID, job.ID, store.ArtifactSummaryMD, "/tmp/summary.md"); err != nil {
		t.Fatalf("CreateArtifact: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/job-1", nil)
	w := httptest.NewRecorder()
	d.api.handleJob(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var resp api.JobDetailResponse
	decodeBody(t, w, &resp)
	if resp.Job.ID != "job-1" {
		t.Fatalf("job id = %q", resp.Job.ID)
	}
	if resp.Lecture == nil || resp.Lecture.ID != lecture.ID {
		t.Fatalf("lecture = %+v, want %s embedded", resp.Lecture, lecture.ID)
	}
	if len(resp.Artifacts) != 1 || resp.Artifacts[0].Kind != string(store.ArtifactSummaryMD) {
		t.Fatalf("artifacts = %+v", resp.Artifacts)
	}
}

func TestAPIJobNotFound(t *testing.T) {
	d := newTestDaemon(t)

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/no-such-job", nil)
	w := httptest.NewRecorder()
	d.api.handleJob(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	var payload map[string]string
	decodeBody(t, w, &payload)
	if payload["error"] != "job not found" {
		t.Fatalf("error = %q", payload["error"])
	}
}

func TestAPILectureDetailListsJobHistory(t *testing.T) {
	d := newTestDaemon(t)
	lecture := testsupport.NewLecture(t, d.store, "ELE130_2025-09-01_abc", "ELE130", "2025-09-01", "abc")
	testsupport.NewJob(t, d.store, "job-1", lecture.ID)
	testsupport.NewJob(t, d.store, "job-2", lecture.ID)

	req := httptest.NewRequest(http.MethodGet, "/api/lectures/"+lecture.ID, nil)
	w := httptest.NewRecorder()
	d.api.handleLecture(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp api.LectureDetailResponse
	decodeBody(t, w, &resp)
	if resp.Lecture.ID != lecture.ID {
		t.Fatalf("lecture id = %q", resp.Lecture.ID)
	}
	if len(resp.Jobs) != 2 {
		t.Fatalf("jobs = %d, want both attempts", len(resp.Jobs))
	}
}

func TestAPICourseBrowsing(t *testing.T) {
	d := newTestDaemon(t)
	testsupport.NewLecture(t, d.store, "ELE130_2025-09-01_abc", "ELE130", "2025-09-01", "abc")
	testsupport.NewLecture(t, d.store, "ELE130_2025-09-08_def", "ELE130", "2025-09-08", "def")
	testsupport.NewLecture(t, d.store, "MAT200_2025-09-01_ghi", "MAT200", "2025-09-01", "ghi")

	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	w := httptest.NewRecorder()
	d.api.handleCourses(w, req)
	var courses api.CourseListResponse
	decodeBody(t, w, &courses)
	if len(courses.Courses) != 2 {
		t.Fatalf("courses = %v, want two distinct codes", courses.Courses)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/courses/ELE130/dates", nil)
	w = httptest.NewRecorder()
	d.api.handleCourseTree(w, req)
	var dates api.DateListResponse
	decodeBody(t, w, &dates)
	if dates.CourseCode != "ELE130" || len(dates.Dates) != 2 {
		t.Fatalf("dates response = %+v", dates)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/courses/ELE130/dates/2025-09-01/lectures", nil)
	w = httptest.NewRecorder()
	d.api.handleCourseTree(w, req)
	var lectures api.LectureListResponse
	decodeBody(t, w, &lectures)
	if len(lectures.Lectures) != 1 || lectures.Lectures[0].CourseCode != "ELE130" {
		t.Fatalf("lectures response = %+v", lectures)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/courses/ELE130/unknown", nil)
	w = httptest.NewRecorder()
	d.api.handleCourseTree(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for unknown subresource", w.Code)
	}
}

func TestAPIMetadataDescribesURL(t *testing.T) {
	d := newTestDaemon(t)

	target := "/api/metadata?url=" + url.QueryEscape("https://example.com/ELE130-intro-forelesning.mp4")
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	d.api.handleMetadata(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var resp api.MetadataResponse
	decodeBody(t, w, &resp)
	if resp.CourseCode != "ELE130" {
		t.Fatalf("course = %q", resp.CourseCode)
	}
	if resp.LanguageSuggestion != "no" {
		t.Fatalf("language suggestion = %q, want course default", resp.LanguageSuggestion)
	}
	if resp.SourceUID == "" || len(resp.SourceUIDShort) > 8 {
		t.Fatalf("uid fields = %q/%q", resp.SourceUID, resp.SourceUIDShort)
	}
}

func TestAPIMetadataRequiresURL(t *testing.T) {
	d := newTestDaemon(t)

	req := httptest.NewRequest(http.MethodGet, "/api/metadata", nil)
	w := httptest.NewRecorder()
	d.api.handleMetadata(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestAPIStatusSnapshot(t *testing.T) {
	d := newTestDaemon(t)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()
	d.api.handleStatus(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp api.StatusResponse
	decodeBody(t, w, &resp)
	if resp.Running {
		t.Fatal("daemon should not report running before Start")
	}
	if !resp.UseFakeClients {
		t.Fatal("test config should report fake clients")
	}
	if resp.Queue.Workers < 1 || resp.Queue.QueueCapacity < 1 {
		t.Fatalf("queue stats = %+v", resp.Queue)
	}
	if !resp.Database.Healthy || resp.Database.Path == "" {
		t.Fatalf("database status = %+v", resp.Database)
	}
}

func TestAPIHealthz(t *testing.T) {
	d := newTestDaemon(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	d.api.handleHealthz(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/healthz", nil)
	w = httptest.NewRecorder()
	d.api.handleHealthz(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", w.Code)
	}
}

func TestAPIJobsMethodNotAllowed(t *testing.T) {
	d := newTestDaemon(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/jobs", nil)
	w := httptest.NewRecorder()
	d.api.handleJobs(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", w.Code)
	}
}
