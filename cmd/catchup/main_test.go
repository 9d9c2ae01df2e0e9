package main

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"catchup/internal/api"
)

const testLectureURL = "https://example.com/ELE130-intro.mp4"

func TestCLISubmitWaitProcessesJob(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"submit", "--wait", "--language", "no", testLectureURL}, env.apiURL, env.configPath)
	if err != nil {
		t.Fatalf("submit --wait: %v\noutput: %s", err, out)
	}
	requireContains(t, out, "Queued job")
	requireContains(t, out, "Lecture: ELE130_")
	requireContains(t, out, "done")
	requireContains(t, out, "summary_md")
}

func TestCLIJobsAndJobStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"submit", "--wait", testLectureURL}, env.apiURL, env.configPath); err != nil {
		t.Fatalf("submit --wait: %v", err)
	}

	out, _, err := runCLI(t, []string{"jobs", "--json"}, env.apiURL, env.configPath)
	if err != nil {
		t.Fatalf("jobs --json: %v", err)
	}
	var list api.JobListResponse
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("decode jobs output: %v\noutput: %s", err, out)
	}
	if len(list.Jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(list.Jobs))
	}
	job := list.Jobs[0]
	if job.Status != "done" {
		t.Fatalf("job status = %q, want done", job.Status)
	}

	out, _, err = runCLI(t, []string{"jobs"}, env.apiURL, env.configPath)
	if err != nil {
		t.Fatalf("jobs: %v", err)
	}
	requireContains(t, out, job.LectureID)
	requireContains(t, out, "100%")

	out, _, err = runCLI(t, []string{"status", job.ID}, env.apiURL, env.configPath)
	if err != nil {
		t.Fatalf("status <job-id>: %v", err)
	}
	requireContains(t, out, "done")
	requireContains(t, out, job.LectureID)
	requireContains(t, out, "summary_md")

	_, _, err = runCLI(t, []string{"status", "00000000-0000-0000-0000-000000000000"}, env.apiURL, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestCLILecturesBrowseAndShow(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"submit", "--wait", testLectureURL}, env.apiURL, env.configPath); err != nil {
		t.Fatalf("submit --wait: %v", err)
	}

	out, _, err := runCLI(t, []string{"lectures"}, env.apiURL, env.configPath)
	if err != nil {
		t.Fatalf("lectures: %v", err)
	}
	requireContains(t, out, "ELE130")

	out, _, err = runCLI(t, []string{"lectures", "--course", "ELE130", "--json"}, env.apiURL, env.configPath)
	if err != nil {
		t.Fatalf("lectures --course: %v", err)
	}
	var list api.LectureListResponse
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("decode lectures output: %v\noutput: %s", err, out)
	}
	if len(list.Lectures) != 1 {
		t.Fatalf("expected 1 lecture, got %d", len(list.Lectures))
	}
	lecture := list.Lectures[0]

	out, _, err = runCLI(t, []string{"lectures", "--course", "ELE130", "--date", lecture.Date}, env.apiURL, env.configPath)
	if err != nil {
		t.Fatalf("lectures --course --date: %v", err)
	}
	requireContains(t, out, lecture.ID)

	out, _, err = runCLI(t, []string{"show", lecture.ID}, env.apiURL, env.configPath)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	requireContains(t, out, "ELE130")
	requireContains(t, out, "summary_md")
	requireContains(t, out, testLectureURL)

	_, _, err = runCLI(t, []string{"show", "NOPE_unknown_lecture"}, env.apiURL, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}

	_, _, err = runCLI(t, []string{"lectures", "--date", "2025-09-01"}, env.apiURL, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "--course") {
		t.Fatalf("expected flag requirement error, got %v", err)
	}
}

func TestCLIMetadataCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"metadata", testLectureURL}, env.apiURL, env.configPath)
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	requireContains(t, out, "ELE130")
	requireContains(t, out, "Language:")

	out, _, err = runCLI(t, []string{"metadata", "--json", testLectureURL}, env.apiURL, env.configPath)
	if err != nil {
		t.Fatalf("metadata --json: %v", err)
	}
	var md api.MetadataResponse
	if err := json.Unmarshal([]byte(out), &md); err != nil {
		t.Fatalf("decode metadata output: %v\noutput: %s", err, out)
	}
	if md.CourseCode != "ELE130" {
		t.Fatalf("course = %q, want ELE130", md.CourseCode)
	}
	if md.SourceUIDShort == "" {
		t.Fatal("expected source uid in metadata")
	}
}

func TestCLIDaemonStatusSections(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.apiURL, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "running (pid")
	requireContains(t, out, "Dependencies")
	requireContains(t, out, "No jobs recorded")

	var snapshot api.StatusResponse
	out, _, err = runCLI(t, []string{"status", "--json"}, env.apiURL, env.configPath)
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	if err := json.Unmarshal([]byte(out), &snapshot); err != nil {
		t.Fatalf("decode status output: %v\noutput: %s", err, out)
	}
	if !snapshot.UseFakeClients {
		t.Fatal("expected fake clients to be reported")
	}
	if !snapshot.Database.Healthy {
		t.Fatal("expected healthy database")
	}
}

func TestCLIOfflineDaemon(t *testing.T) {
	_, configPath := writeCLIConfig(t)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	deadAddr := lis.Addr().String()
	lis.Close()

	out, _, err := runCLI(t, []string{"status"}, "http://"+deadAddr, configPath)
	if err != nil {
		t.Fatalf("status against offline daemon: %v", err)
	}
	requireContains(t, out, "not reachable")
	requireContains(t, out, "catchup serve")
	requireContains(t, out, "job counts unavailable")

	_, _, err = runCLI(t, []string{"submit", testLectureURL}, "http://"+deadAddr, configPath)
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected connection refused error, got %v", err)
	}
}

func TestCLIDepsCommand(t *testing.T) {
	_, configPath := writeCLIConfig(t)

	binDir := makeStubBinaries(t, "yt-dlp", "ffmpeg", "ffprobe")
	t.Setenv("PATH", binDir)

	out, _, err := runCLI(t, []string{"deps"}, "", configPath)
	if err != nil {
		t.Fatalf("deps with stub binaries: %v", err)
	}
	requireContains(t, out, "yt-dlp")
	requireContains(t, out, "Ready")

	t.Setenv("PATH", t.TempDir())
	_, _, err = runCLI(t, []string{"deps"}, "", configPath)
	if err == nil || !strings.Contains(err.Error(), "missing required binaries") {
		t.Fatalf("expected missing binaries error, got %v", err)
	}
}

func TestCLITestNotify(t *testing.T) {
	_, configPath := writeCLIConfig(t)

	out, _, err := runCLI(t, []string{"test-notify"}, "", configPath)
	if err != nil {
		t.Fatalf("test-notify unconfigured: %v", err)
	}
	requireContains(t, out, "not configured")

	received := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- struct{}{}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg, notifyConfigPath := writeCLIConfig(t)
	cfg.Notifications.NtfyTopic = srv.URL
	rewriteCLIConfig(t, notifyConfigPath, cfg)

	out, _, err = runCLI(t, []string{"test-notify"}, "", notifyConfigPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Test notification sent")
	select {
	case <-received:
	default:
		t.Fatal("expected notification request to reach the server")
	}
}
