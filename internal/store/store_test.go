package store_test

import (
	"context"
	"fmt"
	"testing"

	"catchup/internal/store"
	"catchup/internal/testsupport"
)

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	lecture, err := st.CreateLecture(ctx, &store.Lecture{
		ID:         "ELE130_2024-09-12_deadbeef",
		CourseCode: "ELE130",
		Date:       "2024-09-12",
		Title:      "ELE130 - Lecture 1",
		SourceURL:  "https://example.com/v/1",
		SourceUID:  "uid-1",
	})
	if err != nil {
		t.Fatalf("CreateLecture failed: %v", err)
	}
	if lecture.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be populated")
	}

	fetched, err := st.GetLecture(ctx, lecture.ID)
	if err != nil {
		t.Fatalf("GetLecture failed: %v", err)
	}
	if fetched == nil || fetched.Title != "ELE130 - Lecture 1" {
		t.Fatalf("unexpected fetched lecture: %#v", fetched)
	}

	found, err := st.GetLectureByUID(ctx, "uid-1")
	if err != nil {
		t.Fatalf("GetLectureByUID failed: %v", err)
	}
	if found == nil || found.ID != lecture.ID {
		t.Fatalf("expected to find inserted lecture, got %#v", found)
	}
}

func TestCreateLectureRequiresIdentity(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if _, err := st.CreateLecture(ctx, &store.Lecture{SourceUID: "uid"}); err == nil {
		t.Fatal("expected error when lecture id missing")
	}
	if _, err := st.CreateLecture(ctx, &store.Lecture{ID: "id"}); err == nil {
		t.Fatal("expected error when source uid missing")
	}
}

func TestGetOrCreateLectureDeduplicatesByUID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first, err := st.GetOrCreateLecture(ctx, &store.Lecture{
		ID:         "MAT200_2024-01-10_cafebabe",
		CourseCode: "MAT200",
		Date:       "2024-01-10",
		Title:      "MAT200 forelesning",
		SourceURL:  "https://example.com/v/2",
		SourceUID:  "uid-dedup",
	})
	if err != nil {
		t.Fatalf("GetOrCreateLecture failed: %v", err)
	}

	second, err := st.GetOrCreateLecture(ctx, &store.Lecture{
		ID:         "MAT200_2024-01-10_different",
		CourseCode: "MAT200",
		Date:       "2024-01-10",
		Title:      "resubmitted title",
		SourceURL:  "https://example.com/v/2?again=1",
		SourceUID:  "uid-dedup",
	})
	if err != nil {
		t.Fatalf("second GetOrCreateLecture failed: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("expected same lecture id, got %s and %s", first.ID, second.ID)
	}
	if second.Title != "MAT200 forelesning" {
		t.Fatalf("existing record should not be updated, got title %q", second.Title)
	}

	lectures, err := st.ListLecturesForCourseAndDate(ctx, "MAT200", "2024-01-10")
	if err != nil {
		t.Fatalf("ListLecturesForCourseAndDate failed: %v", err)
	}
	if len(lectures) != 1 {
		t.Fatalf("expected one lecture record, got %d", len(lectures))
	}
}

func TestJobLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	lecture := testsupport.NewLecture(t, st, "ELE130_2024-09-12_aaaa1111", "ELE130", "2024-09-12", "uid-job")

	job, err := st.CreateJob(ctx, "job-1", lecture.ID, "no")
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	if job.Status != store.StatusQueued {
		t.Fatalf("new job status = %s, want %s", job.Status, store.StatusQueued)
	}
	if job.Progress != 0 {
		t.Fatalf("new job progress = %v, want 0", job.Progress)
	}
	if job.StartedAt != nil || job.FinishedAt != nil {
		t.Fatal("new job should have no started_at or finished_at")
	}
	if job.Language != "no" {
		t.Fatalf("job language = %q, want no", job.Language)
	}

	if err := st.UpdateJobStatus(ctx, job.ID, store.StatusDownloading, store.StatusDownloading.Progress(), ""); err != nil {
		t.Fatalf("UpdateJobStatus failed: %v", err)
	}
	updated, err := st.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if updated.Status != store.StatusDownloading || updated.Progress != 0.1 {
		t.Fatalf("unexpected job after first transition: %#v", updated)
	}
	if updated.StartedAt == nil {
		t.Fatal("expected started_at after leaving queued")
	}
	if updated.FinishedAt != nil {
		t.Fatal("finished_at set before terminal state")
	}
	startedAt := *updated.StartedAt

	if err := st.UpdateJobStatus(ctx, job.ID, store.StatusDone, 1.0, ""); err != nil {
		t.Fatalf("UpdateJobStatus to done failed: %v", err)
	}
	done, err := st.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if done.Status != store.StatusDone || done.Progress != 1.0 {
		t.Fatalf("unexpected terminal job: %#v", done)
	}
	if done.FinishedAt == nil {
		t.Fatal("expected finished_at on done")
	}
	if done.StartedAt == nil || !done.StartedAt.Equal(startedAt) {
		t.Fatal("started_at should not change after the first transition")
	}
}

func TestUpdateJobStatusRecordsErrorVerbatim(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	lecture := testsupport.NewLecture(t, st, "ELE130_2024-09-12_bbbb2222", "ELE130", "2024-09-12", "uid-err")
	job := testsupport.NewJob(t, st, "job-err", lecture.ID)

	message := "download failed: fetch media: exit status 1"
	if err := st.UpdateJobStatus(ctx, job.ID, store.StatusError, 0.1, message); err != nil {
		t.Fatalf("UpdateJobStatus failed: %v", err)
	}

	failed, err := st.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if failed.Status != store.StatusError {
		t.Fatalf("status = %s, want %s", failed.Status, store.StatusError)
	}
	if failed.ErrorMessage != message {
		t.Fatalf("error message = %q, want %q", failed.ErrorMessage, message)
	}
	if failed.FinishedAt == nil {
		t.Fatal("expected finished_at on error")
	}
}

func TestUpdateJobStatusUnknownJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	if err := st.UpdateJobStatus(context.Background(), "missing", store.StatusDone, 1, ""); err == nil {
		t.Fatal("expected error for unknown job id")
	}
}

func TestArtifactsAccumulateAcrossJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	lecture := testsupport.NewLecture(t, st, "ELE130_2024-09-12_cccc3333", "ELE130", "2024-09-12", "uid-art")
	testsupport.NewJob(t, st, "job-a", lecture.ID)
	testsupport.NewJob(t, st, "job-b", lecture.ID)

	for _, jobID := range []string{"job-a", "job-b"} {
		if _, err := st.CreateArtifact(ctx, lecture.ID, jobID, store.ArtifactSummaryMD, "/data/"+jobID+"/summary.md"); err != nil {
			t.Fatalf("CreateArtifact failed: %v", err)
		}
	}

	all, err := st.GetArtifactsForLecture(ctx, lecture.ID)
	if err != nil {
		t.Fatalf("GetArtifactsForLecture failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected both artifacts kept, got %d", len(all))
	}

	forJob, err := st.GetArtifactsForJob(ctx, "job-b")
	if err != nil {
		t.Fatalf("GetArtifactsForJob failed: %v", err)
	}
	if len(forJob) != 1 || forJob[0].Path != "/data/job-b/summary.md" {
		t.Fatalf("unexpected artifacts for job-b: %#v", forJob)
	}
	if forJob[0].Kind != store.ArtifactSummaryMD {
		t.Fatalf("artifact kind = %s, want %s", forJob[0].Kind, store.ArtifactSummaryMD)
	}
}

func TestListRecentJobsOrdering(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	lecture := testsupport.NewLecture(t, st, "ELE130_2024-09-12_dddd4444", "ELE130", "2024-09-12", "uid-recent")
	for i := 0; i < 5; i++ {
		testsupport.NewJob(t, st, fmt.Sprintf("job-%d", i), lecture.ID)
	}

	recent, err := st.ListRecentJobs(ctx, 3)
	if err != nil {
		t.Fatalf("ListRecentJobs failed: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(recent))
	}
	if recent[0].ID != "job-4" {
		t.Fatalf("expected newest job first, got %s", recent[0].ID)
	}
}

func TestFailInterrupted(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	lecture := testsupport.NewLecture(t, st, "ELE130_2024-09-12_eeee5555", "ELE130", "2024-09-12", "uid-int")

	inflight := testsupport.NewJob(t, st, "job-inflight", lecture.ID)
	if err := st.UpdateJobStatus(ctx, inflight.ID, store.StatusTranscribing, 0.4, ""); err != nil {
		t.Fatalf("UpdateJobStatus failed: %v", err)
	}
	queued := testsupport.NewJob(t, st, "job-queued", lecture.ID)
	finished := testsupport.NewJob(t, st, "job-finished", lecture.ID)
	if err := st.UpdateJobStatus(ctx, finished.ID, store.StatusDone, 1, ""); err != nil {
		t.Fatalf("UpdateJobStatus failed: %v", err)
	}

	count, err := st.FailInterrupted(ctx)
	if err != nil {
		t.Fatalf("FailInterrupted failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one interrupted job, got %d", count)
	}

	failed, err := st.GetJob(ctx, inflight.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if failed.Status != store.StatusError || failed.ErrorMessage != store.InterruptedMessage {
		t.Fatalf("unexpected interrupted job: %#v", failed)
	}

	stillQueued, err := st.ListQueuedJobs(ctx)
	if err != nil {
		t.Fatalf("ListQueuedJobs failed: %v", err)
	}
	if len(stillQueued) != 1 || stillQueued[0].ID != queued.ID {
		t.Fatalf("expected queued job untouched, got %#v", stillQueued)
	}
}

func TestBrowseHierarchy(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewLecture(t, st, "ELE130_2024-09-12_aaaa0001", "ELE130", "2024-09-12", "uid-b1")
	testsupport.NewLecture(t, st, "ELE130_2024-09-19_aaaa0002", "ELE130", "2024-09-19", "uid-b2")
	testsupport.NewLecture(t, st, "MAT200_2024-09-12_aaaa0003", "MAT200", "2024-09-12", "uid-b3")

	courses, err := st.ListCourses(ctx)
	if err != nil {
		t.Fatalf("ListCourses failed: %v", err)
	}
	if len(courses) != 2 || courses[0] != "ELE130" || courses[1] != "MAT200" {
		t.Fatalf("unexpected courses: %v", courses)
	}

	dates, err := st.ListDatesForCourse(ctx, "ELE130")
	if err != nil {
		t.Fatalf("ListDatesForCourse failed: %v", err)
	}
	if len(dates) != 2 || dates[0] != "2024-09-12" || dates[1] != "2024-09-19" {
		t.Fatalf("unexpected dates: %v", dates)
	}
}

func TestStatsAndHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	lecture := testsupport.NewLecture(t, st, "ELE130_2024-09-12_ffff6666", "ELE130", "2024-09-12", "uid-stats")
	testsupport.NewJob(t, st, "job-q", lecture.ID)
	running := testsupport.NewJob(t, st, "job-r", lecture.ID)
	if err := st.UpdateJobStatus(ctx, running.ID, store.StatusSummarizing, 0.7, ""); err != nil {
		t.Fatalf("UpdateJobStatus failed: %v", err)
	}

	stats, err := st.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[store.StatusQueued] != 1 || stats[store.StatusSummarizing] != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}

	health, err := st.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Total != 2 || health.Queued != 1 || health.Processing != 1 {
		t.Fatalf("unexpected health summary: %#v", health)
	}

	check, err := st.CheckHealth(ctx)
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if !check.DatabaseExists || !check.DatabaseReadable || !check.IntegrityCheck {
		t.Fatalf("unexpected database health: %#v", check)
	}
	if len(check.MissingTables) != 0 {
		t.Fatalf("missing tables: %v", check.MissingTables)
	}
	if check.TotalJobs != 2 || check.TotalLectures != 1 {
		t.Fatalf("unexpected counts: %#v", check)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := store.ParseStatus(" Transcribing "); !ok || status != store.StatusTranscribing {
		t.Fatalf("ParseStatus transcribing = %q, %v", status, ok)
	}
	if _, ok := store.ParseStatus("ripping"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
	if _, ok := store.ParseStatus(""); ok {
		t.Fatal("expected empty status to be rejected")
	}
}

func TestStatusProgressCheckpoints(t *testing.T) {
	checkpoints := map[store.Status]float64{
		store.StatusQueued:       0,
		store.StatusDownloading:  0.1,
		store.StatusConverting:   0.2,
		store.StatusVAD:          0.3,
		store.StatusTranscribing: 0.4,
		store.StatusSummarizing:  0.7,
		store.StatusDone:         1.0,
		store.StatusError:        0,
	}
	for status, want := range checkpoints {
		if got := status.Progress(); got != want {
			t.Fatalf("%s progress = %v, want %v", status, got, want)
		}
	}
}
