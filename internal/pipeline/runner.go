package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"catchup/internal/config"
	"catchup/internal/logging"
	"catchup/internal/notifications"
	"catchup/internal/services"
	"catchup/internal/store"
)

// Runner drives one job through the five pipeline stages in order, persisting
// status and artifact records between stages. Runners are safe for concurrent
// use; each Run call keeps its own state.
type Runner struct {
	store    *store.Store
	clients  Clients
	notifier notifications.Service
	logger   *slog.Logger
	dataRoot string
	logOpts  logging.Options
}

// NewRunner builds a Runner over the given store and stage clients.
func NewRunner(cfg *config.Config, st *store.Store, clients Clients, notifier notifications.Service, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		store:    st,
		clients:  clients,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
		dataRoot: cfg.Paths.DataDir,
		logOpts: logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
		},
	}
}

type stageRun struct {
	status store.Status
	name   string
	run    func(context.Context) error
}

// Run executes the pipeline for one job. The job must already exist in the
// queued state; lecture identity decides the working directory. Run persists
// every status transition before invoking the stage client, registers one
// artifact per durable output, and finishes in done or error. The returned
// error is the stage error, already recorded on the job.
func (r *Runner) Run(ctx context.Context, jobID string, lecture *store.Lecture, language string) error {
	if strings.TrimSpace(jobID) == "" {
		return errors.New("job id is required")
	}
	if lecture == nil {
		return errors.New("lecture is nil")
	}
	ctx = services.WithJobID(ctx, jobID)

	jr := &jobRun{
		runner:   r,
		jobID:    jobID,
		lecture:  lecture,
		language: language,
		ws:       WorkspaceFor(r.dataRoot, lecture),
		logger:   r.logger,
	}

	if err := jr.ws.Ensure(); err != nil {
		wrapped := services.Wrap(services.ErrConfiguration, "pipeline", "workspace", "prepare lecture directory", err)
		jr.fail(ctx, "workspace", wrapped)
		return wrapped
	}

	jr.openLog()
	defer jr.closeLog()

	runErr := jr.execute(ctx)

	// The log artifact is registered whether the run succeeded or not, so a
	// failed job still points at its own log.
	jr.registerLogArtifact(ctx)

	return runErr
}

type jobRun struct {
	runner   *Runner
	jobID    string
	lecture  *store.Lecture
	language string
	ws       Workspace
	logger   *slog.Logger
	logFile  *os.File
	progress float64

	downloadedPath string
	originalWAV    string
	vadWAV         string
	transcript     string
	chunks         []Chunk
}

// openLog attaches the per-job log file to this run's logger. Records flow to
// both the shared logger and the job file through a tee handler; a global
// output swap would interleave concurrent jobs, so each run gets its own sink.
func (jr *jobRun) openLog() {
	path := jr.ws.JobLogPath(jr.jobID)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		jr.runner.logger.Warn("job log unavailable", logging.Error(err), logging.String("path", path))
		jr.logger = jr.decorate(jr.runner.logger.Handler())
		return
	}

	fileHandler, err := logging.NewWriterHandler(file, jr.runner.logOpts)
	if err != nil {
		jr.runner.logger.Warn("job log handler unavailable", logging.Error(err))
		_ = file.Close()
		jr.logger = jr.decorate(jr.runner.logger.Handler())
		return
	}

	jr.logFile = file
	jr.logger = jr.decorate(logging.TeeHandler(jr.runner.logger.Handler(), fileHandler))
}

func (jr *jobRun) decorate(handler slog.Handler) *slog.Logger {
	return slog.New(logging.NewJobHandler(handler, jr.jobID)).With(
		logging.String(logging.FieldLectureID, jr.lecture.ID),
	)
}

func (jr *jobRun) closeLog() {
	if jr.logFile != nil {
		_ = jr.logFile.Close()
		jr.logFile = nil
	}
}

func (jr *jobRun) execute(ctx context.Context) error {
	jr.logger.Info("job started",
		logging.String("course", jr.lecture.CourseCode),
		logging.String("title", jr.lecture.Title),
		logging.String("language", jr.language),
		logging.String("workspace", jr.ws.Root),
	)

	if err := jr.writeIdentity(ctx); err != nil {
		jr.fail(ctx, "workspace", err)
		return err
	}

	stages := []stageRun{
		{status: store.StatusDownloading, name: "download", run: jr.download},
		{status: store.StatusConverting, name: "convert", run: jr.convert},
		{status: store.StatusVAD, name: "vad", run: jr.collapseSilence},
		{status: store.StatusTranscribing, name: "transcribe", run: jr.transcribe},
		{status: store.StatusSummarizing, name: "summarize", run: jr.summarize},
	}

	for _, stage := range stages {
		if err := jr.transition(ctx, stage.status); err != nil {
			jr.fail(ctx, stage.name, err)
			return err
		}

		stageLogger := jr.logger.With(logging.String(logging.FieldStage, stage.name))
		stageStart := time.Now()
		stageLogger.Info("stage started", logging.Float64("progress", jr.progress))

		if err := stage.run(services.WithStage(ctx, stage.name)); err != nil {
			jr.fail(ctx, stage.name, err)
			return err
		}

		stageLogger.Info("stage completed", logging.Duration("stage_duration", time.Since(stageStart)))
	}

	if err := jr.runner.store.UpdateJobStatus(ctx, jr.jobID, store.StatusDone, store.StatusDone.Progress(), ""); err != nil {
		wrapped := fmt.Errorf("persist done transition: %w", err)
		jr.fail(ctx, "finalize", wrapped)
		return wrapped
	}
	jr.progress = store.StatusDone.Progress()
	jr.logger.Info("job completed",
		logging.String("summary", jr.ws.SummaryMarkdownPath()),
	)
	jr.notifyCompleted(ctx)
	return nil
}

// transition persists the status and checkpoint progress before the stage
// client runs, so an observer always sees which stage is underway.
func (jr *jobRun) transition(ctx context.Context, status store.Status) error {
	if err := jr.runner.store.UpdateJobStatus(ctx, jr.jobID, status, status.Progress(), ""); err != nil {
		return fmt.Errorf("persist %s transition: %w", status, err)
	}
	jr.progress = status.Progress()
	return nil
}

// fail records the stage error on the job: error status, message verbatim,
// progress frozen at the last persisted checkpoint.
func (jr *jobRun) fail(ctx context.Context, stage string, stageErr error) {
	message := strings.TrimSpace(stageErr.Error())
	jr.logger.Error("stage failed",
		logging.String(logging.FieldStage, stage),
		logging.String("error_kind", services.FailureKind(stageErr)),
		logging.Error(stageErr),
	)

	// Failure bookkeeping still runs when the stage error came from context
	// cancellation, so the job record never sticks in a processing state.
	persistCtx := context.WithoutCancel(ctx)
	if err := jr.runner.store.UpdateJobStatus(persistCtx, jr.jobID, store.StatusError, jr.progress, message); err != nil {
		jr.logger.Error("failed to persist job failure", logging.Error(err))
	}
	jr.notifyFailed(persistCtx, stage, stageErr)
}

func (jr *jobRun) writeIdentity(ctx context.Context) error {
	if err := os.WriteFile(jr.ws.SourceURLPath(), []byte(jr.lecture.SourceURL+"\n"), 0o644); err != nil {
		return fmt.Errorf("write source url: %w", err)
	}
	meta := NewMetadata(jr.lecture, jr.jobID, jr.language)
	if err := writeJSONFile(jr.ws.MetadataPath(), meta); err != nil {
		return err
	}
	return jr.register(ctx, store.ArtifactMetadataJSON, jr.ws.MetadataPath())
}

func (jr *jobRun) download(ctx context.Context) error {
	path, err := jr.runner.clients.Downloader.Download(ctx, jr.lecture.SourceURL, jr.ws.Root)
	if err != nil {
		return err
	}
	jr.downloadedPath = path
	return nil
}

func (jr *jobRun) convert(ctx context.Context) error {
	path, err := jr.runner.clients.Converter.ConvertToWAV(ctx, jr.downloadedPath, jr.ws.OriginalAudioPath())
	if err != nil {
		return err
	}
	jr.originalWAV = path
	return jr.register(ctx, store.ArtifactAudioOriginalWAV, path)
}

func (jr *jobRun) collapseSilence(ctx context.Context) error {
	path, err := jr.runner.clients.Processor.Process(ctx, jr.originalWAV, jr.ws.VADAudioPath())
	if err != nil {
		return err
	}
	jr.vadWAV = path
	return jr.register(ctx, store.ArtifactAudioVADWAV, path)
}

func (jr *jobRun) transcribe(ctx context.Context) error {
	text, chunks, err := jr.runner.clients.Transcriber.Transcribe(ctx, jr.vadWAV, jr.language)
	if err != nil {
		return err
	}
	jr.transcript = text
	jr.chunks = chunks

	if err := os.WriteFile(jr.ws.RawTranscriptPath(), []byte(text), 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	if err := jr.register(ctx, store.ArtifactRawTranscriptTXT, jr.ws.RawTranscriptPath()); err != nil {
		return err
	}
	if err := writeJSONFile(jr.ws.ChunksPath(), chunks); err != nil {
		return err
	}
	return jr.register(ctx, store.ArtifactChunksJSON, jr.ws.ChunksPath())
}

func (jr *jobRun) summarize(ctx context.Context) error {
	markdown, err := jr.runner.clients.Summarizer.Summarize(ctx, jr.transcript, jr.chunks, jr.language)
	if err != nil {
		return err
	}

	if err := os.WriteFile(jr.ws.SummaryMarkdownPath(), []byte(markdown), 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	if err := jr.register(ctx, store.ArtifactSummaryMD, jr.ws.SummaryMarkdownPath()); err != nil {
		return err
	}

	doc := SummaryDocument{
		LectureID:   jr.lecture.ID,
		JobID:       jr.jobID,
		Language:    jr.language,
		ChunkCount:  len(jr.chunks),
		Markdown:    markdown,
		GeneratedAt: time.Now().UTC(),
	}
	if err := writeJSONFile(jr.ws.SummaryJSONPath(), doc); err != nil {
		return err
	}
	return jr.register(ctx, store.ArtifactSummaryJSON, jr.ws.SummaryJSONPath())
}

func (jr *jobRun) register(ctx context.Context, kind store.ArtifactKind, path string) error {
	if _, err := jr.runner.store.CreateArtifact(ctx, jr.lecture.ID, jr.jobID, kind, path); err != nil {
		return fmt.Errorf("register %s artifact: %w", kind, err)
	}
	jr.logger.Info("artifact registered",
		logging.String(logging.FieldArtifact, string(kind)),
		logging.String("path", path),
	)
	return nil
}

// registerLogArtifact runs after the stage loop on both outcomes. Skipped
// only when the log file itself could not be created.
func (jr *jobRun) registerLogArtifact(ctx context.Context) {
	if jr.logFile == nil {
		return
	}
	persistCtx := context.WithoutCancel(ctx)
	if _, err := jr.runner.store.CreateArtifact(persistCtx, jr.lecture.ID, jr.jobID, store.ArtifactLog, jr.ws.JobLogPath(jr.jobID)); err != nil {
		jr.logger.Error("failed to register log artifact", logging.Error(err))
	}
}

func (jr *jobRun) notifyCompleted(ctx context.Context) {
	if jr.runner.notifier == nil {
		return
	}
	if err := jr.runner.notifier.NotifyJobCompleted(ctx, jr.lecture.CourseCode, jr.lecture.Title, jr.jobID); err != nil {
		jr.logger.Debug("completion notification failed", logging.Error(err))
	}
}

func (jr *jobRun) notifyFailed(ctx context.Context, stage string, stageErr error) {
	if jr.runner.notifier == nil {
		return
	}
	if err := jr.runner.notifier.NotifyJobFailed(ctx, jr.lecture.CourseCode, jr.jobID, stage, stageErr); err != nil {
		jr.logger.Debug("failure notification failed", logging.Error(err))
	}
}
