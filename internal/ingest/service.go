package ingest

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"catchup/internal/identity"
	"catchup/internal/logging"
	"catchup/internal/media/ytdlp"
	"catchup/internal/notifications"
	"catchup/internal/services"
	"catchup/internal/store"
	"catchup/internal/worker"
)

// Prober extracts video metadata without downloading.
type Prober interface {
	Probe(ctx context.Context, url string) (*ytdlp.VideoMetadata, error)
}

// Enqueuer hands a created job to the worker pool.
type Enqueuer interface {
	Submit(sub worker.Submission) error
}

// Service turns a URL into a durable lecture + job and enqueues the run.
// The HTTP API and the watch folder both submit through it.
type Service struct {
	store    *store.Store
	queue    Enqueuer
	prober   Prober
	resolver *identity.LanguageResolver
	notifier notifications.Service
	logger   *slog.Logger
}

// Result reports a successful submission.
type Result struct {
	Job     *store.Job
	Lecture *store.Lecture
}

// Description is the no-side-effect metadata view of a URL.
type Description struct {
	Title              string `json:"title"`
	DurationSec        int    `json:"duration_sec"`
	CourseCode         string `json:"course_code"`
	LectureDate        string `json:"lecture_date"`
	SourceUID          string `json:"source_uid"`
	SourceUIDShort     string `json:"source_uid_short"`
	LanguageSuggestion string `json:"language_suggestion"`
}

// NewService wires the submission flow. The notifier may be nil.
func NewService(st *store.Store, queue Enqueuer, prober Prober, resolver *identity.LanguageResolver, notifier notifications.Service, logger *slog.Logger) *Service {
	return &Service{
		store:    st,
		queue:    queue,
		prober:   prober,
		resolver: resolver,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "ingest"),
	}
}

// Describe probes the URL and derives identity fields without creating
// anything. Probe failures are returned to the caller.
func (s *Service) Describe(ctx context.Context, rawURL string) (Description, error) {
	url := strings.TrimSpace(rawURL)
	if url == "" {
		return Description{}, services.Wrap(services.ErrValidation, "ingest", "describe", "url is required", nil)
	}
	md, err := s.prober.Probe(ctx, url)
	if err != nil {
		return Description{}, err
	}

	course := identity.ExtractCourseCode(md.Title)
	uid := identity.SourceUID(url, md.ID)
	return Description{
		Title:              md.Title,
		DurationSec:        int(md.DurationSec),
		CourseCode:         course,
		LectureDate:        identity.ParseDateFromTitle(md.Title),
		SourceUID:          uid,
		SourceUIDShort:     identity.ShortUID(uid),
		LanguageSuggestion: s.resolver.Resolve("auto", course),
	}, nil
}

// SubmitURL derives lecture identity for the URL, reuses or creates the
// lecture record, creates a QUEUED job, and enqueues it. A probe failure
// downgrades to a URL-derived title so flaky metadata never blocks
// submission; missing prerequisites (cookies) still fail fast.
func (s *Service) SubmitURL(ctx context.Context, rawURL, language string) (*Result, error) {
	url := strings.TrimSpace(rawURL)
	if url == "" {
		return nil, services.Wrap(services.ErrValidation, "ingest", "submit", "url is required", nil)
	}
	logger := logging.WithContext(ctx, s.logger)

	var title, externalID string
	md, err := s.prober.Probe(ctx, url)
	switch {
	case err == nil:
		title = md.Title
		externalID = md.ID
	case errors.Is(err, services.ErrConfiguration):
		return nil, err
	default:
		title = identity.DeriveTitle(url)
		logger.Warn("metadata probe failed, deriving title from url",
			logging.String("url", url),
			logging.Error(err),
		)
	}

	course := identity.ExtractCourseCode(title)
	date := identity.ParseDateFromTitle(title)
	uid := identity.SourceUID(url, externalID)
	resolved := s.resolver.Resolve(language, course)

	lecture, err := s.store.GetOrCreateLecture(ctx, &store.Lecture{
		ID:         identity.LectureID(course, date, identity.ShortUID(uid)),
		CourseCode: course,
		Date:       date,
		Title:      title,
		SourceURL:  url,
		SourceUID:  uid,
	})
	if err != nil {
		return nil, err
	}

	job, err := s.store.CreateJob(ctx, uuid.NewString(), lecture.ID, resolved)
	if err != nil {
		return nil, err
	}

	if err := s.queue.Submit(worker.Submission{JobID: job.ID, Lecture: lecture, Language: resolved}); err != nil {
		// The job row stays QUEUED; the startup sweep re-enqueues it.
		return nil, err
	}

	logger.Info("job submitted",
		logging.String(logging.FieldJobID, job.ID),
		logging.String(logging.FieldLectureID, lecture.ID),
		logging.String("language", resolved),
	)
	if s.notifier != nil {
		if err := s.notifier.NotifySubmissionAccepted(ctx, lecture.CourseCode, lecture.Title); err != nil {
			logger.Debug("submission notification failed", logging.Error(err))
		}
	}
	return &Result{Job: job, Lecture: lecture}, nil
}
