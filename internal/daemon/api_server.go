package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"catchup/internal/api"
	"catchup/internal/config"
	"catchup/internal/logging"
	"catchup/internal/services"
)

const defaultJobListLimit = 20

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.Paths.APIBind),
		logger: logger,
		daemon: d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/jobs", srv.handleJobs)
	mux.HandleFunc("/api/jobs/", srv.handleJob)
	mux.HandleFunc("/api/lectures/", srv.handleLecture)
	mux.HandleFunc("/api/courses", srv.handleCourses)
	mux.HandleFunc("/api/courses/", srv.handleCourseTree)
	mux.HandleFunc("/api/metadata", srv.handleMetadata)
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/healthz", srv.handleHealthz)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// handleJobs serves POST (submit a URL) and GET (recent jobs) on /api/jobs.
func (s *apiServer) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleSubmitJob(w, r)
	case http.MethodGet:
		s.handleListJobs(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	var req api.SubmitJobRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := services.WithRequestID(r.Context(), uuid.NewString())
	result, err := s.daemon.ingest.SubmitURL(ctx, req.URL, req.Language)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusAccepted, api.SubmitJobResponse{
		JobID:     result.Job.ID,
		LectureID: result.Lecture.ID,
		Status:    string(result.Job.Status),
	})
}

func (s *apiServer) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit := defaultJobListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}
	jobs, err := s.daemon.store.ListRecentJobs(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobListResponse{Jobs: api.FromJobs(jobs)})
}

func (s *apiServer) handleJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}

	job, err := s.daemon.store.GetJob(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if job == nil {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}

	payload := api.JobDetailResponse{Job: api.FromJob(job)}
	if lecture, err := s.daemon.store.GetLecture(r.Context(), job.LectureID); err == nil && lecture != nil {
		view := api.FromLecture(lecture)
		payload.Lecture = &view
	}
	artifacts, err := s.daemon.store.GetArtifactsForJob(r.Context(), job.ID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	payload.Artifacts = api.FromArtifacts(artifacts)
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleLecture(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/lectures/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, http.StatusNotFound, "lecture not found")
		return
	}

	lecture, err := s.daemon.store.GetLecture(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if lecture == nil {
		s.writeError(w, http.StatusNotFound, "lecture not found")
		return
	}

	artifacts, err := s.daemon.store.GetArtifactsForLecture(r.Context(), lecture.ID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	jobs, err := s.daemon.store.ListJobsForLecture(r.Context(), lecture.ID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, api.LectureDetailResponse{
		Lecture:   api.FromLecture(lecture),
		Artifacts: api.FromArtifacts(artifacts),
		Jobs:      api.FromJobs(jobs),
	})
}

func (s *apiServer) handleCourses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	courses, err := s.daemon.store.ListCourses(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.CourseListResponse{Courses: courses})
}

// handleCourseTree serves the nested course browse routes:
// /api/courses/{course}/dates and /api/courses/{course}/dates/{date}/lectures.
func (s *apiServer) handleCourseTree(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/courses/")
	parts := strings.Split(rest, "/")

	switch {
	case len(parts) == 2 && parts[0] != "" && parts[1] == "dates":
		dates, err := s.daemon.store.ListDatesForCourse(r.Context(), parts[0])
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, api.DateListResponse{CourseCode: parts[0], Dates: dates})
	case len(parts) == 4 && parts[0] != "" && parts[1] == "dates" && parts[2] != "" && parts[3] == "lectures":
		lectures, err := s.daemon.store.ListLecturesForCourseAndDate(r.Context(), parts[0], parts[2])
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, api.LectureListResponse{Lectures: api.FromLectures(lectures)})
	default:
		s.writeError(w, http.StatusNotFound, "not found")
	}
}

// handleMetadata probes a URL without creating anything. Probe failures map
// to 400 except missing prerequisites, which are the operator's problem and
// map to 500.
func (s *apiServer) handleMetadata(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rawURL := r.URL.Query().Get("url")
	if strings.TrimSpace(rawURL) == "" {
		s.writeError(w, http.StatusBadRequest, "url query parameter is required")
		return
	}

	desc, err := s.daemon.ingest.Describe(r.Context(), rawURL)
	if err != nil {
		if errors.Is(err, services.ErrConfiguration) {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, api.MetadataResponse{
		Title:              desc.Title,
		DurationSec:        desc.DurationSec,
		CourseCode:         desc.CourseCode,
		LectureDate:        desc.LectureDate,
		SourceUID:          desc.SourceUID,
		SourceUIDShort:     desc.SourceUIDShort,
		LanguageSuggestion: desc.LanguageSuggestion,
	})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	s.writeJSON(w, http.StatusOK, api.StatusResponse{
		Running:        status.Running,
		PID:            status.PID,
		UseFakeClients: status.UseFakeClients,
		Queue: api.QueueStats{
			Workers:       status.Queue.Workers,
			QueueCapacity: status.Queue.QueueCapacity,
			Queued:        status.Queue.Queued,
			Running:       status.Queue.Running,
		},
		Jobs: api.FromHealthSummary(status.Jobs),
		Database: api.DatabaseStatus{
			Path:    status.DatabasePath,
			Healthy: status.DatabaseOK,
		},
	})
}

func (s *apiServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeServiceError maps the service error taxonomy onto HTTP status codes.
func (s *apiServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrValidation):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrTransient):
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
