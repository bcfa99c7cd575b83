package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"captioner/internal/api"
	"captioner/internal/config"
	"captioner/internal/jobs"
	"captioner/internal/logging"
	"captioner/internal/logs"
	"captioner/internal/queue"
	"captioner/internal/textutil"
)

// longPollTimeout bounds how long a follow request waits for new events.
const longPollTimeout = 25 * time.Second

var videoExtensions = map[string]struct{}{
	".mp4":  {},
	".mov":  {},
	".mkv":  {},
	".webm": {},
	".avi":  {},
	".m4v":  {},
}

type apiServer struct {
	cfg    *config.Config
	bind   string
	logger *slog.Logger
	daemon *Daemon

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		cfg:    cfg,
		bind:   strings.TrimSpace(cfg.Paths.APIBind),
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}
	srv.server = &http.Server{
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/videos", s.handleUpload)
	mux.HandleFunc("GET /api/videos/{id}", s.handleGetVideo)
	mux.HandleFunc("POST /api/jobs", s.handleCreateJob)
	mux.HandleFunc("GET /api/jobs", s.handleListJobs)
	mux.HandleFunc("GET /api/jobs/{id}", s.handleGetJob)
	mux.HandleFunc("GET /api/jobs/{id}/events", s.handleJobEvents)
	mux.HandleFunc("GET /api/jobs/{id}/log", s.handleJobLog)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/logs", s.handleLogs)
	mux.Handle("GET /output/", http.StripPrefix("/output/", http.FileServer(http.Dir(s.cfg.Paths.OutputDir))))

	protected := authMiddleware(s.cfg.Paths.APIToken, mux)
	root := http.NewServeMux()
	root.HandleFunc("GET /api/health", s.handleHealth)
	root.Handle("/", protected)
	return root
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	context.AfterFunc(ctx, s.stop)

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	s.listener = nil
}

func (s *apiServer) address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	reader, err := r.MultipartReader()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "expected multipart form upload")
		return
	}
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			s.writeError(w, http.StatusBadRequest, "missing file field")
			return
		}
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if part.FormName() != "file" {
			part.Close()
			continue
		}
		resp, status, err := s.storeUpload(part)
		part.Close()
		if err != nil {
			s.writeError(w, status, err.Error())
			return
		}
		s.writeJSON(w, http.StatusCreated, resp)
		return
	}
}

func (s *apiServer) storeUpload(part *multipart.Part) (api.UploadResponse, int, error) {
	original := part.FileName()
	ext := strings.ToLower(filepath.Ext(original))
	if _, ok := videoExtensions[ext]; !ok {
		return api.UploadResponse{}, http.StatusUnsupportedMediaType, fmt.Errorf("unsupported file extension %q", ext)
	}
	if err := os.MkdirAll(s.cfg.Paths.InputDir, 0o755); err != nil {
		return api.UploadResponse{}, http.StatusInternalServerError, err
	}

	fileID := uuid.NewString()
	filename := textutil.UploadName(fileID, original)
	dest := filepath.Join(s.cfg.Paths.InputDir, filename)
	file, err := os.Create(dest)
	if err != nil {
		return api.UploadResponse{}, http.StatusInternalServerError, err
	}
	size, copyErr := io.Copy(file, part)
	closeErr := file.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(dest)
		return api.UploadResponse{}, http.StatusInternalServerError, fmt.Errorf("store upload: %w", err)
	}
	s.logger.Info("video uploaded",
		logging.String("file_id", fileID),
		logging.String("original_name", original),
		logging.Int64("size", size),
		logging.String(logging.FieldEventType, "video_uploaded"),
	)
	return api.UploadResponse{
		FileID:       fileID,
		Filename:     filename,
		OriginalName: original,
		Size:         size,
		URL:          "/api/videos/" + fileID,
	}, http.StatusCreated, nil
}

// resolveUpload finds the stored file for fileID. Only well-formed ids are
// accepted so the lookup cannot escape the input directory.
func (s *apiServer) resolveUpload(fileID string) (string, string, error) {
	if _, err := uuid.Parse(fileID); err != nil {
		return "", "", fmt.Errorf("invalid file_id %q", fileID)
	}
	matches, err := filepath.Glob(filepath.Join(s.cfg.Paths.InputDir, fileID+"*"))
	if err != nil || len(matches) == 0 {
		return "", "", fmt.Errorf("file %s not found", fileID)
	}
	name := filepath.Base(matches[0])
	original := strings.TrimPrefix(strings.TrimPrefix(name, fileID), "_")
	return matches[0], original, nil
}

func (s *apiServer) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	path, _, err := s.resolveUpload(r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	http.ServeFile(w, r, path)
}

func (s *apiServer) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req api.CreateJobRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	videoPath, original, err := s.resolveUpload(strings.TrimSpace(req.FileID))
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}

	mode := strings.TrimSpace(req.RenderMode)
	if mode != "" && mode != config.RenderModeGrouped && mode != config.RenderModeWord {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown render_mode %q", mode))
		return
	}

	styleJSON := ""
	if len(req.Style) > 0 {
		encoded, err := json.Marshal(req.Style)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid style")
			return
		}
		applied, _, err := config.ApplyStyleDocument(s.cfg.Style, encoded)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if out := strings.TrimSpace(applied.OutputPath); out != "" && out != s.cfg.Style.OutputPath {
			expanded, err := config.ExpandPath(out)
			if err != nil || !insideDir(s.cfg.Paths.OutputDir, expanded, false) {
				s.writeError(w, http.StatusBadRequest, "output_path must be inside the output directory")
				return
			}
		}
		styleJSON = string(encoded)
	}

	transcriptPath := strings.TrimSpace(req.TranscriptPath)
	if transcriptPath != "" {
		if !filepath.IsAbs(transcriptPath) {
			transcriptPath = filepath.Join(s.cfg.Paths.InputDir, transcriptPath)
		}
		if _, err := os.Stat(transcriptPath); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("transcript not readable: %v", err))
			return
		}
		if !insideDir(s.cfg.Paths.InputDir, transcriptPath, true) {
			s.writeError(w, http.StatusBadRequest, "transcript_path must be inside the input directory")
			return
		}
	}

	job, err := s.daemon.registry.Create(r.Context(), jobs.Request{
		VideoPath:      videoPath,
		OriginalName:   original,
		TranscriptPath: transcriptPath,
		StyleJSON:      styleJSON,
		RenderMode:     mode,
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, api.CreateJobResponse{JobID: job.ID})
}

func (s *apiServer) handleListJobs(w http.ResponseWriter, r *http.Request) {
	var statuses []queue.Status
	for _, value := range r.URL.Query()["status"] {
		status, ok := queue.ParseStatus(value)
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", value))
			return
		}
		statuses = append(statuses, status)
	}
	list, err := s.daemon.registry.List(r.Context(), statuses...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobListResponse{Jobs: api.FromJobs(list, s.cfg.Paths.OutputDir)})
}

func (s *apiServer) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.daemon.registry.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, jobs.ErrUnknownJob) {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromJob(job, s.cfg.Paths.OutputDir))
}

func (s *apiServer) handleJobEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.daemon.registry.Get(r.Context(), id); err != nil {
		if errors.Is(err, jobs.ErrUnknownJob) {
			s.writeError(w, http.StatusNotFound, "job not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	query := r.URL.Query()
	since, _ := strconv.ParseUint(query.Get("since"), 10, 64)
	follow := parseFlag(query.Get("follow"))

	ctx := r.Context()
	if follow {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, longPollTimeout)
		defer cancel()
	}
	events, next, err := s.daemon.registry.Events(ctx, id, since, follow)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.EventsResponse{Events: events, Next: next})
}

func (s *apiServer) handleJobLog(w http.ResponseWriter, r *http.Request) {
	job, err := s.daemon.registry.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, jobs.ErrUnknownJob) {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if job.JobLogPath == "" {
		s.writeJSON(w, http.StatusOK, api.JobLogResponse{Lines: []string{}})
		return
	}

	query := r.URL.Query()
	opts := logs.TailOptions{Offset: -1, Limit: 200, Follow: parseFlag(query.Get("follow")), Wait: longPollTimeout}
	if raw := query.Get("offset"); raw != "" {
		if opts.Offset, err = strconv.ParseInt(raw, 10, 64); err != nil {
			s.writeError(w, http.StatusBadRequest, "offset must be an integer")
			return
		}
	}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil && limit > 0 {
		opts.Limit = limit
	}

	result, err := logs.Tail(r.Context(), job.JobLogPath, opts)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if result.Lines == nil {
		result.Lines = []string{}
	}
	s.writeJSON(w, http.StatusOK, api.JobLogResponse{Lines: result.Lines, Offset: result.Offset})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, api.HealthResponse{
		Status:      "ok",
		ActiveJobs:  s.daemon.workflow.ActiveJobs(),
		Subscribers: s.daemon.registry.Subscribers(),
	})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	deps := make([]api.DependencyStatus, 0, len(status.Preflight))
	for _, check := range status.Preflight {
		deps = append(deps, api.DependencyStatus{
			Name:      check.Name,
			Available: check.Passed,
			Detail:    check.Detail,
		})
	}
	s.writeJSON(w, http.StatusOK, api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		QueueDBPath:  status.QueueDBPath,
		LockFilePath: status.LockFilePath,
		Workflow:     api.FromStatusSummary(status.Workflow, s.cfg.Paths.OutputDir),
		Dependencies: deps,
	})
}

func (s *apiServer) handleLogs(w http.ResponseWriter, r *http.Request) {
	hub := s.daemon.LogStream()
	if hub == nil {
		s.writeJSON(w, http.StatusOK, api.LogStreamResponse{})
		return
	}
	query := r.URL.Query()
	since, _ := strconv.ParseUint(query.Get("since"), 10, 64)
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit <= 0 {
		limit = 200
	}
	follow := parseFlag(query.Get("follow"))
	jobID := strings.TrimSpace(query.Get("job"))

	ctx := r.Context()
	if follow {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, longPollTimeout)
		defer cancel()
	}
	raw, next, err := hub.Fetch(ctx, since, limit, follow)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	events := api.FromLogEvents(raw)
	if jobID != "" {
		filtered := events[:0]
		for _, evt := range events {
			if evt.JobID == jobID {
				filtered = append(filtered, evt)
			}
		}
		events = filtered
	}
	s.writeJSON(w, http.StatusOK, api.LogStreamResponse{Events: events, Next: next})
}

func parseFlag(value string) bool {
	return value == "1" || strings.EqualFold(value, "true")
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// insideDir reports whether path resolves to a location under dir. With
// resolve set, symlinks are followed on both sides.
func insideDir(dir, path string, resolve bool) bool {
	base, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	if resolve {
		if base, err = filepath.EvalSymlinks(base); err != nil {
			return false
		}
		if target, err = filepath.EvalSymlinks(target); err != nil {
			return false
		}
	}
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
