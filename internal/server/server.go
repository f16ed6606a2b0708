// Package server exposes the slicing pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/philipparndt/goslice/internal/config"
	"github.com/philipparndt/goslice/internal/models"
	"github.com/philipparndt/goslice/internal/pipeline"
	"github.com/philipparndt/goslice/internal/store"
	"github.com/philipparndt/goslice/version"
)

const shutdownTimeout = 10 * time.Second

// Server serves the slicing API
type Server struct {
	log      logr.Logger
	cfg      *config.ServerConfig
	pipeline *pipeline.Pipeline
	store    *store.Store
	params   *config.Loader
	metrics  *Metrics
	handler  http.Handler
}

// New creates a new server. Artifacts are written to st.
func New(log logr.Logger, cfg *config.ServerConfig, p *pipeline.Pipeline, st *store.Store) *Server {
	s := &Server{
		log:      log.WithName("server"),
		cfg:      cfg,
		pipeline: p,
		store:    st,
		params:   config.NewLoader(),
		metrics:  NewMetrics(),
	}

	mux := http.NewServeMux()
	mux.Handle("GET /api/health", s.instrument("health", s.handleHealth))
	mux.Handle("POST /api/slice", s.instrument("slice", s.handleSlice))
	mux.Handle("GET /api/download/{id}", s.instrument("download", s.handleDownload))
	mux.Handle("POST /api/preview", s.instrument("preview", s.handlePreview))
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	s.handler = cors(mux)

	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Listening", "addr", s.cfg.Addr, "output", s.store.Dir,
			"maxUpload", humanize.Bytes(uint64(s.cfg.MaxUploadBytes)))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Version string `json:"version"`
}

type sliceResponse struct {
	Success     bool              `json:"success"`
	Message     string            `json:"message"`
	GCodeID     string            `json:"gcode_id"`
	Filename    string            `json:"filename"`
	Stats       models.ModelStats `json:"stats"`
	DownloadURL string            `json:"download_url"`
}

type previewResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Preview string            `json:"preview"`
	Stats   models.ModelStats `json:"stats"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Message: "goslice API is running",
		Version: version.Get().Version,
	})
}

func (s *Server) handleSlice(w http.ResponseWriter, r *http.Request) {
	res, ok := s.run(w, r, pipeline.ModeFull)
	if !ok {
		return
	}

	id := store.NewID()
	body, err := encodeJSON(sliceResponse{
		Success:     true,
		Message:     "G-code generated",
		GCodeID:     id,
		Filename:    store.Filename(id),
		Stats:       res.Stats,
		DownloadURL: "/api/download/" + id,
	})
	// nothing is stored unless the response referencing it can be sent
	if err != nil {
		s.log.Error(err, "Failed to encode response", "id", id)
		writeError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	if err := s.store.Save(id, res.Document); err != nil {
		s.log.Error(err, "Failed to store G-code", "id", id)
		writeError(w, http.StatusInternalServerError, "failed to store G-code")
		return
	}
	s.log.Info("G-code generated", "id", id, "triangles", res.Stats.TriangleCount, "strategy", res.Load.Strategy)

	writeBody(w, http.StatusOK, body)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	res, ok := s.run(w, r, pipeline.ModePreview)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, previewResponse{
		Success: true,
		Message: "G-code preview generated",
		Preview: res.Document.String(),
		Stats:   res.Stats,
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	f, err := s.store.Open(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "G-code file not found")
		return
	}
	if err != nil {
		s.log.Error(err, "Failed to open G-code", "id", id)
		writeError(w, http.StatusInternalServerError, "failed to read G-code")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read G-code")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", store.Filename(id)))
	http.ServeContent(w, r, store.Filename(id), info.ModTime(), f)
}

// run decodes the upload and parameters and runs the pipeline. It writes the
// error response itself and reports false when the request is done.
func (s *Server) run(w http.ResponseWriter, r *http.Request, mode pipeline.Mode) (*pipeline.Result, bool) {
	data, params, err := s.decodeUpload(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	start := time.Now()
	res, err := s.pipeline.Run(r.Context(), data, params, mode)
	s.metrics.duration.WithLabelValues(mode.String()).Observe(time.Since(start).Seconds())
	if err != nil {
		s.log.Error(err, "Pipeline failed", "mode", mode.String())
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("G-code generation failed: %v", err))
		return nil, false
	}

	s.metrics.loads.WithLabelValues(res.Load.Outcome.String(), res.Load.Strategy).Inc()
	if errs := res.Load.Errors; len(errs) > 0 {
		s.log.V(1).Info("Mesh decoded after failed attempts", "attempts", len(errs), "strategy", res.Load.Strategy)
	}
	return res, true
}

func (s *Server) decodeUpload(w http.ResponseWriter, r *http.Request) ([]byte, models.PrintParameters, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, models.PrintParameters{}, fmt.Errorf("upload exceeds %s", humanize.Bytes(uint64(tooLarge.Limit)))
		}
		return nil, models.PrintParameters{}, fmt.Errorf("invalid multipart form: %v", err)
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, models.PrintParameters{}, errors.New("no mesh file uploaded")
	}
	defer file.Close()

	raw := r.FormValue("params")
	if raw == "" {
		return nil, models.PrintParameters{}, errors.New("missing print parameters")
	}
	params, err := s.params.ParseParams([]byte(raw))
	if err != nil {
		return nil, models.PrintParameters{}, fmt.Errorf("invalid print parameters: %v", err)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, models.PrintParameters{}, fmt.Errorf("failed to read upload: %v", err)
	}
	return data, params, nil
}

// instrument counts requests by endpoint and status code
func (s *Server) instrument(endpoint string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		s.metrics.requests.WithLabelValues(endpoint, strconv.Itoa(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func encodeJSON(v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return append(body, '\n'), nil
}

// writeJSON encodes v before anything is written, so an encoding failure
// still produces a 500 with an error body
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := encodeJSON(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = encodeJSON(errorResponse{Error: err.Error()})
	}
	writeBody(w, status, body)
}

func writeBody(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
