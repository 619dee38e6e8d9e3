// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/poiesic/lexresearch/core"
	"github.com/poiesic/lexresearch/orchestrator"
	"github.com/poiesic/lexresearch/storage"
)

const (
	// Version is reported by GET /health.
	Version = "1.0.0"

	maxBodyBytes    = 1 << 20
	shutdownTimeout = 10 * time.Second
)

var errBadRequest = errors.New("bad request")

// Server exposes a Backend over HTTP.
type Server struct {
	backend Backend
	schemas *schemas
	mux     *http.ServeMux
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "api")
		return nil
	}
}

// NewServer creates the HTTP binding for backend.
func NewServer(backend Backend, opts ...Option) (*Server, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	compiled, err := compileSchemas()
	if err != nil {
		return nil, err
	}

	s := &Server{
		backend: backend,
		schemas: compiled,
		mux:     http.NewServeMux(),
		logger:  slog.Default().With("component", "api"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /research", s.handleSubmit)
	s.mux.HandleFunc("GET /research", s.handleList)
	s.mux.HandleFunc("GET /research/{id}", s.handleGet)
	s.mux.HandleFunc("DELETE /research/{id}", s.handleDelete)
	s.mux.HandleFunc("POST /tools/{name}", s.handleTool)
	s.mux.HandleFunc("GET /resources/report/{id}", s.handleReportResource)
	s.mux.HandleFunc("GET /resources/research/{topic}", s.handleResearchResource)
	s.mux.HandleFunc("GET /prompts/legal_research", s.handlePrompt)
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "elapsed", time.Since(start))
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy", Version: Version})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req ResearchRequest
	if err := s.readJSON(r, s.schemas.research, &req); err != nil {
		s.writeError(w, err)
		return
	}

	sub, err := s.backend.Submit(r.Context(), req.toSubmit())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, SubmitResponse{JobID: sub.JobID, Status: sub.Status, Message: sub.Message})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	job, err := s.backend.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newJobResponse(job))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.backend.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]SummaryResponse, len(summaries))
	for i, sum := range summaries {
		out[i] = newSummaryResponse(sum)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.backend.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Status: "deleted", JobID: id})
}

func (s *Server) readJSON(r *http.Request, schema *jsonschema.Schema, dst any) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return decodeValidated(schema, raw, dst)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, text)
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, core.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errNotCompleted):
		return http.StatusConflict
	case errors.Is(err, orchestrator.ErrBusy), errors.Is(err, orchestrator.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
		msg = "internal server error"
	}
	writeJSON(w, status, ErrorResponse{Error: msg})
}
