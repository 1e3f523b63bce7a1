// Package server exposes a generated metadata tree over HTTP
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/infparquet/infparquet/internal/logger"
	"github.com/infparquet/infparquet/internal/metrics"
	"github.com/infparquet/infparquet/pkg/metadata"
	"github.com/infparquet/infparquet/pkg/query"
)

// Config holds the listen address and the sidecar document to serve
type Config struct {
	Addr        string
	SidecarPath string
}

// Server serves one sidecar metadata tree for inspection and row group
// pruning queries. The tree is loaded once at startup and never mutated.
type Server struct {
	cfg    Config
	file   *metadata.FileNode
	engine *query.Engine

	router    chi.Router
	srv       *http.Server
	log       *logger.Logger
	metrics   *metrics.Metrics
	startTime time.Time
}

// NewServer loads the sidecar at cfg.SidecarPath and builds the HTTP router
func NewServer(cfg Config, log *logger.Logger, m *metrics.Metrics) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}

	file, err := metadata.ReadSidecar(cfg.SidecarPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load sidecar: %w", err)
	}

	s := &Server{
		cfg:       cfg,
		file:      file,
		engine:    query.NewEngine(file),
		log:       log,
		metrics:   m,
		startTime: time.Now(),
	}
	s.router = s.buildRouter()
	s.srv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(HTTPMetricsMiddleware(s.metrics, s.log))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/file", s.handleFile)
		r.Get("/rowgroups", s.handleRowGroups)
		r.Get("/rowgroups/{id}", s.handleRowGroup)
		r.Get("/columns", s.handleColumns)
		r.Get("/columns/{name}", s.handleColumn)
		r.Post("/query", s.handleQuery)
	})

	s.mountObservability(r)

	return r
}

// Handler returns the router for serving without the managed listener
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server until Shutdown is called
func (s *Server) Start() error {
	s.log.LogServerStart(s.cfg.Addr, s.cfg.SidecarPath)

	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.LogServerShutdown()
	return s.srv.Shutdown(ctx)
}

// ========== Response Helpers ==========

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ========== File Operations ==========

// fileView summarizes the root node without the per-row-group payload
type fileView struct {
	Name      string                   `json:"name"`
	Items     []metadata.Item          `json:"items"`
	RowGroups int                      `json:"row_groups"`
	Columns   []*metadata.ColumnNode   `json:"columns"`
	Custom    []*metadata.CustomResult `json:"custom,omitempty"`
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, fileView{
		Name:      s.file.Name,
		Items:     s.file.Items,
		RowGroups: len(s.file.RowGroups),
		Columns:   s.file.Columns,
		Custom:    s.file.Custom,
	})
}

// ========== Row Group Operations ==========

type rowGroupSummary struct {
	ID      uint32 `json:"id"`
	Name    string `json:"name"`
	Rows    uint64 `json:"rows"`
	Columns int    `json:"columns"`
}

func (s *Server) handleRowGroups(w http.ResponseWriter, r *http.Request) {
	out := make([]rowGroupSummary, len(s.file.RowGroups))
	for i, rg := range s.file.RowGroups {
		out[i] = rowGroupSummary{
			ID:      rg.ID,
			Name:    rg.Name,
			Rows:    rg.Rows,
			Columns: len(rg.Columns),
		}
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRowGroup(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "row group id must be a non-negative integer")
		return
	}

	rg, ok := s.file.RowGroup(uint32(id))
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("row group %d not found", id))
		return
	}

	writeJSON(w, http.StatusOK, rg)
}

// ========== Column Operations ==========

func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.file.Columns)
}

func (s *Server) handleColumn(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	col, ok := s.file.Column(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("column %q not found", name))
		return
	}

	writeJSON(w, http.StatusOK, col)
}

// ========== Query Operations ==========

type queryRequest struct {
	Conditions []string `json:"conditions"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	res, err := s.engine.MatchStrings(req.Conditions)
	if err != nil {
		if errors.Is(err, query.ErrCondition) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.metrics.RecordQuery(len(res.Matched), res.Pruned)
	writeJSON(w, http.StatusOK, res)
}
