// Package server exposes the matcher and complexity scorer over HTTP.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/odaworks/delivery-cli/internal/catalog"
	"github.com/odaworks/delivery-cli/internal/complexity"
	"github.com/odaworks/delivery-cli/internal/estimate"
	"github.com/odaworks/delivery-cli/internal/matcher"
	"github.com/odaworks/delivery-cli/internal/model"
)

// Server wires the matching and scoring core behind an HTTP API.
type Server struct {
	matcher  *matcher.Matcher
	source   catalog.Source
	cfg      complexity.Config
	baseline estimate.Baseline
}

// New builds a Server. The catalog source is consulted on each request;
// sources with caching (HTTPSource) keep that cheap.
func New(m *matcher.Matcher, src catalog.Source, cfg complexity.Config) *Server {
	return &Server{
		matcher:  m,
		source:   src,
		cfg:      cfg,
		baseline: estimate.DefaultBaseline(),
	}
}

// Router assembles the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/catalog/domains", s.handleListDomains)
	r.Get("/catalog/functions", s.handleListFunctions)
	r.Post("/match", s.handleMatch)
	r.Post("/complexity", s.handleComplexity)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListDomains(w http.ResponseWriter, r *http.Request) {
	c, err := s.source.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "catalog unavailable")
		zap.L().Error("catalog load failed", zap.Error(err))
		return
	}
	writeJSON(w, http.StatusOK, c.Domains)
}

func (s *Server) handleListFunctions(w http.ResponseWriter, r *http.Request) {
	c, err := s.source.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "catalog unavailable")
		zap.L().Error("catalog load failed", zap.Error(err))
		return
	}

	funcs := c.Functions
	if domainID := r.URL.Query().Get("domain_id"); domainID != "" {
		funcs = c.FunctionsByDomain(domainID)
	}
	if funcs == nil {
		funcs = []model.ReferenceFunction{}
	}
	writeJSON(w, http.StatusOK, funcs)
}

type matchRequest struct {
	Requirements []model.RequirementRecord `json:"requirements"`
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Requirements) == 0 {
		writeError(w, http.StatusBadRequest, "requirements is required")
		return
	}

	c, err := s.source.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "catalog unavailable")
		zap.L().Error("catalog load failed", zap.Error(err))
		return
	}

	result := s.matcher.MapAll(req.Requirements, c.Functions)
	writeJSON(w, http.StatusOK, result)
}

type complexityRequest struct {
	Selection     complexity.Selection `json:"selection"`
	IncludeEffort bool                 `json:"include_effort"`
}

type complexityResponse struct {
	Result complexity.Result   `json:"result"`
	Effort *estimate.Breakdown `json:"effort,omitempty"`
}

func (s *Server) handleComplexity(w http.ResponseWriter, r *http.Request) {
	var req complexityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res := complexity.Compute(req.Selection, s.cfg)
	resp := complexityResponse{Result: res}
	if req.IncludeEffort {
		breakdown := estimate.ComputeBreakdown(res, s.baseline)
		resp.Effort = &breakdown
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("write response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
