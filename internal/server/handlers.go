package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mnakata/islandhop/internal/pipeline"
)

type chatRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("response encode failed",
			zap.String("path", r.URL.Path), zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.writeJSON(w, r, status, map[string]string{"error": msg})
}

// handleChat runs one query through the pipeline. The pipeline never
// returns an error; degraded answers still produce a 200 with the
// response's own error flag set.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req chatRequest
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		s.writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		s.writeError(w, r, http.StatusBadRequest, "query is required")
		return
	}

	resp := s.pipe.ProcessQuery(r.Context(), query, strings.TrimSpace(req.SessionID))
	s.writeJSON(w, r, http.StatusOK, resp)
}

type healthResponse struct {
	Status       string                   `json:"status"`
	RouteCount   int                      `json:"route_count"`
	PortCount    int                      `json:"port_count"`
	CompanyCount int                      `json:"company_count"`
	DataIssues   []string                 `json:"data_issues,omitempty"`
	Sessions     int                      `json:"sessions"`
	Metrics      pipeline.MetricsSnapshot `json:"metrics"`
}

// handleHealth reports data availability and rolling query metrics
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	res := healthResponse{
		Status:   "ok",
		Sessions: s.pipe.Sessions().Count(),
		Metrics:  s.pipe.Metrics().Snapshot(),
	}

	report, err := s.pipe.Store().Validate()
	if err != nil {
		res.Status = "degraded"
		res.DataIssues = []string{err.Error()}
	} else {
		res.RouteCount = report.RouteCount
		res.PortCount = report.PortCount
		res.CompanyCount = report.CompanyCount
		res.DataIssues = report.Issues
		if !report.OK() {
			res.Status = "degraded"
		}
	}

	status := http.StatusOK
	if res.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, r, status, res)
}
