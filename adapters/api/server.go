// Package api exposes the analysis pipeline over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"reachlab/adapters/charts"
	"reachlab/app"
	"reachlab/domain/core"
	"reachlab/domain/trial"
	"reachlab/internal"
	"reachlab/internal/analysis"
)

// Server wires the analysis service into a chi router.
type Server struct {
	router   *chi.Mux
	service  *app.AnalysisService
	renderer *charts.Renderer
	logger   *internal.Logger
	started  time.Time
}

// NewServer creates the HTTP server.
func NewServer(service *app.AnalysisService, cfg trial.AnalysisConfig, logger *internal.Logger) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		service:  service,
		renderer: charts.NewRenderer(cfg),
		logger:   logger,
		started:  time.Now(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the root handler for http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(60 * time.Second))
}

func (s *Server) setupRoutes() {
	s.router.Get("/api/status", s.handleStatus)
	s.router.Post("/api/analysis/run", s.handleRunAnalysis)
	s.router.Get("/api/analysis/results", s.handleResults)
	s.router.Get("/api/stats/hypothesis", s.handleHypothesisTest)
	s.router.Get("/api/report", s.handleReport)
	s.router.Get("/api/export/trials.xlsx", s.handleExport)

	s.router.Get("/api/charts/conditions", s.handleConditionChart)
	s.router.Get("/api/charts/efficiency", s.handleEfficiencyChart)
	s.router.Get("/api/charts/velocity/{trialID}", s.handleVelocityChart)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	latest := s.service.Latest()
	status := map[string]interface{}{
		"status":       "ok",
		"uptime_s":     int(time.Since(s.started).Seconds()),
		"has_analysis": latest != nil,
	}
	if latest != nil {
		status["trials"] = len(latest.Trials)
		status["tests"] = len(latest.Results)
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleRunAnalysis(w http.ResponseWriter, r *http.Request) {
	output, err := s.service.Run(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summarize(output))
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	output := s.service.Latest()
	if output == nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "no analysis has been run yet"})
		return
	}
	s.writeJSON(w, http.StatusOK, summarize(output))
}

func (s *Server) handleHypothesisTest(w http.ResponseWriter, r *http.Request) {
	dv := r.URL.Query().Get("dv")
	if dv == "" {
		dv = analysis.ColReactionTime
	}

	result, err := s.service.TestSingle(r.Context(), dv)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	output := s.service.Latest()
	if output == nil {
		var err error
		output, err = s.service.Run(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(RenderReportHTML(output))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.Export(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="trials_analyzed.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleConditionChart(w http.ResponseWriter, r *http.Request) {
	output, ok := s.requireOutput(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.RenderConditionSummary(w, output.Trials); err != nil {
		s.logger.Error("condition chart render failed: %v", err)
	}
}

func (s *Server) handleEfficiencyChart(w http.ResponseWriter, r *http.Request) {
	output, ok := s.requireOutput(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.RenderEfficiencyByTarget(w, output.Trials); err != nil {
		s.logger.Error("efficiency chart render failed: %v", err)
	}
}

func (s *Server) handleVelocityChart(w http.ResponseWriter, r *http.Request) {
	output, ok := s.requireOutput(w, r)
	if !ok {
		return
	}

	trialID := core.TrialID(chi.URLParam(r, "trialID"))
	for i := range output.Trials {
		if output.Trials[i].ID == trialID {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			if err := s.renderer.RenderVelocityProfile(w, &output.Trials[i]); err != nil {
				s.logger.Error("velocity chart render failed: %v", err)
			}
			return
		}
	}
	s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "trial not found: " + string(trialID)})
}

func (s *Server) requireOutput(w http.ResponseWriter, r *http.Request) (*analysis.Output, bool) {
	output := s.service.Latest()
	if output == nil {
		var err error
		output, err = s.service.Run(r.Context())
		if err != nil {
			s.writeError(w, err)
			return nil, false
		}
	}
	return output, true
}

// summarize flattens the output for JSON responses, leaving the raw
// trajectories out of the payload.
func summarize(output *analysis.Output) map[string]interface{} {
	return map[string]interface{}{
		"run_id":       output.RunID,
		"generated_at": output.GeneratedAt,
		"trials":       len(output.Trials),
		"cleaning":     output.Cleaning,
		"results":      output.Results,
		"report":       output.Report,
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if core.IsDataQualityError(err) {
		status = http.StatusUnprocessableEntity
	}
	if core.IsSchemaViolation(err) {
		status = http.StatusBadRequest
	}
	s.logger.Error("request failed: %v", err)
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
