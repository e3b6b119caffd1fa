package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/splitcheck/splitcheck/internal/analyze"
	"github.com/splitcheck/splitcheck/internal/experiment"
	"github.com/splitcheck/splitcheck/internal/stats"
	"github.com/splitcheck/splitcheck/internal/store"
)

type observationPayload struct {
	ID        string `json:"id"`
	Group     string `json:"group"`
	Page      string `json:"page"`
	Converted bool   `json:"converted"`
	Stratum   string `json:"stratum"`
}

type analyzeRequest struct {
	Alpha        *float64             `json:"alpha,omitempty"`
	Observations []observationPayload `json:"observations"`
}

type analyzeResponse struct {
	RunID      *int64                    `json:"run_id,omitempty"`
	Validation *analyze.ValidationReport `json:"validation"`
	Power      stats.PowerReport         `json:"power"`
	Results    *analyze.ResultSet        `json:"results"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Observations) == 0 {
		writeError(w, http.StatusBadRequest, "observations are required")
		return
	}

	alpha := s.opts.Alpha
	if req.Alpha != nil {
		alpha = *req.Alpha
	}
	if alpha <= 0 || alpha >= 1 {
		writeError(w, http.StatusBadRequest, "alpha must be in (0, 1)")
		return
	}

	obs := make([]experiment.Observation, len(req.Observations))
	for i, o := range req.Observations {
		obs[i] = experiment.Observation{
			ID:        o.ID,
			Group:     experiment.Group(o.Group),
			Page:      o.Page,
			Converted: o.Converted,
			Stratum:   o.Stratum,
		}
	}

	validation, err := analyze.Validate(obs, s.opts.Validator)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	power, err := analyze.EstimatePower(obs, alpha)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	results, err := analyze.Analyze(obs, alpha)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	resp := analyzeResponse{
		Validation: validation,
		Power:      power,
		Results:    results,
	}

	if s.store != nil {
		run := &store.Run{
			Alpha:             alpha,
			AdjustedAlpha:     results.AdjustedAlpha,
			Power:             power.Power,
			ControlCount:      validation.ControlCount,
			TreatmentCount:    validation.TreatmentCount,
			Removed:           validation.Removed,
			HighMisassignment: validation.HighMisassignment,
			Unbalanced:        validation.Unbalanced,
		}
		runID, err := s.store.SaveRun(r.Context(), run, results.Overall, results.Strata)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to persist run")
		} else {
			resp.RunID = &runID
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list runs")
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runSummaries(runs)})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	run, results, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		s.logger.Error().Err(err).Int64("run_id", id).Msg("failed to get run")
		writeError(w, http.StatusInternalServerError, "failed to get run")
		return
	}

	scopes := make([]map[string]any, len(results))
	for i, sr := range results {
		scopes[i] = map[string]any{"scope": sr.Scope, "result": sr.TestResult}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run":     runSummary(run),
		"results": scopes,
	})
}

func runSummaries(runs []*store.Run) []map[string]any {
	out := make([]map[string]any, len(runs))
	for i, run := range runs {
		out[i] = runSummary(run)
	}
	return out
}

func runSummary(run *store.Run) map[string]any {
	return map[string]any{
		"id":                 run.ID,
		"created_at":         run.CreatedAt.UTC().Format(time.RFC3339),
		"alpha":              run.Alpha,
		"adjusted_alpha":     run.AdjustedAlpha,
		"power":              run.Power,
		"control_count":      run.ControlCount,
		"treatment_count":    run.TreatmentCount,
		"removed":            run.Removed,
		"high_misassignment": run.HighMisassignment,
		"unbalanced":         run.Unbalanced,
	}
}

// writeEngineError maps the engine's fatal errors to 422: the request was
// well-formed but the dataset cannot support inference.
func writeEngineError(w http.ResponseWriter, err error) {
	var emptyGroup *analyze.EmptyGroupError
	var insufficient *stats.InsufficientDataError
	if errors.As(err, &emptyGroup) || errors.As(err, &insufficient) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
