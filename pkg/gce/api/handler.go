// Package api exposes the verdict service over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/guardrail-ml/gce/pkg/gce"
)

// Handler handles HTTP requests for verdicts, run history and reports
type Handler struct {
	service gce.Service
}

// NewHandler creates a new API handler
func NewHandler(service gce.Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the routes for the verdict API
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/verdicts", h.ComputeVerdict)
	r.Post("/analyze", h.AnalyzeComposition)
	r.Get("/bounds", h.FHBounds)
	r.Get("/backend-info", h.BackendInfo)
	r.Post("/explain", h.ExplainVerdict)

	r.Get("/runs", h.ListRuns)
	r.Get("/runs/{id}", h.GetRun)
	r.Delete("/runs/{id}", h.DeleteRun)
	r.Post("/runs/{id}/report", h.ExportReport)

	return r
}

// RunResponse is the response body for a persisted run
type RunResponse struct {
	ID        string        `json:"id"`
	Bundle    gce.RunBundle `json:"bundle"`
	Verdict   gce.Verdict   `json:"verdict"`
	Backend   string        `json:"backend"`
	Reason    string        `json:"reason"`
	CreatedAt time.Time     `json:"created_at"`
}

func runResponse(run *gce.Run) RunResponse {
	return RunResponse{
		ID:        run.ID.String(),
		Bundle:    run.Bundle,
		Verdict:   run.Verdict,
		Backend:   run.Backend,
		Reason:    run.Reason,
		CreatedAt: run.CreatedAt,
	}
}

// ComputeVerdict scores a run bundle and persists the resulting run
func (h *Handler) ComputeVerdict(w http.ResponseWriter, r *http.Request) {
	var bundle gce.RunBundle
	if err := json.NewDecoder(r.Body).Decode(&bundle); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	run, err := h.service.ComputeVerdict(r.Context(), bundle)
	if err != nil {
		h.renderError(w, r, "compute verdict", err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, runResponse(run))
}

// AnalyzeComposition returns the raw composability analysis for a bundle
// without persisting anything
func (h *Handler) AnalyzeComposition(w http.ResponseWriter, r *http.Request) {
	var bundle gce.RunBundle
	if err := json.NewDecoder(r.Body).Decode(&bundle); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	analysis, err := h.service.AnalyzeComposition(bundle)
	if err != nil {
		h.renderError(w, r, "analyze composition", err)
		return
	}

	render.JSON(w, r, analysis)
}

// BoundsResponse is the response body for Frechet-Hoeffding bounds
type BoundsResponse struct {
	Theta   float64 `json:"theta"`
	Epsilon float64 `json:"epsilon"`
	Lower   float64 `json:"lower"`
	Upper   float64 `json:"upper"`
}

// FHBounds returns worst-case bounds for a leak rate under a drift budget
func (h *Handler) FHBounds(w http.ResponseWriter, r *http.Request) {
	theta, err := strconv.ParseFloat(r.URL.Query().Get("theta"), 64)
	if err != nil {
		http.Error(w, "invalid theta", http.StatusBadRequest)
		return
	}
	epsilon, err := strconv.ParseFloat(r.URL.Query().Get("epsilon"), 64)
	if err != nil {
		http.Error(w, "invalid epsilon", http.StatusBadRequest)
		return
	}

	lower, upper := h.service.FHBounds(theta, epsilon)
	render.JSON(w, r, BoundsResponse{
		Theta:   theta,
		Epsilon: epsilon,
		Lower:   lower,
		Upper:   upper,
	})
}

// BackendInfo reports which verdict backend is active and why
func (h *Handler) BackendInfo(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.BackendInfo())
}

// ExplainRequest is the request body for a verdict explanation
type ExplainRequest struct {
	Bundle  gce.RunBundle `json:"bundle"`
	Verdict *gce.Verdict  `json:"verdict,omitempty"`
}

// ExplainResponse is the response body for a verdict explanation
type ExplainResponse struct {
	Explanation string `json:"explanation"`
}

// ExplainVerdict produces a narrative for a verdict. When the request
// carries no verdict, one is computed from the bundle first.
func (h *Handler) ExplainVerdict(w http.ResponseWriter, r *http.Request) {
	var req ExplainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	verdict := req.Verdict
	if verdict == nil {
		run, err := h.service.ComputeVerdict(r.Context(), req.Bundle)
		if err != nil {
			h.renderError(w, r, "compute verdict", err)
			return
		}
		verdict = &run.Verdict
	}

	text, err := h.service.ExplainVerdict(r.Context(), &req.Bundle, verdict)
	if err != nil {
		h.renderError(w, r, "explain verdict", err)
		return
	}

	render.JSON(w, r, ExplainResponse{Explanation: text})
}

// ListRuns lists persisted runs, newest first. Supports rule, label and
// limit query parameters.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	req := gce.ListRunsRequest{
		Rule:  r.URL.Query().Get("rule"),
		Label: gce.Label(r.URL.Query().Get("label")),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		req.Limit = limit
	}

	runs, err := h.service.ListRuns(r.Context(), req)
	if err != nil {
		h.renderError(w, r, "list runs", err)
		return
	}

	resp := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, runResponse(run))
	}
	render.JSON(w, r, resp)
}

// GetRun fetches a single run by ID
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid run ID", http.StatusBadRequest)
		return
	}

	run, err := h.service.GetRun(r.Context(), id)
	if err != nil {
		h.renderError(w, r, "get run", err)
		return
	}

	render.JSON(w, r, runResponse(run))
}

// DeleteRun removes a run from the repository
func (h *Handler) DeleteRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid run ID", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteRun(r.Context(), id); err != nil {
		h.renderError(w, r, "delete run", err)
		return
	}

	render.JSON(w, r, map[string]string{"status": "deleted"})
}

// ExportReportRequest is the request body for exporting a one-pager
type ExportReportRequest struct {
	Format string `json:"format"`
	Store  string `json:"store,omitempty"`
	Title  string `json:"title,omitempty"`
}

// ExportReport renders a one-pager for a run and uploads it to a report store
func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid run ID", http.StatusBadRequest)
		return
	}

	var req ExportReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	exported, err := h.service.ExportReport(r.Context(), gce.ExportReportRequest{
		RunID:  id,
		Format: gce.ReportFormat(req.Format),
		Store:  req.Store,
		Title:  req.Title,
	})
	if err != nil {
		h.renderError(w, r, "export report", err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, exported)
}

// renderError maps service errors onto HTTP status codes
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := http.StatusInternalServerError

	var bundleErr *gce.BundleError
	switch {
	case errors.Is(err, gce.ErrRunNotFound),
		errors.Is(err, gce.ErrReportNotFound),
		errors.Is(err, gce.ErrReportStoreNotFound):
		status = http.StatusNotFound
	case errors.Is(err, gce.ErrInvalidBundle),
		errors.Is(err, gce.ErrInvalidVerdict),
		errors.As(err, &bundleErr):
		status = http.StatusBadRequest
	case errors.Is(err, gce.ErrNoRepository):
		status = http.StatusNotImplemented
	}

	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "op", op, "error", err)
	}

	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": err.Error()})
}
