package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/davidbz/treeline/internal/domain"
	"github.com/davidbz/treeline/internal/observability"
)

// Handler handles HTTP requests.
type Handler struct {
	service *domain.ImpactService
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(service *domain.ImpactService) *Handler {
	return &Handler{
		service: service,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// HandleCalculateImpact processes a single impact calculation request.
func (h *Handler) HandleCalculateImpact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req domain.ImpactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "No JSON data provided")
		return
	}

	result, err := h.service.CalculateImpact(ctx, &req)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Message)
			return
		}

		observability.FromContext(ctx).Error("impact calculation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type batchRequest struct {
	Records []domain.ImpactRequest `json:"records"`
}

type batchResponse struct {
	Results []domain.BatchEntry `json:"results"`
	Summary domain.BatchSummary `json:"summary"`
}

// HandleBatchCalculate processes a batch of impact calculation requests.
func (h *Handler) HandleBatchCalculate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "No JSON data provided")
		return
	}
	if req.Records == nil {
		writeError(w, http.StatusBadRequest, "No records provided")
		return
	}

	entries, summary, err := h.service.CalculateBatch(ctx, req.Records)
	if err != nil {
		if errors.Is(err, domain.ErrBatchTooLarge) {
			writeError(w, http.StatusBadRequest, "Batch size too large (max 1000)")
			return
		}

		observability.FromContext(ctx).Error("batch calculation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, batchResponse{Results: entries, Summary: summary})
}

// HandleModels lists the known model energy profiles.
func (h *Handler) HandleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, h.service.Models(r.Context()))
}

// HandleMethodology describes the calculation methodology.
func (h *Handler) HandleMethodology(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]domain.MethodologyInfo{
		"methodology": h.service.Methodology(),
	})
}

// HandleCacheStats reports result cache statistics.
func (h *Handler) HandleCacheStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stats, err := h.service.CacheStats(ctx)
	if err != nil {
		observability.FromContext(ctx).Error("cache stats failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// HandleCarbonIntensity reports the resolved intensity, daily-variation
// estimates and regional averages for a location.
func (h *Handler) HandleCarbonIntensity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	location := r.URL.Query().Get("location")
	writeJSON(w, http.StatusOK, h.service.CarbonReport(r.Context(), location))
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	report := h.service.Health(r.Context())

	status := http.StatusOK
	if report.Status != "healthy" {
		status = http.StatusInternalServerError
	}

	writeJSON(w, status, report)
}

// HandleNotFound serves a JSON 404 for unregistered paths.
func (h *Handler) HandleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "Endpoint not found")
}
