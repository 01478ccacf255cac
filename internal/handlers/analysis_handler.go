package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/govspend/internal/analytics"
	"github.com/ternarybob/govspend/internal/interfaces"
	"github.com/ternarybob/govspend/internal/models"
	"github.com/ternarybob/govspend/internal/services/analysis"
	"github.com/ternarybob/govspend/internal/usaspending"
)

// analyzeRequest is the POST /api/analyze body
type analyzeRequest struct {
	Records []models.RawAward  `json:"records" validate:"required"`
	AsOf    string             `json:"as_of,omitempty"`
	Revenue map[string]float64 `json:"revenue,omitempty" validate:"omitempty,dive,keys,required,endkeys,gte=0"`
	Enrich  bool               `json:"enrich,omitempty"`
}

// snapshotResponse describes a refreshed snapshot without its awards
type snapshotResponse struct {
	Key        string    `json:"key"`
	Query      string    `json:"query"`
	RunID      string    `json:"run_id"`
	AwardCount int       `json:"award_count"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// AnalysisHandler serves the portfolio analysis endpoints
type AnalysisHandler struct {
	service  interfaces.AnalysisService
	validate *validator.Validate
	logger   arbor.ILogger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service interfaces.AnalysisService, logger arbor.ILogger) *AnalysisHandler {
	return &AnalysisHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

// AnalyzeHandler runs the pipeline over the posted award records
func (h *AnalysisHandler) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req analyzeRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	asOf, err := analytics.ParseAsOf(req.AsOf)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	run, err := h.service.Analyze(r.Context(), interfaces.AnalyzeRequest{
		Awards:  req.Records,
		AsOf:    asOf,
		Revenue: req.Revenue,
		Enrich:  req.Enrich,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, run)
}

// CompaniesHandler returns the overview and recipient summaries of the cached snapshot
func (h *AnalysisHandler) CompaniesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	view, err := h.service.Companies(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, view)
}

// CompanyHandler returns the full report for one recipient.
// An optional revenue query parameter replaces the baseline approximation.
func (h *AnalysisHandler) CompanyHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	recipient := strings.TrimSpace(chi.URLParam(r, "recipient"))
	if recipient == "" {
		WriteError(w, http.StatusBadRequest, "recipient is required")
		return
	}

	var revenue float64
	if raw := r.URL.Query().Get("revenue"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			WriteError(w, http.StatusBadRequest, "revenue must be a non-negative number")
			return
		}
		revenue = parsed
	}

	run, err := h.service.Company(r.Context(), recipient, revenue)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, run)
}

// RefreshHandler forces a snapshot refresh from the upstream source
func (h *AnalysisHandler) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	snapshot, err := h.service.RefreshSnapshot(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, describeSnapshot(snapshot))
}

// SnapshotsHandler lists the stored snapshots without their awards
func (h *AnalysisHandler) SnapshotsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	snapshots, err := h.service.Snapshots(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	response := make([]snapshotResponse, 0, len(snapshots))
	for _, snapshot := range snapshots {
		response = append(response, describeSnapshot(snapshot))
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"snapshots": response,
		"count":     len(response),
	})
}

func describeSnapshot(snapshot *models.AwardSnapshot) snapshotResponse {
	return snapshotResponse{
		Key:        snapshot.Key,
		Query:      snapshot.Query,
		RunID:      snapshot.RunID,
		AwardCount: snapshot.AwardCount,
		FetchedAt:  snapshot.FetchedAt,
	}
}

// StatusForError maps service errors onto HTTP status codes
func StatusForError(err error) int {
	var apiErr *usaspending.APIError

	switch {
	case errors.Is(err, analysis.ErrRecipientNotFound):
		return http.StatusNotFound
	case errors.Is(err, analysis.ErrNoAwardSource):
		return http.StatusServiceUnavailable
	case errors.Is(err, analysis.ErrUpstreamUnavailable), errors.As(err, &apiErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *AnalysisHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusForError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("Analysis request failed")
	} else {
		h.logger.Debug().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("Analysis request rejected")
	}
	WriteError(w, status, err.Error())
}
