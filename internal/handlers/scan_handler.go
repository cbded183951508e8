package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/jwaldner/divvyarb/internal/arb"
	"github.com/jwaldner/divvyarb/internal/dto"
	"github.com/jwaldner/divvyarb/internal/logger"
	"github.com/jwaldner/divvyarb/internal/models"
	"github.com/jwaldner/divvyarb/internal/report"
	"github.com/jwaldner/divvyarb/internal/services"
)

// ScanRunner is the part of services.ScanService the API needs.
type ScanRunner interface {
	Run(ctx context.Context, opts services.ScanOptions) (*services.ScanOutcome, error)
	Latest() (*services.ScanOutcome, bool)
}

// ScanHandler serves the scan API - HTTP layer only, all work happens in
// the scan service.
type ScanHandler struct {
	scans    ScanRunner
	requests *services.RequestService
	version  string
}

// NewScanHandler creates a new scan handler
func NewScanHandler(scans ScanRunner, version string) *ScanHandler {
	return &ScanHandler{
		scans:    scans,
		requests: services.NewRequestService(),
		version:  version,
	}
}

// Router wires every endpoint onto a new mux router.
func (h *ScanHandler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(corsMiddleware)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet)
	api.HandleFunc("/scan", h.ScanHandler).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/scan/latest", h.LatestHandler).Methods(http.MethodGet)
	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HealthHandler reports liveness and the last completed run.
func (h *ScanHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	resp := dto.HealthResponse{
		Status:    "ok",
		Version:   h.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if latest, ok := h.scans.Latest(); ok {
		resp.LastRunID = latest.RunID
	}
	writeJSON(w, http.StatusOK, resp)
}

// ScanHandler runs one batch pass and returns the ranked candidates.
func (h *ScanHandler) ScanHandler(w http.ResponseWriter, r *http.Request) {
	opts, err := h.requests.ParseScanRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	logger.Info.Printf("📡 API scan requested (tickers: %d)", len(opts.Tickers))

	outcome, err := h.scans.Run(r.Context(), opts)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, arb.ErrMissingFxRate):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			status = http.StatusServiceUnavailable
		}
		logger.Error.Printf("❌ API scan failed: %v", err)
		writeError(w, status, err)
		return
	}

	writeJSON(w, http.StatusOK, FormatOutcome(outcome))
}

// LatestHandler returns the most recent run without rescanning.
func (h *ScanHandler) LatestHandler(w http.ResponseWriter, r *http.Request) {
	outcome, ok := h.scans.Latest()
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("no scan has completed yet"))
		return
	}
	writeJSON(w, http.StatusOK, FormatOutcome(outcome))
}

// FormatOutcome builds the API response for a completed run.
func FormatOutcome(o *services.ScanOutcome) models.FormattedScanResponse {
	return models.FormattedScanResponse{
		Success: true,
		Data: models.FormattedScanData{
			Results:       report.FormatCandidates(o.Candidates),
			FieldMetadata: report.FieldMetadata(),
		},
		Meta: models.ResponseMetadata{
			RunID:          o.RunID,
			ScanDate:       o.ScanDate.Format(models.DateLayout),
			Timestamp:      o.StartedAt.UTC().Format(time.RFC3339),
			ProcessingTime: o.Duration.Seconds(),
			CacheHit:       o.CacheHit,
			UniverseCount:  o.UniverseCount,
			EvaluatedCount: o.EvaluatedCount,
			ResultCount:    len(o.Candidates),
			SkippedCount:   len(o.Skipped),
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn.Printf("⚠️ Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, dto.ErrorResponse{Success: false, Error: err.Error()})
}
