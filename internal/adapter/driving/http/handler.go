// Package httphandler is the HTTP driving adapter that serves the REST API.
package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ericfisherdev/invoice2erpnext/internal/application"
	"github.com/ericfisherdev/invoice2erpnext/internal/auth"
	"github.com/ericfisherdev/invoice2erpnext/internal/domain/port/driven"
)

const (
	defaultErrorLogLimit = 50
	maxErrorLogLimit     = 500
)

// Handler serves the credits, settings and error log endpoints.
type Handler struct {
	settingsSvc *application.SettingsService
	creditsSvc  *application.CreditsService
	errLog      driven.ErrorLogStore
	logger      *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	settingsSvc *application.SettingsService,
	creditsSvc *application.CreditsService,
	errLog driven.ErrorLogStore,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		settingsSvc: settingsSvc,
		creditsSvc:  creditsSvc,
		errLog:      errLog,
		logger:      logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware. gatherer backs /metrics.
func NewServeMux(h *Handler, tokens *auth.JWTManager, gatherer prometheus.Gatherer, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	manager := func(next http.HandlerFunc) http.HandlerFunc {
		return requireRole(tokens, auth.RoleSettingsManager, next)
	}

	mux.HandleFunc("GET /api/v1/credits", requireAuth(tokens, h.GetAvailableCredits))
	mux.HandleFunc("GET /api/v1/settings", manager(h.GetSettings))
	mux.HandleFunc("PUT /api/v1/settings", manager(h.UpdateSettings))
	mux.HandleFunc("POST /api/v1/settings/test-connection", manager(h.TestConnection))
	mux.HandleFunc("GET /api/v1/error-log", manager(h.ListErrorLog))
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// GetAvailableCredits returns the credit balance projection. It always
// answers 200; failures surface as a zero value.
func (h *Handler) GetAvailableCredits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toCreditsResponse(h.creditsSvc.AvailableCredits(r.Context())))
}

// GetSettings returns the settings record without secret values.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	view, err := h.settingsSvc.Get(r.Context())
	if errors.Is(err, application.ErrSettingsNotFound) {
		writeError(w, http.StatusNotFound, "settings not configured")
		return
	}
	if err != nil {
		h.logger.Error("failed to get settings", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toSettingsResponse(*view))
}

// UpdateSettings applies an administrator edit to the settings record.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.settingsSvc.Update(r.Context(), application.SettingsUpdate{
		Enabled:     req.Enabled,
		ERPNextUser: req.ERPNextUser,
		APIKey:      req.APIKey,
		APISecret:   req.APISecret,
	})
	if errors.Is(err, driven.ErrEncryptionKeyNotSet) {
		writeError(w, http.StatusServiceUnavailable, "credential storage unavailable: encryption key not configured")
		return
	}
	if err != nil {
		h.logger.Error("failed to update settings", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("settings updated by user", "user", ClaimsFrom(r.Context()).User)
	writeJSON(w, http.StatusOK, toSettingsResponse(*view))
}

// TestConnection runs the connection test and returns its result. The
// enabled flag is persisted to match the outcome; when that save fails the
// response is a 500 that still carries the fetch result.
func (h *Handler) TestConnection(w http.ResponseWriter, r *http.Request) {
	result, err := h.settingsSvc.TestConnection(r.Context())
	if errors.Is(err, application.ErrSettingsNotFound) {
		writeError(w, http.StatusNotFound, "settings not configured")
		return
	}
	if errors.Is(err, application.ErrOutcomeNotSaved) {
		h.logger.Error("connection test failed to persist", "error", err, "success", result.Success)
		writeJSON(w, http.StatusInternalServerError, TestConnectionErrorResponse{
			Error:  "connection test outcome not saved",
			Result: toFetchResultResponse(result),
		})
		return
	}
	if err != nil {
		h.logger.Error("failed to run connection test", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toFetchResultResponse(result))
}

// ListErrorLog returns the newest error log entries. ?limit= caps the count.
func (h *Handler) ListErrorLog(w http.ResponseWriter, r *http.Request) {
	limit := defaultErrorLogLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, maxErrorLogLimit)
	}

	entries, err := h.errLog.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list error log", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]ErrorLogEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, toErrorLogEntryResponse(e))
	}

	writeJSON(w, http.StatusOK, resp)
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// decodeJSONBody decodes a single JSON object, rejecting unknown fields.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
