package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/invoice2erpnext/internal/application"
	"github.com/ericfisherdev/invoice2erpnext/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it with the given status code. If
// marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// CreditsResponse is the number-card projection of the credit balance.
type CreditsResponse struct {
	Value     float64 `json:"value"`
	FieldType string  `json:"fieldtype"`
}

// FetchResultResponse is the JSON representation of a credit fetch outcome.
// Credits is omitted unless Success is true.
type FetchResultResponse struct {
	Success bool    `json:"success"`
	Credits *string `json:"credits,omitempty"`
	Message string  `json:"message"`
}

// TestConnectionErrorResponse reports a connection test whose outcome could
// not be saved.
type TestConnectionErrorResponse struct {
	Error  string              `json:"error"`
	Result FetchResultResponse `json:"result"`
}

// SettingsResponse is the administrator view of the settings record. Secret
// values are never returned.
type SettingsResponse struct {
	Name         string `json:"name"`
	Enabled      *bool  `json:"enabled"`
	ERPNextUser  string `json:"erpnext_user"`
	HasAPIKey    bool   `json:"has_api_key"`
	HasAPISecret bool   `json:"has_api_secret"`
	UpdatedAt    string `json:"updated_at"`
}

// UpdateSettingsRequest is the JSON body for the settings update endpoint.
// Omitted fields and empty secrets leave stored values unchanged.
type UpdateSettingsRequest struct {
	Enabled     *bool   `json:"enabled"`
	ERPNextUser *string `json:"erpnext_user"`
	APIKey      string  `json:"api_key"`
	APISecret   string  `json:"api_secret"`
}

// ErrorLogEntryResponse is the JSON representation of an error log entry.
type ErrorLogEntryResponse struct {
	ID        string `json:"id"`
	Category  string `json:"category"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

func toCreditsResponse(v model.CreditsValue) CreditsResponse {
	return CreditsResponse{Value: v.Value, FieldType: v.FieldType}
}

func toFetchResultResponse(r model.FetchResult) FetchResultResponse {
	resp := FetchResultResponse{Success: r.Success, Message: r.Message}
	if r.Success {
		credits := r.Credits
		resp.Credits = &credits
	}
	return resp
}

func toSettingsResponse(v application.SettingsView) SettingsResponse {
	return SettingsResponse{
		Name:         model.SettingsName,
		Enabled:      v.Settings.Enabled,
		ERPNextUser:  v.Settings.ERPNextUser,
		HasAPIKey:    v.HasAPIKey,
		HasAPISecret: v.HasAPISecret,
		UpdatedAt:    v.Settings.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toErrorLogEntryResponse(e model.ErrorLogEntry) ErrorLogEntryResponse {
	return ErrorLogEntryResponse{
		ID:        e.ID,
		Category:  e.Category,
		Message:   e.Message,
		CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
	}
}
