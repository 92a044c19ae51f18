package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// ErrorCode is a machine-readable error discriminator for responses.
type ErrorCode string

const (
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeInvalidJSON   ErrorCode = "INVALID_JSON"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeUnprocessable ErrorCode = "UNPROCESSABLE"
)

// ErrorResponse is the structured body every non-2xx response carries.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Code      ErrorCode `json:"code"`
	RequestID string    `json:"request_id,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code ErrorCode, message string) {
	resp := ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    code,
	}
	if id := middleware.GetReqID(r.Context()); id != "" {
		resp.RequestID = id
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func badRequest(w http.ResponseWriter, r *http.Request, code ErrorCode, message string) {
	writeError(w, r, http.StatusBadRequest, code, message)
}

func notFound(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, r, http.StatusNotFound, ErrCodeNotFound, message)
}

func unprocessable(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, r, http.StatusUnprocessableEntity, ErrCodeUnprocessable, message)
}

func internalError(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, r, http.StatusInternalServerError, ErrCodeInternal, message)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
