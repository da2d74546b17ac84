package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"hrtime/internal/domain/apperr"
)

type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type Envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     *Error `json:"error,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("write json failed", "err", err)
	}
}

func Success(w http.ResponseWriter, data any, requestID string) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data, RequestID: requestID})
}

func Created(w http.ResponseWriter, data any, requestID string) {
	WriteJSON(w, http.StatusCreated, Envelope{Success: true, Data: data, RequestID: requestID})
}

func Fail(w http.ResponseWriter, status int, code, message, requestID string) {
	WriteJSON(w, status, Envelope{Success: false, Error: &Error{Code: code, Message: message}, RequestID: requestID})
}

func FailWithDetails(w http.ResponseWriter, status int, code, message string, details map[string]any, requestID string) {
	WriteJSON(w, status, Envelope{Success: false, Error: &Error{Code: code, Message: message, Details: details}, RequestID: requestID})
}

// FailError maps a service error to its HTTP status. Untyped errors are
// logged and hidden behind a generic 500.
func FailError(w http.ResponseWriter, err error, requestID string) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		slog.Error("unhandled error", "err", err, "requestId", requestID)
		Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", requestID)
		return
	}

	status, code := statusFor(appErr.Kind)
	if appErr.Details != nil {
		FailWithDetails(w, status, code, appErr.Message, appErr.Details, requestID)
		return
	}
	Fail(w, status, code, appErr.Message, requestID)
}

func statusFor(kind apperr.Kind) (int, string) {
	switch kind {
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized, "unauthorized"
	case apperr.KindForbidden:
		return http.StatusForbidden, "forbidden"
	case apperr.KindValidation:
		return http.StatusBadRequest, "validation_error"
	case apperr.KindNotFound:
		return http.StatusNotFound, "not_found"
	case apperr.KindConflict:
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
