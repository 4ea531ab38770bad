package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"wisepenny/internal/core"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeError maps domain errors onto the status codes and messages the
// clients expect.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorResponse(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "path", r.URL.Path)
	}
	writeMessage(w, status, msg)
}

func errorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrUnauthenticated):
		return http.StatusUnauthorized, "Not authenticated"
	case errors.Is(err, core.ErrInvalidToken):
		return http.StatusBadRequest, "Invalid token!"
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "Expense not found"
	case errors.Is(err, core.ErrNoFieldsProvided):
		return http.StatusBadRequest, "No data provided to update."
	case errors.Is(err, core.ErrInvalidAmount):
		return http.StatusBadRequest, "Invalid amount"
	case errors.Is(err, core.ErrInvalidMethod):
		return http.StatusBadRequest, "Invalid method"
	case errors.Is(err, core.ErrInvalidDate):
		return http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD"
	case errors.Is(err, core.ErrEmptyDescription):
		return http.StatusBadRequest, "Description is required"
	case errors.Is(err, core.ErrInsufficientFunds):
		return http.StatusBadRequest, "Insufficient funds!"
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict, "Concurrent modification, please retry"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// insufficientFundsMessage keeps the method-specific wording, punctuation
// included, that existing clients match on.
func insufficientFundsMessage(m core.Method) string {
	if m == core.MethodChecking {
		return "Insufficient checking funds"
	}
	return "Insufficient cash funds!"
}
