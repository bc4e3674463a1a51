package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Vodeneev/footstats/internal/pkg/stats"
	"github.com/Vodeneev/footstats/internal/search"
)

// errBadRequest marks request parsing failures.
var errBadRequest = errors.New("bad request")

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    int    `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message, Code: status}
	if err != nil {
		if status >= http.StatusInternalServerError {
			slog.Error(message, "error", err)
		}
		resp.Details = err.Error()
	}
	respondJSON(w, status, resp)
}

// respondFailure picks the status from err: configuration mistakes in the
// request are 400, timeouts 504, everything else 500.
func respondFailure(w http.ResponseWriter, message string, err error) {
	respondError(w, statusFor(err), message, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, stats.ErrUnknownPeriod),
		errors.Is(err, stats.ErrUnknownLine),
		errors.Is(err, stats.ErrUnknownMarket),
		errors.Is(err, stats.ErrInvalidThreshold),
		errors.Is(err, search.ErrInvalidFilter):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func parseIntParam(r *http.Request, param string, defaultValue int) (int, error) {
	valueStr := r.URL.Query().Get(param)
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", errBadRequest, param, valueStr)
	}

	return value, nil
}
