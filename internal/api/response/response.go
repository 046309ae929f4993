package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/newthinker/insight/internal/core"
)

// Meta contains response metadata.
type Meta struct {
	Timestamp time.Time `json:"timestamp"`
}

// SuccessResponse is the standard success response format.
type SuccessResponse struct {
	Data any  `json:"data"`
	Meta Meta `json:"meta"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   string `json:"cause,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// statusByCode maps core error codes to HTTP statuses.
var statusByCode = map[string]int{
	core.ErrInvalidSeries.Code:    http.StatusBadRequest,
	core.ErrInvalidHorizon.Code:   http.StatusBadRequest,
	core.ErrConfigInvalid.Code:    http.StatusBadRequest,
	core.ErrInvalidSymbol.Code:    http.StatusNotFound,
	core.ErrNoData.Code:           http.StatusNotFound,
	core.ErrInsufficientData.Code: http.StatusUnprocessableEntity,
	core.ErrRateLimited.Code:      http.StatusTooManyRequests,
	core.ErrNetwork.Code:          http.StatusBadGateway,
	core.ErrCollectorFailed.Code:  http.StatusBadGateway,
	core.ErrNewsFailed.Code:       http.StatusBadGateway,
	core.ErrLLMFailed.Code:        http.StatusBadGateway,
	core.ErrLLMTimeout.Code:       http.StatusGatewayTimeout,
	core.ErrConfigMissing.Code:    http.StatusServiceUnavailable,
	core.ErrUnauthorized.Code:     http.StatusUnauthorized,
	core.ErrNotFound.Code:         http.StatusNotFound,
}

// StatusFor returns the HTTP status for err: its core error code decides,
// anything else is a 500.
func StatusFor(err error) int {
	if status, ok := statusByCode[core.CodeOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// JSON writes a success response with data.
func JSON(w http.ResponseWriter, status int, data any) {
	resp := SuccessResponse{
		Data: data,
		Meta: Meta{Timestamp: time.Now().UTC()},
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// Error writes an error response.
func Error(w http.ResponseWriter, status int, err error) {
	detail := ErrorDetail{
		Code:    core.CodeInternal,
		Message: "an internal error occurred",
	}

	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		detail.Code = coreErr.Code
		detail.Message = coreErr.Message
		if coreErr.Cause != nil {
			detail.Cause = coreErr.Cause.Error()
		}
	}

	resp := ErrorResponse{Error: detail}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// Fail writes err with the status StatusFor picks.
func Fail(w http.ResponseWriter, err error) {
	Error(w, StatusFor(err), err)
}
