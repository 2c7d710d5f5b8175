package web

// errors.go maps service errors to JSON responses. The technical error is
// logged with the request ID; the client gets core.MapError's message,
// action and code.

import (
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/catalogsync/internal/core"
	"github.com/JonMunkholm/catalogsync/internal/logging"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// BlockedResponse answers an export refused because of invalid records.
type BlockedResponse struct {
	ErrorResponse
	InvalidCount int    `json:"invalidCount"`
	InvalidRows  []int  `json:"invalidRows,omitempty"`
	Hint         string `json:"hint"`
}

// statusFor picks the HTTP status of a service error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrUnknownDomain):
		return http.StatusNotFound
	case errors.Is(err, core.ErrNoEvaluation), errors.Is(err, core.ErrInvalidTransition),
		errors.Is(err, core.ErrExportInProgress):
		return http.StatusConflict
	case errors.Is(err, core.ErrTooManyExports), errors.Is(err, core.ErrNoTransport):
		return http.StatusServiceUnavailable
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "file too large"), strings.Contains(msg, "request body too large"):
		return http.StatusRequestEntityTooLarge
	case strings.Contains(msg, "invalid csv"), strings.Contains(msg, "empty file"),
		strings.Contains(msg, "unknown field group"):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes its user-facing JSON form.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request error", "path", r.URL.Path, "method", r.Method, "status", status, "error", err.Error(), "code", msg.Code)
	} else {
		logger.Warn("request rejected", "path", r.URL.Path, "method", r.Method, "status", status, "error", err.Error(), "code", msg.Code)
	}

	writeJSON(w, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// writeError writes an error that did not come from the service.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	logging.FromContext(r.Context()).Warn("request rejected",
		"path", r.URL.Path,
		"status", status,
		"code", code,
		"error", message,
	)
	writeJSON(w, status, ErrorResponse{Error: message, Message: message, Code: code})
}

// respondBlocked writes the 409 answer for a blocked export.
func respondBlocked(w http.ResponseWriter, report *core.ExportReport) {
	msg := core.MapError(errors.New("export blocked"))
	writeJSON(w, http.StatusConflict, BlockedResponse{
		ErrorResponse: ErrorResponse{
			Error:   msg.Message,
			Message: msg.Message,
			Action:  msg.Action,
			Code:    msg.Code,
		},
		InvalidCount: report.InvalidCount,
		InvalidRows:  report.InvalidRows,
		Hint:         "re-submit with override=valid to export only valid records, or override=all to export everything",
	})
}
