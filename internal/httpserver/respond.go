package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/openlabshq/rangeapi/internal/apperr"
)

// ErrorResponse is the JSON envelope for error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Respond writes data as a JSON response with the given status code.
func Respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// RespondError writes a JSON error envelope with the given status code.
func RespondError(w http.ResponseWriter, status int, errStr, message string) {
	Respond(w, status, ErrorResponse{Error: errStr, Message: message})
}

// RespondErr maps an apperr.Error (or any error) to the taxonomy's status
// code and writes it. Unrecognized errors are logged and returned as a
// generic 500 so internal details never reach the client.
func RespondErr(w http.ResponseWriter, logger *slog.Logger, err error) {
	var ae *apperr.Error
	if e, ok := err.(*apperr.Error); ok {
		ae = e
	} else {
		logger.Error("unhandled error", "error", err)
		RespondError(w, http.StatusInternalServerError, string(apperr.KindInternal), "internal error")
		return
	}

	if ae.Kind == apperr.KindInternal {
		logger.Error(ae.Message, "error", err)
	}

	RespondError(w, apperr.StatusCode(ae.Kind), string(ae.Kind), ae.Message)
}
