package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ws1993/Baby-Growth-Record/internal/model"
)

// maxBodyBytes bounds JSON request bodies and imported files.
const maxBodyBytes = 10 << 20

type errorResponse struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON", model.ErrValidation)
	}
	return nil
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidMeasurement),
		errors.Is(err, model.ErrDecryption),
		errors.Is(err, model.ErrImportValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrSyncInProgress):
		return http.StatusConflict
	case errors.Is(err, model.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, model.ErrSync):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError writes err as a JSON error body. Unexpected errors are logged
// and their text is not exposed.
func writeError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}
	var ive *model.ImportValidationError
	if errors.As(err, &ive) {
		resp.Error = model.ErrImportValidation.Error()
		resp.Problems = ive.Problems
	}
	if status >= http.StatusInternalServerError {
		logger.Error(op, "error", err)
		if status == http.StatusInternalServerError {
			resp.Error = "failed to " + op
		}
	}
	writeJSON(w, status, resp)
}
