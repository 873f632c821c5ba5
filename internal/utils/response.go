package utils

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/rohits-web03/inkwell/internal/models"
)

// JSONResponse sends payload as JSON with the given status.
func JSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// ErrorResponse sends {"error": message}.
func ErrorResponse(w http.ResponseWriter, status int, message string) {
	JSONResponse(w, status, models.ErrorResponse{Error: message})
}

// WriteError renders err. AppErrors keep their status and message; anything
// else, and every internal error, is logged and reported generically.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		appErr = models.NewInternalError(err)
	}
	status := appErr.StatusCode()
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	JSONResponse(w, status, models.ErrorResponse{Error: appErr.Message, Code: appErr.Code})
}

// DecodeJSON reads a single JSON value from r into dest.
func DecodeJSON(r io.Reader, dest any) error {
	dec := json.NewDecoder(r)
	if err := dec.Decode(dest); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}
