// internal/app/features/shared/respond.go
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/freethub/freethub/internal/app/system/inputval"
)

// JSON writes v as the response body with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes a JSON error body: {"error": "..."}.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"error": msg})
}

// Decode reads a JSON request body into dst, rejecting unknown fields.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// IsValidationError reports whether err is a content validation failure
// that should surface as a 400 rather than a 500.
func IsValidationError(err error) bool {
	return errors.Is(err, inputval.ErrEmptyContent) ||
		errors.Is(err, inputval.ErrContentTooLong) ||
		errors.Is(err, inputval.ErrUnprintable)
}
