// Package bind decodes and validates an HTTP request body into a struct.
package bind

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/shashiranjanraj/stockbook/config"
	"github.com/shashiranjanraj/stockbook/pkg/apperror"
	"github.com/shashiranjanraj/stockbook/pkg/validate"
)

const defaultMaxBodyBytes = 1 << 20

func maxBodyBytes() int64 {
	n := config.Int("MAX_BODY_BYTES", defaultMaxBodyBytes)
	if n <= 0 {
		return defaultMaxBodyBytes
	}
	return int64(n)
}

// JSON decodes r.Body into dest and validates it. Malformed or oversized
// bodies and failed rules all come back as apperror validation errors, the
// latter carrying the per-field messages.
func JSON(r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes())

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperror.Validation("request body too large (max %d bytes)", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return apperror.Validation("request body is empty")
		default:
			return apperror.Validation("invalid JSON: %v", err)
		}
	}

	if errs := validate.Struct(dest); validate.HasErrors(errs) {
		return apperror.Fields(errs)
	}
	return nil
}
