package middleware

import (
	"bytes"
	"io"
	"net/http"
)

// maxBodyBytes caps request bodies read for validation.
const maxBodyBytes = 64 << 10

// BodyValidator checks a raw request body against a named schema.
type BodyValidator interface {
	Validate(schema string, body []byte) error
}

// ValidateBody reads the body, checks it against schema and replaces r.Body
// so downstream handlers can re-read it. Failures get 400.
func ValidateBody(v BodyValidator, schema string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bodyBytes, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
			r.Body.Close()
			if err != nil {
				writeError(w, http.StatusBadRequest, "failed to read body", "InvalidRequest")
				return
			}
			if len(bodyBytes) > maxBodyBytes {
				writeError(w, http.StatusRequestEntityTooLarge, "body too large", "InvalidRequest")
				return
			}
			if err := v.Validate(schema, bodyBytes); err != nil {
				writeError(w, http.StatusBadRequest, "request body does not match schema "+schema, "InvalidRequest")
				return
			}
			// Restore body for the handler.
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			next.ServeHTTP(w, r)
		})
	}
}
