package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrEmptyBody is returned when a request body is required but missing.
	ErrEmptyBody = errors.New("request body is required")
	// ErrBodyTooLarge is returned when the body exceeds the configured limit.
	ErrBodyTooLarge = errors.New("request body too large")
)

// DecodeJSON reads at most limit bytes from the request body and unmarshals them into target.
// Unknown fields are rejected.
func DecodeJSON(r *http.Request, limit int64, target any) error {
	if r == nil || r.Body == nil {
		return ErrEmptyBody
	}
	if limit <= 0 {
		limit = 64 * 1024
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return ErrEmptyBody
	}
	if int64(len(data)) > limit {
		return ErrBodyTooLarge
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}
