// This file implements utilities for parsing and validating request data:
// JSON bodies, path ids and optional year/month path segments.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"oba/internal/core"
)

const maxBodyBytes = 1 << 20

// requestError is a malformed request, answered with 400 and its message.
type requestError struct {
	msg string
}

func (e *requestError) Error() string {
	return e.msg
}

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// decodeJSON reads one JSON value of type T from the body. Unknown fields,
// trailing data and bodies over 1 MiB are rejected as bad requests. Field
// values that parse but are unusable (a non-numeric amount, a bad date)
// keep their core.ErrValidation identity.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, core.ErrValidation):
			return v, err
		case errors.As(err, &tooLarge):
			return v, badRequest("request body too large")
		case errors.Is(err, io.EOF):
			return v, badRequest("request body is empty")
		default:
			return v, badRequest("invalid JSON body: %v", err)
		}
	}
	if dec.More() {
		return v, badRequest("invalid JSON body: unexpected data after value")
	}
	return v, nil
}

// pathID parses a numeric path segment.
func pathID(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.PathValue(name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, badRequest("invalid %s %q", name, raw)
	}
	return id, nil
}

// pathPeriod returns the {year}/{month} segments as a Period, or nil when the
// route has none. A month outside 1-12 is core.ErrInvalidMonth.
func pathPeriod(r *http.Request) (*core.Period, error) {
	rawYear, rawMonth := r.PathValue("year"), r.PathValue("month")
	if rawYear == "" && rawMonth == "" {
		return nil, nil
	}

	year, err := strconv.Atoi(rawYear)
	if err != nil {
		return nil, badRequest("invalid year %q", rawYear)
	}
	month, err := strconv.Atoi(rawMonth)
	if err != nil {
		return nil, badRequest("invalid month %q", rawMonth)
	}

	p := &core.Period{Year: year, Month: month}
	if _, _, err := p.Range(); err != nil {
		return nil, err
	}
	return p, nil
}
