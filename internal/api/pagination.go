package api

import (
	"net/http"
	"strconv"

	apierrs "github.com/jdholdren/touchline/internal/errors"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// parsePaginationParams parses pagination parameters from an HTTP request.
// Supports offset-based pagination (?offset=20&limit=10).
//
// A missing or non-positive limit gets the default and anything above the max
// is clamped to it. Negative offsets start from zero.
func parsePaginationParams(r *http.Request) (int, int, []apierrs.Detail) {
	var (
		query   = r.URL.Query()
		details []apierrs.Detail
		limit   = defaultLimit
		offset  = 0
	)

	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			details = append(details, apierrs.Detail{Field: "limit", Error: "must be an integer"})
		} else if n > 0 {
			limit = min(n, maxLimit)
		}
	}

	if raw := query.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			details = append(details, apierrs.Detail{Field: "offset", Error: "must be an integer"})
		} else if n > 0 {
			offset = n
		}
	}

	return limit, offset, details
}
