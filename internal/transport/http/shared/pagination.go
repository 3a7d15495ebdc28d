package shared

import (
	"net/http"
	"strconv"
)

// Page is one window of a filtered listing.
type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Paginate slices items by the limit and offset query parameters. Bad or
// missing values fall back to defaultLimit and zero; limit never exceeds
// maxLimit when maxLimit is positive.
func Paginate[T any](r *http.Request, items []T, defaultLimit, maxLimit int) Page[T] {
	limit := queryInt(r, "limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	offset := max(queryInt(r, "offset", 0), 0)

	start := min(offset, len(items))
	end := min(start+limit, len(items))
	window := items[start:end]
	if window == nil {
		window = []T{}
	}
	return Page[T]{Items: window, Total: len(items), Limit: limit, Offset: offset}
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
