package shared

import (
	"net/http"
	"strconv"
)

type Pagination struct {
	Limit int
	Skip  int
}

// ParsePagination reads skip/limit query parameters ("offset" is accepted as
// an alias for skip). Invalid values fall back to the defaults.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	limit := defaultLimit
	skip := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	rawSkip := r.URL.Query().Get("skip")
	if rawSkip == "" {
		rawSkip = r.URL.Query().Get("offset")
	}
	if rawSkip != "" {
		if v, err := strconv.Atoi(rawSkip); err == nil && v >= 0 {
			skip = v
		}
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return Pagination{Limit: limit, Skip: skip}
}

// Page is the uniform list payload shape.
type Page struct {
	Items any `json:"items"`
	Total int `json:"total"`
	Limit int `json:"limit"`
	Skip  int `json:"skip"`
}

func NewPage(items any, total int, p Pagination) Page {
	return Page{Items: items, Total: total, Limit: p.Limit, Skip: p.Skip}
}
