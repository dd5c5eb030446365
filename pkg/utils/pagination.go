package utils

import "strconv"

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// ParsePagination parses page/limit query values into sane bounds.
// Bad or missing values fall back to the defaults rather than erroring;
// the listing endpoints treat pagination as best-effort input.
func ParsePagination(pageStr, limitStr string) (page, limit, offset int) {
	page = DefaultPage
	limit = DefaultLimit

	if v, err := strconv.Atoi(pageStr); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(limitStr); err == nil && v > 0 {
		limit = v
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset = (page - 1) * limit
	return page, limit, offset
}

// PageEnvelope is the listing response contract: {data, page, limit, total}.
type PageEnvelope struct {
	Data  interface{} `json:"data"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
	Total int64       `json:"total"`
}

func NewPageEnvelope(data interface{}, page, limit int, total int64) PageEnvelope {
	return PageEnvelope{Data: data, Page: page, Limit: limit, Total: total}
}
