package models

const (
	// DefaultPageLimit applies when a request does not specify a limit.
	DefaultPageLimit = 20
	// MaxPageLimit bounds a single page.
	MaxPageLimit = 100
)

// Pagination is a 1-based page request.
type Pagination struct {
	Page  int
	Limit int
}

// Normalize fills defaults: page 1, limit 20, limit at most MaxPageLimit.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// Skip returns the number of rows before the requested page.
func (p Pagination) Skip() int {
	return (p.Page - 1) * p.Limit
}

// PageMeta describes a page within the full result set.
type PageMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

// Page is one page of items plus its metadata.
type Page[T any] struct {
	Data []T      `json:"data"`
	Meta PageMeta `json:"meta"`
}

// NewPage builds a page from already-fetched items. p must be normalized.
func NewPage[T any](data []T, total int, p Pagination) Page[T] {
	if data == nil {
		data = []T{}
	}
	return Page[T]{
		Data: data,
		Meta: PageMeta{
			Total:      total,
			Page:       p.Page,
			Limit:      p.Limit,
			TotalPages: (total + p.Limit - 1) / p.Limit,
		},
	}
}
