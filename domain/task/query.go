package task

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 50
)

// Filter narrows a task listing. Nil fields are not applied.
type Filter struct {
	Status   *Status   `json:"status,omitempty"`
	Priority *Priority `json:"priority,omitempty"`
	IsActive *bool     `json:"isActive,omitempty"`
	Search   string    `json:"search,omitempty"`
}

// Pagination selects one page of a listing.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Normalize replaces out-of-range values with safe ones.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	switch {
	case p.Limit < 1:
		p.Limit = DefaultLimit
	case p.Limit > MaxLimit:
		p.Limit = MaxLimit
	}
	return p
}

// Offset returns the number of rows to skip.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// PageMeta summarizes a page of results.
type PageMeta struct {
	CurrentPage     int   `json:"currentPage"`
	ItemsPerPage    int   `json:"itemsPerPage"`
	TotalItems      int64 `json:"totalItems"`
	TotalPages      int   `json:"totalPages"`
	HasNextPage     bool  `json:"hasNextPage"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
}

// NewPageMeta derives page metadata from the requested page and the total match count.
func NewPageMeta(p Pagination, totalItems int64) PageMeta {
	totalPages := 0
	if p.Limit > 0 {
		totalPages = int((totalItems + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return PageMeta{
		CurrentPage:     p.Page,
		ItemsPerPage:    p.Limit,
		TotalItems:      totalItems,
		TotalPages:      totalPages,
		HasNextPage:     p.Page < totalPages,
		HasPreviousPage: p.Page > 1,
	}
}

// Page is one page of tasks with its metadata.
type Page struct {
	Data []Task   `json:"data"`
	Meta PageMeta `json:"meta"`
}
