package utils

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

// PaginationParams represents pagination parameters
type PaginationParams struct {
	Page     int
	PageSize int
	Offset   int
}

// NormalizePagination clamps page and pageSize the same way the matching
// service does, so a request never asks for a page the backend would rewrite.
func NormalizePagination(page, pageSize int) PaginationParams {
	if page < 1 {
		page = 1
	}

	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	return PaginationParams{
		Page:     page,
		PageSize: pageSize,
		Offset:   (page - 1) * pageSize,
	}
}
