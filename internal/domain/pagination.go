package domain

// Pagination defaults shared by all search operations.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// NormalizePage clamps page/pageSize to sane values.
func NormalizePage(page, pageSize int32) (int32, int32) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// TotalPages computes the page count for a result set.
func TotalPages(totalItems int64, pageSize int32) int32 {
	pages := int32(totalItems / int64(pageSize))
	if totalItems%int64(pageSize) > 0 {
		pages++
	}
	return pages
}
