package filter

const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// Page is one slice of a filtered result
type Page[T any] struct {
	Items      []T
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// Paginate returns the requested 1-based page. Out of range pages are empty.
func Paginate[T any](records []T, page, pageSize int) Page[T] {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	total := len(records)
	totalPages := (total + pageSize - 1) / pageSize

	// Compare page counts first so huge pages cannot overflow the offset
	start := total
	if page-1 <= total/pageSize {
		start = (page - 1) * pageSize
		if start > total {
			start = total
		}
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return Page[T]{
		Items:      records[start:end],
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
