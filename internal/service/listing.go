package service

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/straye-as/erp-desk/internal/domain"
	"github.com/straye-as/erp-desk/internal/filter"
)

// wantsRefresh reports whether the query asks to bypass the snapshot
func wantsRefresh(q url.Values) bool {
	v, err := strconv.ParseBool(q.Get("refresh"))
	return err == nil && v
}

// parsePaging reads page and pageSize. Missing values use the defaults.
func parsePaging(q url.Values) (int, int, error) {
	verr := &domain.ValidationError{}
	page, pageSize := 1, filter.DefaultPageSize

	if v := strings.TrimSpace(q.Get("page")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			verr.Add("page", "Must be a positive integer")
		} else {
			page = n
		}
	}
	if v := strings.TrimSpace(q.Get("pageSize")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			verr.Add("pageSize", "Must be a positive integer")
		} else {
			pageSize = n
		}
	}
	if verr.HasErrors() {
		return 0, 0, verr
	}
	return page, pageSize, nil
}

// filterRecords applies the query's filter state to records
func filterRecords[T any](records []T, schema filter.Schema[T], q url.Values) ([]T, filter.State, error) {
	state, err := filter.ParseQuery(schema, q)
	if err != nil {
		return nil, filter.State{}, err
	}
	filtered, err := filter.Apply(records, schema, state)
	if err != nil {
		return nil, filter.State{}, err
	}
	return filtered, state, nil
}

// buildList filters, counts and pages records. Counts cover the whole
// collection; tab counts honor every filter except the tab itself.
func buildList[T any](records []T, schema filter.Schema[T], q url.Values, counts domain.StatusCounts) (*domain.ListResponse, error) {
	page, pageSize, err := parsePaging(q)
	if err != nil {
		return nil, err
	}
	filtered, state, err := filterRecords(records, schema, q)
	if err != nil {
		return nil, err
	}
	tabs, err := filter.TabCounts(records, schema, state)
	if err != nil {
		return nil, err
	}

	p := filter.Paginate(filtered, page, pageSize)
	items := p.Items
	if items == nil {
		items = []T{}
	}
	return &domain.ListResponse{
		PaginatedResponse: domain.PaginatedResponse{
			Data:       items,
			Total:      int64(p.Total),
			Page:       p.Page,
			PageSize:   p.PageSize,
			TotalPages: p.TotalPages,
		},
		Counts:    counts,
		TabCounts: tabs,
	}, nil
}
