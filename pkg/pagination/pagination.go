package pagination

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/reactit/kycdesk/pkg/query"
)

// SortFields decodes from either "name,-createdAt" or a JSON array of
// SortField objects.
type SortFields []query.SortField

func (s *SortFields) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = query.ParseSortFields(str)
		return nil
	}

	var fields []query.SortField
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*s = fields
	return nil
}

// PageRequest is one window of a list query.
type PageRequest struct {
	Page     int        `json:"page"`
	PageSize int        `json:"pageSize"`
	Search   *string    `json:"search,omitempty"`
	Sort     SortFields `json:"sort,omitempty"`
}

// Normalize forces Page >= 1 and PageSize into [1, MaxPageSize].
func (r *PageRequest) Normalize(cfg Config) {
	r.Page = max(r.Page, 1)
	if r.PageSize < 1 {
		r.PageSize = cfg.DefaultPageSize
	}
	r.PageSize = min(r.PageSize, cfg.MaxPageSize)
}

// Offset is the number of rows before the first row of the page.
func (r *PageRequest) Offset() int {
	return (r.Page - 1) * r.PageSize
}

// PageRequestFromQuery reads page, page_size (alias size), search (alias q)
// and sort. Grids that ask by row range send _start/_end and _sort/_order
// instead; the range is turned into the page holding _start.
func PageRequestFromQuery(values url.Values, cfg Config) PageRequest {
	req := PageRequest{
		Page:     atoi(values.Get("page")),
		PageSize: atoi(firstOf(values, "page_size", "size")),
		Sort:     query.ParseSortFields(values.Get("sort")),
	}

	if s := firstOf(values, "search", "q"); s != "" {
		req.Search = &s
	}

	if values.Has("_end") {
		start := max(atoi(values.Get("_start")), 0)
		if size := atoi(values.Get("_end")) - start; size > 0 {
			req.PageSize = size
			req.Page = start/size + 1
		}
	}

	if len(req.Sort) == 0 {
		if field := values.Get("_sort"); field != "" {
			desc := strings.EqualFold(values.Get("_order"), "desc")
			req.Sort = SortFields{{Field: field, Descending: desc}}
		}
	}

	req.Normalize(cfg)
	return req
}

// PageResult is a page of rows plus the totals a grid needs.
type PageResult[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// NewPageResult never reports fewer than one page or a nil Data slice.
func NewPageResult[T any](data []T, total, page, pageSize int) PageResult[T] {
	pages := 1
	if pageSize > 0 && total > 0 {
		pages = (total + pageSize - 1) / pageSize
	}

	if data == nil {
		data = []T{}
	}

	return PageResult[T]{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: pages,
	}
}

func firstOf(values url.Values, keys ...string) string {
	for _, k := range keys {
		if v := values.Get(k); v != "" {
			return v
		}
	}
	return ""
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
