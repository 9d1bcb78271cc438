// Package pagination turns the API's assorted list responses into one
// envelope shape.
//
// The server answers list calls as a bare array, as {data:{items,pagination}},
// as {data:[...]} or as {items:[...]}, with pagination in a body block, in
// headers, or nowhere. Callers always get a complete Meta.
package pagination

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	// MaxLimit caps page sizes requested from the console.
	MaxLimit = 100
)

type Request struct {
	Page    int
	Limit   int
	Search  string
	Filters map[string]string
}

// Normalize applies the defaults page=1, limit=10.
func (r Request) Normalize() Request {
	if r.Page < 1 {
		r.Page = DefaultPage
	}
	if r.Limit < 1 {
		r.Limit = DefaultLimit
	}
	if r.Limit > MaxLimit {
		r.Limit = MaxLimit
	}
	r.Search = strings.TrimSpace(r.Search)
	return r
}

// Query renders r as API query parameters.
func (r Request) Query() url.Values {
	r = r.Normalize()
	q := url.Values{}
	q.Set("page", strconv.Itoa(r.Page))
	q.Set("limit", strconv.Itoa(r.Limit))
	if r.Search != "" {
		q.Set("search", r.Search)
	}
	for k, v := range r.Filters {
		if k == "" || v == "" {
			continue
		}
		q.Set(k, v)
	}
	return q
}

// FromQuery reads page, limit and search from console query parameters.
// Any other non-empty parameter named in filters is carried as a filter.
func FromQuery(q url.Values, filters ...string) Request {
	r := Request{Search: q.Get("search")}
	r.Page, _ = strconv.Atoi(q.Get("page"))
	r.Limit, _ = strconv.Atoi(q.Get("limit"))
	for _, f := range filters {
		if v := strings.TrimSpace(q.Get(f)); v != "" {
			if r.Filters == nil {
				r.Filters = map[string]string{}
			}
			r.Filters[f] = v
		}
	}
	return r.Normalize()
}

// Meta is always fully populated.
type Meta struct {
	CurrentPage  int  `json:"currentPage"`
	ItemsPerPage int  `json:"itemsPerPage"`
	TotalItems   int  `json:"totalItems"`
	TotalPages   int  `json:"totalPages"`
	HasNextPage  bool `json:"hasNextPage"`
	HasPrevPage  bool `json:"hasPrevPage"`
}

type Envelope[T any] struct {
	Items      []T  `json:"items"`
	Pagination Meta `json:"pagination"`
}

// Single wraps one page holding items.
func Single[T any](items []T, req Request) Envelope[T] {
	if items == nil {
		items = []T{}
	}
	return Envelope[T]{Items: items, Pagination: fromCount(len(items), req.Normalize())}
}

func totalPages(total, perPage int) int {
	if perPage <= 0 {
		return 1
	}
	n := (total + perPage - 1) / perPage
	if n < 1 {
		n = 1
	}
	return n
}
