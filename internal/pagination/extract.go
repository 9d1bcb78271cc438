package pagination

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Shape names where a response keeps its list.
type Shape int

const (
	ShapeUnknown   Shape = iota
	ShapeArray           // [...]
	ShapeDataItems       // {data:{items:[...], pagination}}
	ShapeDataArray       // {data:[...], pagination|meta}
	ShapeItems           // {items:[...], pagination|meta}
)

func (s Shape) String() string {
	switch s {
	case ShapeArray:
		return "array"
	case ShapeDataItems:
		return "data.items"
	case ShapeDataArray:
		return "data"
	case ShapeItems:
		return "items"
	default:
		return "unknown"
	}
}

// Raw is a sniffed response: its list and whatever pagination block sat
// next to it.
type Raw struct {
	Shape Shape
	Items []json.RawMessage
	Block json.RawMessage
}

// Sniff locates the list in body. Unknown object shapes give an empty list;
// only malformed JSON is an error.
func Sniff(body []byte) (Raw, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return Raw{}, nil
	}
	switch body[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(body, &items); err != nil {
			return Raw{}, fmt.Errorf("pagination: decode list: %w", err)
		}
		return Raw{Shape: ShapeArray, Items: items}, nil
	case '{':
	default:
		return Raw{}, fmt.Errorf("pagination: unexpected response body")
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return Raw{}, fmt.Errorf("pagination: decode object: %w", err)
	}
	block := firstBlock(top)

	if data, ok := top["data"]; ok {
		data = bytes.TrimSpace(data)
		switch {
		case len(data) > 0 && data[0] == '[':
			var items []json.RawMessage
			if err := json.Unmarshal(data, &items); err != nil {
				return Raw{}, fmt.Errorf("pagination: decode data: %w", err)
			}
			return Raw{Shape: ShapeDataArray, Items: items, Block: block}, nil
		case len(data) > 0 && data[0] == '{':
			var inner map[string]json.RawMessage
			if err := json.Unmarshal(data, &inner); err != nil {
				return Raw{}, fmt.Errorf("pagination: decode data: %w", err)
			}
			if items, ok := list(inner["items"]); ok {
				if b := firstBlock(inner); b != nil {
					block = b
				}
				return Raw{Shape: ShapeDataItems, Items: items, Block: block}, nil
			}
		}
	}
	if items, ok := list(top["items"]); ok {
		return Raw{Shape: ShapeItems, Items: items, Block: block}, nil
	}
	return Raw{Shape: ShapeUnknown, Block: block}, nil
}

func list(raw json.RawMessage) ([]json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return nil, false
	}
	return items, true
}

func firstBlock(obj map[string]json.RawMessage) json.RawMessage {
	for _, k := range []string{"pagination", "meta"} {
		if raw, ok := obj[k]; ok {
			raw = bytes.TrimSpace(raw)
			if len(raw) > 0 && raw[0] == '{' {
				return raw
			}
		}
	}
	return nil
}

// Extract sniffs body and computes Meta from, in order of preference, the
// server's pagination block, the x-page/x-per-page/x-total-count headers, or
// the item count.
func Extract(body []byte, header http.Header, req Request) (Raw, Meta, error) {
	req = req.Normalize()
	raw, err := Sniff(body)
	if err != nil {
		return Raw{}, Meta{}, err
	}
	if m, ok := fromBlock(raw.Block, len(raw.Items), req); ok {
		return raw, m, nil
	}
	if m, ok := fromHeaders(header, req); ok {
		return raw, m, nil
	}
	return raw, fromCount(len(raw.Items), req), nil
}

// Decode extracts the list in body and maps each item with fn.
func Decode[T any](body []byte, header http.Header, req Request, fn func(json.RawMessage) (T, error)) (Envelope[T], error) {
	raw, meta, err := Extract(body, header, req)
	if err != nil {
		return Envelope[T]{}, err
	}
	items := make([]T, 0, len(raw.Items))
	for i, it := range raw.Items {
		v, err := fn(it)
		if err != nil {
			return Envelope[T]{}, fmt.Errorf("pagination: item %d: %w", i, err)
		}
		items = append(items, v)
	}
	return Envelope[T]{Items: items, Pagination: meta}, nil
}

var blockKeys = struct {
	page, perPage, total, pages, next, prev []string
}{
	page:    []string{"currentPage", "current_page", "page"},
	perPage: []string{"itemsPerPage", "items_per_page", "perPage", "per_page", "limit", "pageSize", "page_size"},
	total:   []string{"totalItems", "total_items", "total", "totalCount", "total_count", "count"},
	pages:   []string{"totalPages", "total_pages", "lastPage", "last_page", "pages"},
	next:    []string{"hasNextPage", "has_next_page", "hasNext", "has_next"},
	prev:    []string{"hasPrevPage", "has_prev_page", "hasPrev", "has_prev", "hasPreviousPage"},
}

// fromBlock fills gaps in a partial server block from the request and the
// item count.
func fromBlock(block json.RawMessage, count int, req Request) (Meta, bool) {
	if len(block) == 0 {
		return Meta{}, false
	}
	var obj map[string]json.RawMessage
	if json.Unmarshal(block, &obj) != nil {
		return Meta{}, false
	}

	page, okPage := intField(obj, blockKeys.page)
	perPage, okPer := intField(obj, blockKeys.perPage)
	total, okTotal := intField(obj, blockKeys.total)
	pages, okPages := intField(obj, blockKeys.pages)
	next, okNext := boolField(obj, blockKeys.next)
	prev, okPrev := boolField(obj, blockKeys.prev)
	if !okPage && !okPer && !okTotal && !okPages && !okNext && !okPrev {
		return Meta{}, false
	}

	if !okPage || page < 1 {
		page = req.Page
	}
	if !okPer || perPage < 1 {
		perPage = req.Limit
	}
	if !okTotal || total < 0 {
		total = (page-1)*perPage + count
	}
	if !okPages || pages < 1 {
		pages = totalPages(total, perPage)
	}
	if !okNext {
		next = page < pages
	}
	if !okPrev {
		prev = page > 1
	}
	return Meta{
		CurrentPage:  page,
		ItemsPerPage: perPage,
		TotalItems:   total,
		TotalPages:   pages,
		HasNextPage:  next,
		HasPrevPage:  prev,
	}, true
}

func fromHeaders(h http.Header, req Request) (Meta, bool) {
	if h == nil {
		return Meta{}, false
	}
	total, ok := headerInt(h, "x-total-count")
	if !ok {
		return Meta{}, false
	}
	page, ok := headerInt(h, "x-page")
	if !ok || page < 1 {
		page = req.Page
	}
	perPage, ok := headerInt(h, "x-per-page")
	if !ok || perPage < 1 {
		perPage = req.Limit
	}
	pages := totalPages(total, perPage)
	return Meta{
		CurrentPage:  page,
		ItemsPerPage: perPage,
		TotalItems:   total,
		TotalPages:   pages,
		HasNextPage:  page < pages,
		HasPrevPage:  page > 1,
	}, true
}

// fromCount synthesizes meta when the server says nothing. The page is
// assumed to be the last one, so earlier pages count as full.
func fromCount(count int, req Request) Meta {
	total := (req.Page-1)*req.Limit + count
	pages := totalPages(total, req.Limit)
	if pages < req.Page {
		pages = req.Page
	}
	return Meta{
		CurrentPage:  req.Page,
		ItemsPerPage: req.Limit,
		TotalItems:   total,
		TotalPages:   pages,
		HasNextPage:  false,
		HasPrevPage:  req.Page > 1,
	}
}

func headerInt(h http.Header, key string) (int, bool) {
	v := strings.TrimSpace(h.Get(key))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func intField(obj map[string]json.RawMessage, keys []string) (int, bool) {
	for _, k := range keys {
		raw, ok := obj[k]
		if !ok {
			continue
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			if i, err := strconv.Atoi(n.String()); err == nil {
				return i, true
			}
			if f, err := n.Float64(); err == nil {
				return int(f), true
			}
		}
		var s string
		if json.Unmarshal(raw, &s) == nil {
			if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
				return i, true
			}
		}
	}
	return 0, false
}

func boolField(obj map[string]json.RawMessage, keys []string) (bool, bool) {
	for _, k := range keys {
		raw, ok := obj[k]
		if !ok {
			continue
		}
		var b bool
		if json.Unmarshal(raw, &b) == nil {
			return b, true
		}
		var s string
		if json.Unmarshal(raw, &s) == nil {
			if v, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
				return v, true
			}
		}
	}
	return false, false
}
