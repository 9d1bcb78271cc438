package pagination

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
)

func TestExtract_NoMetadataSynthesizesSinglePage(t *testing.T) {
	body := []byte(`[{"id":1},{"id":2},{"id":3},{"id":4},{"id":5},{"id":6},{"id":7}]`)
	raw, meta, err := Extract(body, nil, Request{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if raw.Shape != ShapeArray || len(raw.Items) != 7 {
		t.Fatalf("raw: %v %d", raw.Shape, len(raw.Items))
	}
	want := Meta{CurrentPage: 1, ItemsPerPage: 10, TotalItems: 7, TotalPages: 1, HasNextPage: false, HasPrevPage: false}
	if meta != want {
		t.Fatalf("meta: got %+v want %+v", meta, want)
	}
}

func TestExtract_Shapes(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		shape Shape
		n     int
	}{
		{"bare array", `[{"id":1}]`, ShapeArray, 1},
		{"data items", `{"data":{"items":[{"id":1},{"id":2}]}}`, ShapeDataItems, 2},
		{"data array", `{"success":true,"data":[{"id":1}]}`, ShapeDataArray, 1},
		{"items", `{"items":[{"id":1},{"id":2},{"id":3}]}`, ShapeItems, 3},
		{"unknown object", `{"message":"ok"}`, ShapeUnknown, 0},
		{"empty body", ``, ShapeUnknown, 0},
		{"null body", `null`, ShapeUnknown, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw, meta, err := Extract([]byte(tc.body), nil, Request{})
			if err != nil {
				t.Fatalf("extract: %v", err)
			}
			if raw.Shape != tc.shape || len(raw.Items) != tc.n {
				t.Fatalf("got %v/%d want %v/%d", raw.Shape, len(raw.Items), tc.shape, tc.n)
			}
			if meta.CurrentPage != 1 || meta.ItemsPerPage != 10 || meta.TotalPages < 1 {
				t.Fatalf("incomplete meta: %+v", meta)
			}
		})
	}
}

func TestExtract_MalformedJSON(t *testing.T) {
	if _, _, err := Extract([]byte(`{"data":`), nil, Request{}); err == nil {
		t.Fatalf("expected error")
	}
	if _, _, err := Extract([]byte(`<html>`), nil, Request{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestExtract_ServerBlockCamelCase(t *testing.T) {
	body := []byte(`{"data":{"items":[{"id":1}],"pagination":{"currentPage":2,"itemsPerPage":1,"totalItems":5,"totalPages":5,"hasNextPage":true,"hasPrevPage":true}}}`)
	_, meta, err := Extract(body, nil, Request{Page: 2, Limit: 1})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	want := Meta{CurrentPage: 2, ItemsPerPage: 1, TotalItems: 5, TotalPages: 5, HasNextPage: true, HasPrevPage: true}
	if meta != want {
		t.Fatalf("meta: %+v", meta)
	}
}

func TestExtract_ServerBlockSnakeCasePartial(t *testing.T) {
	body := []byte(`{"data":[{"id":1},{"id":2}],"meta":{"current_page":"3","per_page":2,"total":9}}`)
	_, meta, err := Extract(body, nil, Request{})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	want := Meta{CurrentPage: 3, ItemsPerPage: 2, TotalItems: 9, TotalPages: 5, HasNextPage: true, HasPrevPage: true}
	if meta != want {
		t.Fatalf("meta: got %+v want %+v", meta, want)
	}
}

func TestExtract_BlockWinsOverHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("X-Total-Count", "100")
	body := []byte(`{"items":[],"pagination":{"totalItems":0}}`)
	_, meta, _ := Extract(body, h, Request{})
	if meta.TotalItems != 0 || meta.TotalPages != 1 {
		t.Fatalf("meta: %+v", meta)
	}
}

func TestExtract_Headers(t *testing.T) {
	h := http.Header{}
	h.Set("x-page", "2")
	h.Set("x-per-page", "10")
	h.Set("x-total-count", "25")
	_, meta, err := Extract([]byte(`[{"id":11}]`), h, Request{Page: 2})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	want := Meta{CurrentPage: 2, ItemsPerPage: 10, TotalItems: 25, TotalPages: 3, HasNextPage: true, HasPrevPage: true}
	if meta != want {
		t.Fatalf("meta: got %+v want %+v", meta, want)
	}

	zero := http.Header{}
	zero.Set("x-total-count", "0")
	_, meta, _ = Extract([]byte(`[]`), zero, Request{})
	if meta.TotalPages != 1 || meta.HasNextPage {
		t.Fatalf("empty total: %+v", meta)
	}
}

func TestExtract_CountFallbackLaterPage(t *testing.T) {
	cases := []struct {
		body string
		want Meta
	}{
		{`[{"id":1}]`, Meta{CurrentPage: 3, ItemsPerPage: 5, TotalItems: 11, TotalPages: 3, HasNextPage: false, HasPrevPage: true}},
		{`[{"id":1},{"id":2}]`, Meta{CurrentPage: 3, ItemsPerPage: 5, TotalItems: 12, TotalPages: 3, HasNextPage: false, HasPrevPage: true}},
		{`[]`, Meta{CurrentPage: 3, ItemsPerPage: 5, TotalItems: 10, TotalPages: 3, HasNextPage: false, HasPrevPage: true}},
	}
	for _, tc := range cases {
		_, meta, err := Extract([]byte(tc.body), nil, Request{Page: 3, Limit: 5})
		if err != nil {
			t.Fatalf("extract %s: %v", tc.body, err)
		}
		if meta != tc.want {
			t.Fatalf("%s: got %+v want %+v", tc.body, meta, tc.want)
		}
		if meta.TotalPages < 1 || meta.TotalItems < 0 || (meta.TotalItems+meta.ItemsPerPage-1)/meta.ItemsPerPage > meta.TotalPages {
			t.Fatalf("%s: inconsistent meta %+v", tc.body, meta)
		}
	}
}

func TestDecode_MapsItems(t *testing.T) {
	type rec struct {
		ID int `json:"id"`
	}
	env, err := Decode([]byte(`{"data":{"items":[{"id":4},{"id":5}]}}`), nil, Request{}, func(raw json.RawMessage) (rec, error) {
		var r rec
		err := json.Unmarshal(raw, &r)
		return r, err
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(env.Items) != 2 || env.Items[1].ID != 5 || env.Pagination.TotalItems != 2 {
		t.Fatalf("env: %+v", env)
	}

	_, err = Decode([]byte(`[{"id":"x"}]`), nil, Request{}, func(raw json.RawMessage) (rec, error) {
		var r rec
		err := json.Unmarshal(raw, &r)
		return r, err
	})
	if err == nil {
		t.Fatalf("expected mapping error")
	}
}

func TestRequest_QueryAndFromQuery(t *testing.T) {
	q := Request{Search: "  kulkas ", Filters: map[string]string{"status": "ACTIVE", "empty": ""}}.Query()
	if q.Get("page") != "1" || q.Get("limit") != "10" || q.Get("search") != "kulkas" || q.Get("status") != "ACTIVE" {
		t.Fatalf("query: %v", q)
	}
	if q.Has("empty") {
		t.Fatalf("empty filter should be dropped")
	}

	r := FromQuery(url.Values{"page": {"0"}, "limit": {"500"}, "search": {"tv"}, "storeId": {"7"}, "other": {"x"}}, "storeId")
	if r.Page != 1 || r.Limit != MaxLimit || r.Search != "tv" || r.Filters["storeId"] != "7" || len(r.Filters) != 1 {
		t.Fatalf("request: %+v", r)
	}
}

func TestSingle(t *testing.T) {
	env := Single[int](nil, Request{})
	if env.Items == nil || env.Pagination.TotalPages != 1 {
		t.Fatalf("env: %+v", env)
	}
}
