package resources

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"garansi-console/internal/apiclient"
	"garansi-console/internal/pagination"
	"garansi-console/internal/rbac"
	"garansi-console/pkg/logger"
	"garansi-console/pkg/validate"
)

type fixedSubject rbac.Subject

func (f fixedSubject) Subject() rbac.Subject { return rbac.Subject(f) }

func as(role rbac.Role) fixedSubject {
	return fixedSubject{Authenticated: true, Role: role}
}

type apiFixture struct {
	api   *apiclient.Client
	calls atomic.Int32
	last  atomic.Value // *http.Request
}

func newAPI(t *testing.T, h http.HandlerFunc) *apiFixture {
	t.Helper()
	f := &apiFixture{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		f.last.Store(r.Clone(context.Background()))
		w.Header().Set("Content-Type", "application/json")
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	f.api = apiclient.New(apiclient.Config{BaseURL: srv.URL}, nil, nil, logger.Discard())
	return f
}

func (f *apiFixture) lastRequest() *http.Request {
	r, _ := f.last.Load().(*http.Request)
	return r
}

func TestPrefix(t *testing.T) {
	want := map[rbac.Role]string{
		rbac.RoleManager:       "/api/managers",
		rbac.RoleSupervisor:    "/api/supervisors",
		rbac.RoleSales:         "/api/sales",
		rbac.RoleServiceCenter: "/api/service-centers",
	}
	for role, p := range want {
		got, err := Prefix(role)
		if err != nil || got != p {
			t.Fatalf("%s: %q %v", role, got, err)
		}
	}
	if _, err := Prefix("GUEST"); !errors.Is(err, ErrNotPermitted) {
		t.Fatalf("expected ErrNotPermitted, got %v", err)
	}
}

func TestProducts_ListNormalizesRecords(t *testing.T) {
	f := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"items":[
			{"id":1,"productName":"Kulkas 2 Pintu","code":"KL-2","category":{"name":"Elektronik"},"price":"3500000","warranty_months":24,"isActive":true},
			{"_id":"p-2","name":"TV 43","status":"inactive"},
			{"id":3,"name":"AC","status":"pending"}
		],"pagination":{"current_page":1,"per_page":10,"total_items":3,"total_pages":1}}}`))
	})

	env, err := NewProducts(f.api, as(rbac.RoleSales)).List(context.Background(), pagination.Request{Search: "tv"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	r := f.lastRequest()
	if r.URL.Path != "/api/sales/products" {
		t.Fatalf("path: %s", r.URL.Path)
	}
	if q := r.URL.Query(); q.Get("page") != "1" || q.Get("limit") != "10" || q.Get("search") != "tv" {
		t.Fatalf("query: %v", q)
	}
	if len(env.Items) != 3 {
		t.Fatalf("items: %d", len(env.Items))
	}
	p := env.Items[0]
	if p.ID != "1" || p.Name != "Kulkas 2 Pintu" || p.SKU != "KL-2" || p.Category != "Elektronik" || p.Price != 3500000 || p.WarrantyMonths != 24 || p.Status != StatusActive {
		t.Fatalf("product 0: %+v", p)
	}
	if env.Items[1].ID != "p-2" || env.Items[1].Status != StatusInactive {
		t.Fatalf("product 1: %+v", env.Items[1])
	}
	if env.Items[2].Status != StatusUnknown {
		t.Fatalf("product 2 status: %v", env.Items[2].Status)
	}
	if env.Pagination.TotalItems != 3 || env.Pagination.TotalPages != 1 {
		t.Fatalf("pagination: %+v", env.Pagination)
	}
}

func TestList_BareArraySynthesizesPagination(t *testing.T) {
	f := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1},{"id":2},{"id":3},{"id":4},{"id":5},{"id":6},{"id":7}]`))
	})
	env, err := NewStores(f.api, as(rbac.RoleManager)).List(context.Background(), pagination.Request{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := pagination.Meta{CurrentPage: 1, ItemsPerPage: 10, TotalItems: 7, TotalPages: 1}
	if env.Pagination != want {
		t.Fatalf("pagination: %+v", env.Pagination)
	}
}

func TestPermissionCheckedBeforeNetwork(t *testing.T) {
	f := newAPI(t, func(w http.ResponseWriter, r *http.Request) {})
	ctx := context.Background()

	if _, err := NewProducts(f.api, as(rbac.RoleSales)).Create(ctx, ProductInput{Name: "X"}); !errors.Is(err, ErrNotPermitted) {
		t.Fatalf("create as sales: %v", err)
	}
	if _, err := NewSupervisors(f.api, as(rbac.RoleSupervisor)).List(ctx, pagination.Request{}); !errors.Is(err, ErrNotPermitted) {
		t.Fatalf("list supervisors as supervisor: %v", err)
	}
	if err := NewCustomers(f.api, as(rbac.RoleManager)).Delete(ctx, "9"); !errors.Is(err, ErrNotPermitted) {
		t.Fatalf("delete customer as manager: %v", err)
	}
	if _, err := NewStores(f.api, fixedSubject{}).List(ctx, pagination.Request{}); !errors.Is(err, ErrNoSession) {
		t.Fatalf("signed out: %v", err)
	}
	if n := f.calls.Load(); n != 0 {
		t.Fatalf("expected no requests, got %d", n)
	}
}

func TestCreate_ValidatesBeforeNetwork(t *testing.T) {
	f := newAPI(t, func(w http.ResponseWriter, r *http.Request) {})
	_, err := NewSales(f.api, as(rbac.RoleSupervisor)).Create(context.Background(), SalesInput{Name: "Budi", Phone: "abc"})
	if !errors.Is(err, validate.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if f.calls.Load() != 0 {
		t.Fatalf("expected no request")
	}
}

func TestCreateAndUpdate(t *testing.T) {
	var body map[string]any
	f := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"message":"created","data":{"id":10,"name":"Budi","phone_number":"0812345678","store":{"id":3,"name":"Toko Jaya"},"is_active":1}}`))
			return
		}
		_, _ = w.Write([]byte(`{"message":"updated"}`))
	})
	sales := NewSales(f.api, as(rbac.RoleSupervisor))

	sp, err := sales.Create(context.Background(), SalesInput{Name: "Budi", Phone: "0812345678", StoreID: "3"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if f.lastRequest().URL.Path != "/api/supervisors/sales" || body["storeId"] != "3" {
		t.Fatalf("request: %s %v", f.lastRequest().URL.Path, body)
	}
	if sp.ID != "10" || sp.Phone != "0812345678" || sp.StoreID != "3" || sp.StoreName != "Toko Jaya" || sp.Status != StatusActive {
		t.Fatalf("sales person: %+v", sp)
	}

	updated, err := sales.Update(context.Background(), "10", SalesInput{Name: "Budi S", Phone: "0812345678", StoreID: "3"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if f.lastRequest().Method != http.MethodPut || f.lastRequest().URL.Path != "/api/supervisors/sales/10" {
		t.Fatalf("update request: %s %s", f.lastRequest().Method, f.lastRequest().URL.Path)
	}
	if updated.ID != "" {
		t.Fatalf("expected zero record when none echoed, got %+v", updated)
	}
}

func TestGet_NotFound(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"404": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Store not found"}`))
		},
		"null data": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"data":null}`))
		},
		"empty list": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"data":[]}`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			f := newAPI(t, h)
			_, err := NewStores(f.api, as(rbac.RoleManager)).Get(context.Background(), "5")
			if !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestGet_Found(t *testing.T) {
	f := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"id":"5","storeName":"Toko Maju","supervisor":{"id":2,"fullName":"Sari"},"status":true}}`))
	})
	s, err := NewStores(f.api, as(rbac.RoleSupervisor)).Get(context.Background(), "5")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if f.lastRequest().URL.Path != "/api/supervisors/stores/5" {
		t.Fatalf("path: %s", f.lastRequest().URL.Path)
	}
	if s.Name != "Toko Maju" || s.SupervisorID != "2" || s.Supervisor != "Sari" || s.Status != StatusActive {
		t.Fatalf("store: %+v", s)
	}
}

func TestGet_BareObjectWithAliasedID(t *testing.T) {
	for _, body := range []string{
		`{"_id":"5","storeName":"Toko Maju"}`,
		`{"uuid":"5","storeName":"Toko Maju"}`,
		`{"ID":5,"storeName":"Toko Maju"}`,
	} {
		f := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})
		s, err := NewStores(f.api, as(rbac.RoleManager)).Get(context.Background(), "5")
		if err != nil {
			t.Fatalf("%s: get: %v", body, err)
		}
		if s.ID != "5" || s.Name != "Toko Maju" {
			t.Fatalf("%s: store %+v", body, s)
		}
	}
}

func TestList_NullBodyIsEmpty(t *testing.T) {
	f := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	})
	env, err := NewProducts(f.api, as(rbac.RoleSales)).List(context.Background(), pagination.Request{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if env.Items == nil || len(env.Items) != 0 || env.Pagination.TotalPages != 1 {
		t.Fatalf("env: %+v", env)
	}
}

func TestDelete(t *testing.T) {
	f := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if err := NewProducts(f.api, as(rbac.RoleManager)).Delete(context.Background(), "7"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if r := f.lastRequest(); r.Method != http.MethodDelete || r.URL.Path != "/api/managers/products/7" {
		t.Fatalf("request: %s %s", r.Method, r.URL.Path)
	}
	if err := NewProducts(f.api, as(rbac.RoleManager)).Delete(context.Background(), " "); !errors.Is(err, ErrMissingID) {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}
}

func TestCustomers_FindByPhone(t *testing.T) {
	f := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[
			{"id":1,"customer_name":"Ani","customer_phone":"081299990000","product":{"id":4,"name":"Kulkas"},"warranty":{"status":"active","end_date":"2027-01-31"}},
			{"id":2,"name":"Ani B","phone":"081299990001"}
		]}`))
	})
	customers := NewCustomers(f.api, as(rbac.RoleServiceCenter))

	c, err := customers.FindByPhone(context.Background(), "+62 812-9999-0000")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if f.lastRequest().URL.Path != "/api/service-centers/customers" {
		t.Fatalf("path: %s", f.lastRequest().URL.Path)
	}
	if c.ID != "1" || c.Name != "Ani" || c.ProductID != "4" || c.ProductName != "Kulkas" || c.Status != StatusActive {
		t.Fatalf("customer: %+v", c)
	}
	if c.WarrantyExpiresAt == nil || c.WarrantyExpiresAt.Format("2006-01-02") != "2027-01-31" {
		t.Fatalf("warranty expiry: %v", c.WarrantyExpiresAt)
	}

	if _, err := customers.FindByPhone(context.Background(), "0800000000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStatusParsing(t *testing.T) {
	cases := map[string]Status{
		`true`: StatusActive, `false`: StatusInactive, `"ACTIVE"`: StatusActive,
		`"nonaktif"`: StatusInactive, `1`: StatusActive, `0`: StatusInactive,
		`null`: StatusUnknown, `"archived"`: StatusUnknown,
	}
	for raw, want := range cases {
		var s Status
		if err := json.Unmarshal([]byte(raw), &s); err != nil || s != want {
			t.Fatalf("%s: got %v want %v (%v)", raw, s, want, err)
		}
	}
}

func TestLiveSearch_LastQueryWins(t *testing.T) {
	var calls atomic.Int32
	list := func(ctx context.Context, req pagination.Request) (pagination.Envelope[string], error) {
		calls.Add(1)
		return pagination.Single([]string{req.Search}, req), nil
	}
	ls := NewLiveSearch[string](list, 40*time.Millisecond)
	defer ls.Stop()

	type result struct {
		env pagination.Envelope[string]
		err error
	}
	first := make(chan result, 1)
	go func() {
		env, err := ls.Search(context.Background(), pagination.Request{Search: "ku"})
		first <- result{env, err}
	}()
	time.Sleep(10 * time.Millisecond)
	env, err := ls.Search(context.Background(), pagination.Request{Search: "kulkas"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(env.Items) != 1 || env.Items[0] != "kulkas" {
		t.Fatalf("items: %v", env.Items)
	}

	select {
	case r := <-first:
		if !errors.Is(r.err, ErrSuperseded) {
			t.Fatalf("expected first query superseded, got %v", r.err)
		}
	case <-time.After(time.Second):
		t.Fatalf("first caller never returned")
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected one list call, got %d", n)
	}
}
