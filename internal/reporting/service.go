// Package reporting builds the manager dashboard from the API's summary
// endpoints.
package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"garansi-console/internal/apiclient"
	"garansi-console/internal/rbac"
	"garansi-console/internal/resources"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

const (
	pathSummary = "/dashboard/summary"
	pathMonthly = "/dashboard/monthly"
)

// Fetcher is the part of the API client reporting needs.
type Fetcher interface {
	Get(ctx context.Context, path string, query url.Values) (*apiclient.Response, error)
}

type Service struct {
	api     Fetcher
	session resources.SubjectSource
	clock   func() time.Time
}

func NewService(api Fetcher, session resources.SubjectSource) *Service {
	return &Service{api: api, session: session, clock: time.Now}
}

func (s *Service) base() (string, error) {
	sub := s.session.Subject()
	if !sub.Authenticated {
		return "", resources.ErrNoSession
	}
	if !rbac.Can(sub.Role, rbac.ResourceDashboard, rbac.ActionRead) {
		return "", fmt.Errorf("%w: dashboard", resources.ErrNotPermitted)
	}
	return resources.Prefix(sub.Role)
}

func (s *Service) Summary(ctx context.Context) (Summary, error) {
	base, err := s.base()
	if err != nil {
		return Summary{}, err
	}
	resp, err := s.api.Get(ctx, base+pathSummary, nil)
	if err != nil {
		return Summary{}, err
	}
	obj, err := dataObject(resp.Body)
	if err != nil {
		return Summary{}, fmt.Errorf("reporting: summary: %w", err)
	}
	return Summary{
		TotalProducts:      count(obj, "totalProducts", "total_products", "products"),
		TotalStores:        count(obj, "totalStores", "total_stores", "stores"),
		TotalSupervisors:   count(obj, "totalSupervisors", "total_supervisors", "supervisors"),
		TotalSales:         count(obj, "totalSales", "total_sales", "sales"),
		TotalCustomers:     count(obj, "totalCustomers", "total_customers", "customers"),
		ActiveWarranties:   count(obj, "activeWarranties", "active_warranties"),
		ExpiringWarranties: count(obj, "expiringWarranties", "expiring_warranties", "expiringSoon"),
		TotalClaims:        count(obj, "totalClaims", "total_claims", "claims"),
	}, nil
}

// MonthlySummary returns year's twelve months; months the server omits are
// zero.
func (s *Service) MonthlySummary(ctx context.Context, year int) (MonthlySummary, error) {
	if year < 2000 || year > 9999 {
		return MonthlySummary{}, ErrInvalidRequest
	}
	base, err := s.base()
	if err != nil {
		return MonthlySummary{}, err
	}
	resp, err := s.api.Get(ctx, base+pathMonthly, url.Values{"year": {strconv.Itoa(year)}})
	if err != nil {
		return MonthlySummary{}, err
	}
	rows, err := dataList(resp.Body)
	if err != nil {
		return MonthlySummary{}, fmt.Errorf("reporting: monthly: %w", err)
	}

	out := MonthlySummary{Year: year, Months: make([]MonthlyPoint, 12)}
	for i := range out.Months {
		m := time.Month(i + 1)
		out.Months[i] = MonthlyPoint{Month: int(m), Label: m.String()[:3]}
	}
	for i, row := range rows {
		m := monthOf(row)
		if m == 0 && len(rows) == 12 {
			m = i + 1
		}
		if m < 1 || m > 12 {
			continue
		}
		p := &out.Months[m-1]
		p.Registrations += count(row, "registrations", "totalRegistrations", "total_registrations", "count", "total")
		p.Claims += count(row, "claims", "totalClaims", "total_claims")
	}
	return out, nil
}

// Overview fetches both panels concurrently. The calls are independent;
// either failing fails the overview.
func (s *Service) Overview(ctx context.Context, year int) (Overview, error) {
	if year == 0 {
		year = s.clock().Year()
	}
	var out Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sum, err := s.Summary(gctx)
		out.Summary = sum
		return err
	})
	g.Go(func() error {
		mon, err := s.MonthlySummary(gctx, year)
		out.Monthly = mon
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return out, nil
}

type object map[string]json.RawMessage

func dataObject(body []byte) (object, error) {
	var top object
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, err
	}
	if data, ok := top["data"]; ok {
		data = bytes.TrimSpace(data)
		if len(data) > 0 && data[0] == '{' {
			var inner object
			if err := json.Unmarshal(data, &inner); err != nil {
				return nil, err
			}
			return inner, nil
		}
	}
	return top, nil
}

func dataList(body []byte) ([]object, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '{' {
		obj, err := dataObject(body)
		if err != nil {
			return nil, err
		}
		for _, k := range []string{"months", "items", "data"} {
			if raw, ok := obj[k]; ok {
				body = bytes.TrimSpace(raw)
				break
			}
		}
	}
	var rows []object
	if len(body) == 0 || body[0] != '[' {
		return rows, nil
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func count(obj object, keys ...string) int {
	for _, k := range keys {
		raw, ok := obj[k]
		if !ok {
			continue
		}
		var n json.Number
		if json.Unmarshal(raw, &n) == nil {
			if f, err := n.Float64(); err == nil {
				return int(f)
			}
		}
		var s string
		if json.Unmarshal(raw, &s) == nil {
			if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
				return i
			}
		}
	}
	return 0
}

// monthOf accepts 1-12, "2026-03", "03" or month names.
func monthOf(row object) int {
	raw, ok := row["month"]
	if !ok {
		return 0
	}
	if n := count(row, "month"); n >= 1 && n <= 12 {
		return n
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return 0
	}
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01", s); err == nil {
		return int(t.Month())
	}
	for _, layout := range []string{"January", "Jan"} {
		if t, err := time.Parse(layout, s); err == nil {
			return int(t.Month())
		}
	}
	return 0
}
