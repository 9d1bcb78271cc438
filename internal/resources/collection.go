// Package resources holds the per-resource API clients. Each one picks the
// caller's role prefix, checks the permission table before any network call
// and normalizes responses into pagination envelopes.
package resources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"garansi-console/internal/apiclient"
	"garansi-console/internal/pagination"
	"garansi-console/internal/rbac"
	"garansi-console/pkg/validate"
)

var (
	ErrNotFound     = errors.New("resources: not found")
	ErrNotPermitted = errors.New("resources: not permitted for this role")
	ErrNoSession    = errors.New("resources: not signed in")
	ErrMissingID    = errors.New("resources: id is required")
)

var prefixes = map[rbac.Role]string{
	rbac.RoleManager:       "/api/managers",
	rbac.RoleSupervisor:    "/api/supervisors",
	rbac.RoleSales:         "/api/sales",
	rbac.RoleServiceCenter: "/api/service-centers",
}

// Prefix returns the API path prefix for role.
func Prefix(role rbac.Role) (string, error) {
	p, ok := prefixes[role]
	if !ok {
		return "", fmt.Errorf("%w: unknown role %q", ErrNotPermitted, role)
	}
	return p, nil
}

// SubjectSource is the session as seen by resource clients.
type SubjectSource interface {
	Subject() rbac.Subject
}

// Collection is a CRUD client for one resource. T is the normalized record,
// In the create/update payload.
type Collection[T any, In any] struct {
	api      *apiclient.Client
	session  SubjectSource
	resource rbac.Resource
	segment  string
	mapFn    func(json.RawMessage) (T, error)
}

func newCollection[T any, In any](api *apiclient.Client, s SubjectSource, res rbac.Resource, segment string, fn func(json.RawMessage) (T, error)) *Collection[T, In] {
	return &Collection[T, In]{api: api, session: s, resource: res, segment: segment, mapFn: fn}
}

func (c *Collection[T, In]) Resource() rbac.Resource { return c.resource }

// path authorizes act for the current role and builds the endpoint path.
func (c *Collection[T, In]) path(act rbac.Action, id string) (string, error) {
	sub := c.session.Subject()
	if !sub.Authenticated {
		return "", ErrNoSession
	}
	if !rbac.Can(sub.Role, c.resource, act) {
		return "", fmt.Errorf("%w: %s %s", ErrNotPermitted, act, c.resource)
	}
	prefix, err := Prefix(sub.Role)
	if err != nil {
		return "", err
	}
	p := prefix + "/" + c.segment
	if id != "" {
		p += "/" + url.PathEscape(id)
	}
	return p, nil
}

// List fetches one page. Missing pagination metadata never fails the call.
func (c *Collection[T, In]) List(ctx context.Context, req pagination.Request) (pagination.Envelope[T], error) {
	req = req.Normalize()
	p, err := c.path(rbac.ActionRead, "")
	if err != nil {
		return pagination.Envelope[T]{}, err
	}
	resp, err := c.api.Get(ctx, p, req.Query())
	if err != nil {
		return pagination.Envelope[T]{}, err
	}
	env, err := pagination.Decode(resp.Body, resp.Header, req, c.mapFn)
	if err != nil {
		return pagination.Envelope[T]{}, fmt.Errorf("%s: %w", c.resource, err)
	}
	return env, nil
}

// Get fetches one record. A 404 or an empty body is ErrNotFound.
func (c *Collection[T, In]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	id = strings.TrimSpace(id)
	if id == "" {
		return zero, ErrMissingID
	}
	p, err := c.path(rbac.ActionRead, id)
	if err != nil {
		return zero, err
	}
	resp, err := c.api.Get(ctx, p, nil)
	if err != nil {
		return zero, notFound(err)
	}
	raw, ok := single(resp.Body)
	if !ok {
		return zero, fmt.Errorf("%w: %s %s", ErrNotFound, c.resource, id)
	}
	return c.mapFn(raw)
}

func (c *Collection[T, In]) Create(ctx context.Context, in In) (T, error) {
	var zero T
	p, err := c.path(rbac.ActionWrite, "")
	if err != nil {
		return zero, err
	}
	if err := validate.Struct(in); err != nil {
		return zero, err
	}
	resp, err := c.api.Post(ctx, p, in)
	if err != nil {
		return zero, err
	}
	return c.echo(resp)
}

func (c *Collection[T, In]) Update(ctx context.Context, id string, in In) (T, error) {
	var zero T
	id = strings.TrimSpace(id)
	if id == "" {
		return zero, ErrMissingID
	}
	p, err := c.path(rbac.ActionWrite, id)
	if err != nil {
		return zero, err
	}
	if err := validate.Struct(in); err != nil {
		return zero, err
	}
	resp, err := c.api.Put(ctx, p, in)
	if err != nil {
		return zero, notFound(err)
	}
	return c.echo(resp)
}

func (c *Collection[T, In]) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrMissingID
	}
	p, err := c.path(rbac.ActionWrite, id)
	if err != nil {
		return err
	}
	if _, err := c.api.Delete(ctx, p); err != nil {
		return notFound(err)
	}
	return nil
}

// echo maps the record a mutation returned, if it returned one.
func (c *Collection[T, In]) echo(resp *apiclient.Response) (T, error) {
	var zero T
	raw, ok := single(resp.Body)
	if !ok {
		return zero, nil
	}
	return c.mapFn(raw)
}

// single finds the one record in a detail response: {data:{...}},
// {data:[{...}]} or a bare object.
func single(body []byte) (json.RawMessage, bool) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		if len(body) > 0 && body[0] == '[' {
			return firstOf(body)
		}
		return nil, false
	}
	var top map[string]json.RawMessage
	if json.Unmarshal(body, &top) != nil {
		return nil, false
	}
	if data, ok := top["data"]; ok {
		data = bytes.TrimSpace(data)
		switch {
		case len(data) > 0 && data[0] == '{':
			return data, !bytes.Equal(data, []byte("{}"))
		case len(data) > 0 && data[0] == '[':
			return firstOf(data)
		default:
			return nil, false
		}
	}
	for _, k := range idKeys {
		if _, ok := top[k]; ok {
			return body, true
		}
	}
	// envelope with no record, e.g. {"message":"ok"}
	return nil, false
}

func firstOf(arr []byte) (json.RawMessage, bool) {
	var items []json.RawMessage
	if json.Unmarshal(arr, &items) != nil || len(items) == 0 {
		return nil, false
	}
	return items[0], true
}

func notFound(err error) error {
	if apiclient.StatusOf(err) == http.StatusNotFound {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
