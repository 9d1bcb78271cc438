// Package authapi wraps the Garansi+ authentication endpoints.
package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"garansi-console/internal/apiclient"
	"garansi-console/internal/auth"
	"garansi-console/pkg/validate"
)

const (
	PathLogin          = apiclient.DefaultLoginPath
	PathChangePassword = "/api/auth/password"
	PathForgotPassword = "/api/auth/password/forgot"
)

// ErrMalformedLogin is returned when the server accepts the credentials but
// the body lacks a token or a user, or names a role the console does not know.
var ErrMalformedLogin = errors.New("authapi: login response missing token or user")

type Credentials struct {
	Phone    string `json:"phone" validate:"required,phone"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,nefield=CurrentPassword"`
}

type ForgotPasswordInput struct {
	Phone       string `json:"phone" validate:"required,phone"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

type LoginResult struct {
	Token string
	User  auth.User
}

type Client struct {
	api *apiclient.Client
}

func New(api *apiclient.Client) *Client {
	return &Client{api: api}
}

// Login exchanges credentials for a token and profile. A 401 here is a bad
// password and never touches the stored session.
func (c *Client) Login(ctx context.Context, phone, password string) (LoginResult, error) {
	in := Credentials{Phone: strings.TrimSpace(phone), Password: password}
	if err := validate.Struct(in); err != nil {
		return LoginResult{}, err
	}
	resp, err := c.api.Post(ctx, PathLogin, in)
	if err != nil {
		return LoginResult{}, err
	}
	return parseLogin(resp.Body)
}

type loginBody struct {
	Token       string     `json:"token"`
	AccessToken string     `json:"accessToken"`
	User        *auth.User `json:"user"`
}

// parseLogin accepts {token,user} at the top level or inside "data".
func parseLogin(body []byte) (LoginResult, error) {
	var doc struct {
		loginBody
		Data *loginBody `json:"data"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return LoginResult{}, fmt.Errorf("authapi: decode login: %w", err)
	}
	lb := doc.loginBody
	if doc.Data != nil && (doc.Data.Token != "" || doc.Data.AccessToken != "") {
		lb = *doc.Data
	}
	tok := lb.Token
	if tok == "" {
		tok = lb.AccessToken
	}
	if strings.TrimSpace(tok) == "" || lb.User == nil {
		return LoginResult{}, ErrMalformedLogin
	}
	if !lb.User.Role.Valid() {
		return LoginResult{}, fmt.Errorf("%w: role %q", ErrMalformedLogin, lb.User.Role.String())
	}
	return LoginResult{Token: tok, User: *lb.User}, nil
}

// ChangePassword updates the signed-in operator's password.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	in := ChangePasswordInput{CurrentPassword: current, NewPassword: next}
	if err := validate.Struct(in); err != nil {
		return err
	}
	_, err := c.api.Put(ctx, PathChangePassword, in)
	return err
}

// ForgotPassword resets a password by phone without a session.
func (c *Client) ForgotPassword(ctx context.Context, phone, next string) error {
	in := ForgotPasswordInput{Phone: strings.TrimSpace(phone), NewPassword: next}
	if err := validate.Struct(in); err != nil {
		return err
	}
	_, err := c.api.Post(ctx, PathForgotPassword, in)
	return err
}
