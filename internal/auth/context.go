package auth

import (
	"context"
	"errors"
)

type ctxKey int

const ctxUser ctxKey = iota

var ErrNoIdentity = errors.New("auth: no user in context")

func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, ctxUser, u)
}

func UserFrom(ctx context.Context) (User, error) {
	if u, ok := ctx.Value(ctxUser).(User); ok && u.ID != "" {
		return u, nil
	}
	return User{}, ErrNoIdentity
}
