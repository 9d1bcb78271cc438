package apiclient

import "context"

// Navigator is whatever is currently showing a page to the operator. The
// pipeline uses it to send the operator to the login page when the session
// is rejected mid-request.
type Navigator interface {
	CurrentPath() string
	Redirect(path string)
}

type navigatorKey struct{}

func WithNavigator(ctx context.Context, nav Navigator) context.Context {
	return context.WithValue(ctx, navigatorKey{}, nav)
}

func NavigatorFrom(ctx context.Context) (Navigator, bool) {
	nav, ok := ctx.Value(navigatorKey{}).(Navigator)
	return nav, ok && nav != nil
}
