package authsession

import "context"

// Cache key of the current user.
const SessionKey = "auth-user"

// Navigation targets.
const (
	HomePath  = "/"
	LoginPath = "/login"
)

// Upstream endpoints.
const (
	pathMe       = "/auth/me"
	pathLogin    = "/auth/login"
	pathRegister = "/auth/register"
	pathLogout   = "/auth/logout"
)

// User is the authenticated identity. A nil *User means anonymous.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// State is the published view of the session.
// IsAuthenticated is always derived from User.
type State struct {
	User            *User
	IsAuthenticated bool
	IsLoading       bool
	Error           string
}

// Navigator moves the visitor to another route.
type Navigator interface {
	Navigate(ctx context.Context, path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, path string)

func (f NavigatorFunc) Navigate(ctx context.Context, path string) { f(ctx, path) }

// APIClient is the subset of apiclient.Client used by the Manager.
type APIClient interface {
	Do(ctx context.Context, method, path string, body, out any) error
}

// credentials is the request body of login and registration.
type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse wraps the user returned by POST /auth/login.
type loginResponse struct {
	User *User `json:"user"`
}

type navigatorKey struct{}

// WithNavigator attaches nav to ctx. Session calls made with the returned
// context navigate through nav instead of the Manager's default navigator.
func WithNavigator(ctx context.Context, nav Navigator) context.Context {
	return context.WithValue(ctx, navigatorKey{}, nav)
}

func navigatorFrom(ctx context.Context) (Navigator, bool) {
	nav, ok := ctx.Value(navigatorKey{}).(Navigator)
	return nav, ok && nav != nil
}
