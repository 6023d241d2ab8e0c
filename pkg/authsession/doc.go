// Package authsession is the single source of truth for "who is logged in".
//
// A Manager owns the session of one visitor. It resolves the current user
// with GET /auth/me, performs login, registration and logout against the
// upstream API, and publishes the result as a State. The session value lives
// in a querycache.Cache under SessionKey, so concurrent resolves share one
// upstream call and invalidating the key triggers a fresh resolve.
//
// Session-changing calls navigate when they finish: home after a successful
// login or registration, the login page after any logout. The destination is
// delivered to the Navigator attached to the call's context (WithNavigator)
// or, failing that, to the Manager's default navigator:
//
//	var dest string
//	ctx = authsession.WithNavigator(ctx, authsession.NavigatorFunc(func(_ context.Context, path string) {
//		dest = path
//	}))
//	if err := m.Login(ctx, email, password); err != nil {
//		// m.State().Error holds the display message
//	}
//
// Calls never panic on upstream failures. Login and Register return the
// upstream error so callers can branch, and also store its display message
// in State().Error. ResolveSession swallows failures entirely: an anonymous
// visitor is the expected case.
package authsession
