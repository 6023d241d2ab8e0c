// Package guard gates routes on the visitor's session.
//
// Decide maps a session State to one of three decisions. Middleware applies
// the decision to protected routes: a session that is still loading gets a
// placeholder page that refreshes itself, an anonymous visitor is redirected
// to the login page, and an authenticated one proceeds with the State in the
// request context. RequireGuest is the inverse for the login and
// registration pages.
package guard
