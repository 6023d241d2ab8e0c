// Package account serves the login, registration and logout pages. Every
// action is delegated to the visitor's session manager; the page only
// decides what to render or where to redirect.
package account
