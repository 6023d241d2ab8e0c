// Package programs serves the home page and the program pages of signed in
// visitors: the list with its loading, error and empty states, and the
// create and generate modals.
package programs
