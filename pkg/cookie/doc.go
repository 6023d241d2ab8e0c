// Package cookie reads and writes HMAC-signed cookies.
//
// The first secret signs; every secret verifies, so secrets can be rotated by
// prepending a new one. Secrets must be at least 32 bytes.
//
//	m, err := cookie.New([]string{secret}, cookie.WithSecure(true))
//	_ = m.SetSigned(w, "visitor", id)
//	id, err := m.GetSigned(r, "visitor")
package cookie
