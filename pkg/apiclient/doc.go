// Package apiclient is a small JSON client for the upstream workout API.
//
// A Client carries a fixed base URL and the visitor's credential transport:
// a cookie jar holding the upstream session cookies and, optionally, a static
// bearer token. Requests are issued through the generic Get and Post helpers,
// which decode the response body into the requested type.
//
// Every failure is returned as one of two error kinds:
//
//   - *NetworkError: the request never produced a response (DNS, connection
//     refused, timeout, canceled context).
//   - *APIError: the upstream answered with a non-2xx status. Message carries
//     the "message" field of the error body when present.
//
// ErrorMessage reduces any error to a single display string:
//
//	user, err := apiclient.Get[User](ctx, client, "/auth/me")
//	if err != nil {
//		flash := apiclient.ErrorMessage(err)
//		// ...
//	}
//
// The request id stored by pkg/requestid is forwarded in the X-Request-ID
// header so upstream logs can be correlated with ours.
package apiclient
