// Package clientip determines the address of the client behind a request.
//
// Proxy headers are only consulted when the caller names them as trusted;
// otherwise the connection's remote address is used.
package clientip
