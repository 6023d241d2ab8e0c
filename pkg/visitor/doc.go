// Package visitor gives every browser its own workspace.
//
// A workspace bundles what a single visitor owns: an upstream API client
// with its own cookie jar, a query cache, the session manager and the
// program service. Workspaces live in an LRU keyed by a signed visitor
// cookie; the least recently seen visitor is closed when the registry is
// full. Upstream cookies captured at login are persisted in a Store so a
// visitor stays signed in across evictions and restarts.
package visitor
