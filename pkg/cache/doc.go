// Package cache provides a generic, thread-safe LRU cache.
//
// Entries leaving the cache through eviction, Remove or Clear are handed to
// an optional callback, which makes the cache suitable for owning resources
// that must be closed:
//
//	workspaces := cache.NewLRUCache[string, *Workspace](1000)
//	workspaces.SetEvictCallback(func(_ string, ws *Workspace) { ws.Close() })
//
//	ws, created, err := workspaces.GetOrCreate(id, func() (*Workspace, error) {
//		return newWorkspace(id)
//	})
//
// Get, Put, Remove and GetOrCreate are O(1).
package cache
