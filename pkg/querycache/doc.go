// Package querycache is a keyed cache of asynchronous results with in-flight
// deduplication and explicit invalidation.
//
// Each key holds at most one value and at most one running loader. Readers
// that arrive while a loader is running wait for it and receive the same
// value or error. Writers seed values without a loader call, and Invalidate
// forces the next reader to load again.
//
//	c := querycache.New()
//
//	programs, err := querycache.Load(ctx, c, "programs", func(ctx context.Context) ([]Program, error) {
//		return api.ListPrograms(ctx)
//	})
//
//	// after a mutation
//	c.Invalidate("programs")
//
// Subscribers are told about every state change of a key and re-query the
// cache themselves; events carry no values.
package querycache
