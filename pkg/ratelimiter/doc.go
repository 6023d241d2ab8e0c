// Package ratelimiter throttles repeated actions with a token bucket per key.
//
// Buckets live in a Store. MemoryStore serves a single process; RedisStore
// shares buckets between replicas. Middleware applies a Limiter to HTTP
// routes and hands rejected requests to a caller-supplied handler with the
// Retry-After header already set.
package ratelimiter
