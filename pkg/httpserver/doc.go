// Package httpserver runs an http.Server until its context ends, then shuts
// it down gracefully within a deadline.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	err := srv.Run(ctx, router)
//
// Health exposes liveness and readiness probes built from named checks.
package httpserver
