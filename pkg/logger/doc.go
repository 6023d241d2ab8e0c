// Package logger builds the application's *slog.Logger.
//
// New assembles a JSON or text handler from functional options and wraps it
// in a decorator that pulls request-scoped attributes (request id, visitor id)
// out of the context on every record. Environment presets pick sensible
// defaults:
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, cfg.AppName),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "login succeeded", logger.UserEmail(email))
//
// Attribute helpers in attr.go keep key names consistent across packages.
package logger
