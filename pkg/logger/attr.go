package logger

import "log/slog"

// Error records err under "error". A nil error yields an empty Attr, which
// slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component names the subsystem emitting the record.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// CacheKey records a query cache key.
func CacheKey(key string) slog.Attr {
	return slog.String("cache_key", key)
}

// VisitorID records the browser visitor a workspace belongs to.
func VisitorID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("visitor_id", id)
}

// UserID records the upstream user id.
func UserID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("user_id", id)
}

// UserEmail records the email a session operation was attempted for.
func UserEmail(email string) slog.Attr {
	if email == "" {
		return slog.Attr{}
	}
	return slog.String("email", email)
}

// ProgramID records a workout program id.
func ProgramID(id string) slog.Attr {
	return slog.String("program_id", id)
}

// Path records a navigation or request path.
func Path(p string) slog.Attr {
	return slog.String("path", p)
}
