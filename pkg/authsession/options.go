package authsession

import "log/slog"

// Option configures a Manager.
type Option func(*Manager)

// WithDefaultNavigator sets the navigator used when the call context carries none.
func WithDefaultNavigator(nav Navigator) Option {
	return func(m *Manager) {
		if nav != nil {
			m.nav = nav
		}
	}
}

// WithLogger sets the Manager's logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithDependentKeys names cache keys that hold per-user data. They are
// invalidated when a user logs in and dropped when the user logs out, so one
// user's data is never served to the next.
func WithDependentKeys(keys ...string) Option {
	return func(m *Manager) {
		m.dependentKeys = append(m.dependentKeys, keys...)
	}
}

// WithSessionHook registers fn to run after every session change made by
// Login, Register or Logout. user is nil after logout.
func WithSessionHook(fn func(user *User)) Option {
	return func(m *Manager) {
		if fn != nil {
			m.hooks = append(m.hooks, fn)
		}
	}
}
