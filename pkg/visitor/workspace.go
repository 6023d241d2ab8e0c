package visitor

import (
	"context"

	"github.com/dmitrymomot/gymkit/pkg/apiclient"
	"github.com/dmitrymomot/gymkit/pkg/authsession"
	"github.com/dmitrymomot/gymkit/pkg/programs"
	"github.com/dmitrymomot/gymkit/pkg/querycache"
)

// Workspace is everything one visitor owns.
type Workspace struct {
	ID       string
	API      *apiclient.Client
	Cache    *querycache.Cache
	Session  *authsession.Manager
	Programs *programs.Service

	ready chan struct{}
}

// Close stops the workspace's background work and waits for it.
func (w *Workspace) Close() {
	w.Session.Close()
	w.Programs.Close()
}

// wait blocks until the workspace has loaded its credentials.
func (w *Workspace) wait(ctx context.Context) error {
	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type workspaceKey struct{}

// WithWorkspace stores ws in ctx.
func WithWorkspace(ctx context.Context, ws *Workspace) context.Context {
	return context.WithValue(ctx, workspaceKey{}, ws)
}

// FromContext returns the workspace stored by the registry middleware.
func FromContext(ctx context.Context) *Workspace {
	ws, _ := ctx.Value(workspaceKey{}).(*Workspace)
	return ws
}
