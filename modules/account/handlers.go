package account

import (
	"context"
	"sync"

	"github.com/dmitrymomot/gymkit/handler"
	"github.com/dmitrymomot/gymkit/pkg/authsession"
	"github.com/dmitrymomot/gymkit/pkg/logger"
	"github.com/dmitrymomot/gymkit/views"
)

// CredentialsRequest is the login and registration form. Email may also
// arrive in the query string to prefill the form.
type CredentialsRequest struct {
	Email    string `form:"email" query:"email"`
	Password string `form:"password"`
}

// destination records where the session manager sent the visitor during
// one call.
type destination struct {
	mu   sync.Mutex
	path string
}

func (d *destination) Navigate(_ context.Context, path string) {
	d.mu.Lock()
	d.path = path
	d.mu.Unlock()
}

func (d *destination) get(fallback string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.path == "" {
		return fallback
	}
	return d.path
}

func (s *Service) session(ctx handler.Context) (Authenticator, error) {
	if s.sessions == nil {
		return nil, handler.ErrServiceUnavailable
	}
	sess := s.sessions(ctx.Request())
	if sess == nil {
		return nil, handler.ErrServiceUnavailable
	}
	return sess, nil
}

func (s *Service) loginPage(ctx handler.Context, req CredentialsRequest) handler.Response {
	return s.authPage(ctx, views.AuthForm{Email: req.Email})
}

func (s *Service) registerPage(ctx handler.Context, req CredentialsRequest) handler.Response {
	return s.authPage(ctx, views.AuthForm{Register: true, Email: req.Email})
}

// authPage renders an empty form carrying the session's last error, so a
// failed logout is still reported on the login page.
func (s *Service) authPage(ctx handler.Context, form views.AuthForm) handler.Response {
	if sess, err := s.session(ctx); err == nil {
		state := sess.State()
		form.Error = state.Error
		form.Pending = state.IsLoading && state.User == nil
	}
	if form.Register {
		return handler.Templ(views.RegisterPage(form))
	}
	return handler.Templ(views.LoginPage(form))
}

func (s *Service) login(ctx handler.Context, req CredentialsRequest) handler.Response {
	return s.authenticate(ctx, req, false)
}

func (s *Service) register(ctx handler.Context, req CredentialsRequest) handler.Response {
	return s.authenticate(ctx, req, true)
}

// authenticate submits the form and follows the session manager's
// navigation on success, or re-renders the form with its error.
func (s *Service) authenticate(ctx handler.Context, req CredentialsRequest, register bool) handler.Response {
	sess, err := s.session(ctx)
	if err != nil {
		return handler.Error(err)
	}

	dest := &destination{}
	callCtx := authsession.WithNavigator(ctx, dest)
	if register {
		err = sess.Register(callCtx, req.Email, req.Password)
	} else {
		err = sess.Login(callCtx, req.Email, req.Password)
	}
	if err == nil {
		return handler.Redirect(dest.get(authsession.HomePath))
	}

	s.logger.DebugContext(ctx, "authentication rejected",
		logger.Component("account"),
		logger.UserEmail(req.Email),
		logger.Error(err),
	)

	form := views.AuthForm{Register: register, Email: req.Email, Error: sess.State().Error}
	page := views.LoginPage(form)
	if register {
		page = views.RegisterPage(form)
	}
	return handler.TemplPartial(views.AuthFormFragment(form), page, handler.WithTarget("#auth-form"))
}

func (s *Service) logout(ctx handler.Context, _ struct{}) handler.Response {
	sess, err := s.session(ctx)
	if err != nil {
		return handler.Redirect(authsession.LoginPath)
	}

	dest := &destination{}
	// Failures are recorded in the session state and shown on the login page.
	_ = sess.Logout(authsession.WithNavigator(ctx, dest))
	return handler.Redirect(dest.get(authsession.LoginPath))
}
