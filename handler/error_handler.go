package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/gymkit/pkg/logger"
	"github.com/dmitrymomot/gymkit/pkg/requestid"
)

// ErrorPageParams is the data of a rendered error page or toast.
type ErrorPageParams struct {
	StatusCode int
	Message    string
	RequestID  string
	RetryURL   string
}

// ErrorHandlerConfig configures NewErrorHandler.
type ErrorHandlerConfig struct {
	// ErrorPage renders the full page for plain requests.
	ErrorPage func(ErrorPageParams) templ.Component
	// ErrorToast renders a notice patched into ToastTarget for DataStar requests.
	ErrorToast func(ErrorPageParams) templ.Component
	// ToastTarget defaults to "#toast".
	ToastTarget string
}

func classifyError(err error) ErrorPageParams {
	info := ErrorPageParams{
		StatusCode: ErrInternalServerError.Code,
		Message:    ErrInternalServerError.Message,
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		info.StatusCode = httpErr.Code
		info.Message = httpErr.Message
	}
	var verr ValidationError
	if errors.As(err, &verr) {
		info.StatusCode = http.StatusBadRequest
		info.Message = verr.Error()
	}
	return info
}

// NewErrorHandler returns an ErrorHandler that logs err and renders an
// error page, or an error toast for DataStar requests. Client errors log at
// warn level, everything else at error level.
func NewErrorHandler(log *slog.Logger, cfg ErrorHandlerConfig) ErrorHandler[Context] {
	if log == nil {
		log = logger.Noop()
	}
	if cfg.ToastTarget == "" {
		cfg.ToastTarget = "#toast"
	}

	return func(ctx Context, err error) {
		r := ctx.Request()
		w := ctx.ResponseWriter()

		info := classifyError(err)
		info.RequestID = requestid.FromContext(r.Context())
		info.RetryURL = r.URL.Path

		level := slog.LevelError
		if info.StatusCode < http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		log.LogAttrs(r.Context(), level, "request failed",
			logger.Component("handler"),
			logger.Error(err),
			slog.Int("status", info.StatusCode),
			slog.String("method", r.Method),
			logger.Path(r.URL.Path),
			slog.Bool("datastar", IsDataStar(r)),
		)

		var resp Response
		switch {
		case IsDataStar(r) && cfg.ErrorToast != nil:
			resp = Templ(cfg.ErrorToast(info), WithTarget(cfg.ToastTarget), WithPatchMode(PatchInner))
		case cfg.ErrorPage != nil:
			resp = TemplWithStatus(info.StatusCode, cfg.ErrorPage(info))
		default:
			http.Error(w, info.Message, info.StatusCode)
			return
		}

		if renderErr := resp.Render(w, r); renderErr != nil {
			log.ErrorContext(r.Context(), "failed to render error response",
				logger.Component("handler"),
				logger.Error(renderErr),
			)
		}
	}
}
