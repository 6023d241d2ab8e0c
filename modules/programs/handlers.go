package programs

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/gymkit/handler"
	"github.com/dmitrymomot/gymkit/pkg/apiclient"
	"github.com/dmitrymomot/gymkit/pkg/authsession"
	"github.com/dmitrymomot/gymkit/pkg/guard"
	"github.com/dmitrymomot/gymkit/pkg/logger"
	programsvc "github.com/dmitrymomot/gymkit/pkg/programs"
	"github.com/dmitrymomot/gymkit/pkg/validator"
	"github.com/dmitrymomot/gymkit/views"
)

const listPath = "/programs"

// PageRequest selects the modal opened over the list.
type PageRequest struct {
	Modal string `query:"modal"`
}

type CreateRequest struct {
	Name        string `form:"name"`
	Description string `form:"description"`
}

type GenerateRequest struct {
	DaysPerWeek    int             `form:"days_per_week"`
	Goal           programsvc.Goal `form:"goal"`
	SessionMinutes int             `form:"session_minutes"`
}

func (s *Service) service(ctx handler.Context) (Programs, error) {
	if s.programs == nil {
		return nil, handler.ErrServiceUnavailable
	}
	svc := s.programs(ctx.Request())
	if svc == nil {
		return nil, handler.ErrServiceUnavailable
	}
	return svc, nil
}

func currentUser(ctx context.Context) *authsession.User {
	state, _ := guard.StateFromContext(ctx)
	return state.User
}

// load waits up to listWait for the list. A list still loading after that
// renders the loading state; the load itself keeps running.
func (s *Service) load(ctx context.Context, svc Programs) views.ProgramsData {
	waitCtx, cancel := context.WithTimeout(ctx, s.listWait)
	defer cancel()

	list, err := svc.List(waitCtx)
	state := programsvc.ListState{Programs: list}
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		state.IsLoading = true
	default:
		state.Err = err
	}

	data := views.NewProgramsData(state)
	data.Generating = svc.IsGenerating()
	data.GenerateError = svc.GenerateError()
	return data
}

func (s *Service) home(ctx handler.Context, _ struct{}) handler.Response {
	user := currentUser(ctx)
	if user == nil {
		return handler.Redirect(authsession.LoginPath)
	}

	var data views.HomeData
	if svc, err := s.service(ctx); err == nil {
		waitCtx, cancel := context.WithTimeout(ctx, s.listWait)
		defer cancel()
		if list, err := svc.List(waitCtx); err == nil {
			data.ProgramsLoaded = true
			data.ProgramCount = len(list)
		}
	}
	return handler.Templ(views.HomePage(user, data))
}

func (s *Service) list(ctx handler.Context, req PageRequest) handler.Response {
	svc, err := s.service(ctx)
	if err != nil {
		return handler.Error(err)
	}

	data := s.load(ctx, svc)
	switch req.Modal {
	case views.ModalCreate, views.ModalGenerate:
		data.Modal = req.Modal
	}
	return handler.TemplPartial(
		views.ProgramList(data),
		views.ProgramsPage(currentUser(ctx), data),
		handler.WithTarget("#program-list"),
	)
}

// create keeps the modal open, populated, until the program is created.
func (s *Service) create(ctx handler.Context, req CreateRequest) handler.Response {
	svc, err := s.service(ctx)
	if err != nil {
		return handler.Error(err)
	}

	_, err = svc.Create(ctx, programsvc.CreateRequest{Name: req.Name, Description: req.Description})
	if err == nil {
		return handler.Redirect(listPath)
	}

	data := s.load(ctx, svc)
	data.Modal = views.ModalCreate
	data.Create = views.CreateForm{Name: req.Name, Description: req.Description}
	status := http.StatusUnprocessableEntity
	if verrs := validator.ExtractValidationErrors(err); verrs != nil {
		data.Create.Errors = fieldErrors(verrs)
	} else {
		status = http.StatusBadGateway
		data.Create.Error = apiclient.ErrorMessage(err)
	}
	return handler.TemplWithStatus(status, views.ProgramsPage(currentUser(ctx), data))
}

// generate starts a background generation and returns to the list, which
// shows the generating overlay until it settles.
func (s *Service) generate(ctx handler.Context, req GenerateRequest) handler.Response {
	svc, err := s.service(ctx)
	if err != nil {
		return handler.Error(err)
	}

	greq := programsvc.GenerateRequest{DaysPerWeek: req.DaysPerWeek, Goal: req.Goal, SessionMinutes: req.SessionMinutes}
	err = svc.StartGenerate(ctx, greq)
	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "program generation started",
			logger.Component("programs"),
			slog.String("goal", string(req.Goal)),
		)
		return handler.Redirect(listPath)
	case errors.Is(err, programsvc.ErrAlreadyGenerating):
		return handler.Redirect(listPath)
	case validator.IsValidationError(err):
		data := s.load(ctx, svc)
		data.Modal = views.ModalGenerate
		data.Generate = views.GenerateForm{Request: greq, Errors: fieldErrors(validator.ExtractValidationErrors(err))}
		return handler.TemplWithStatus(http.StatusUnprocessableEntity, views.ProgramsPage(currentUser(ctx), data))
	default:
		return handler.Error(errors.Join(handler.ErrServiceUnavailable, err))
	}
}

func fieldErrors(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, field := range verrs.Fields() {
		out[field] = verrs.Get(field)
	}
	return out
}
