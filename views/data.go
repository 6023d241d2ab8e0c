package views

import (
	"github.com/dmitrymomot/gymkit/handler"
	"github.com/dmitrymomot/gymkit/pkg/authsession"
	"github.com/dmitrymomot/gymkit/pkg/programs"
)

// Modal names accepted by the programs page.
const (
	ModalCreate   = "create"
	ModalGenerate = "generate"
)

// Page is the data every page passes to the layout. Pages with a User get
// the sidebar.
type Page struct {
	Title   string
	User    *authsession.User
	Refresh int
	Data    any
}

// AuthForm is the login and registration form.
type AuthForm struct {
	Register bool
	Action   string
	Email    string
	Error    string
	Pending  bool
}

type HomeData struct {
	ProgramsLoaded bool
	ProgramCount   int
}

// CreateForm is the state of the create program modal.
type CreateForm struct {
	Name        string
	Description string
	Error       string
	Errors      map[string]string
}

// GenerateForm is the state of the generate program modal.
type GenerateForm struct {
	Request programs.GenerateRequest
	Error   string
	Errors  map[string]string
}

// ProgramsData is everything the programs page shows.
type ProgramsData struct {
	Programs      []programs.Program
	Loading       bool
	LoadError     string
	Modal         string
	Create        CreateForm
	Generate      GenerateForm
	Generating    bool
	GenerateError string

	Goals          []programs.Goal
	DaysOptions    []int
	MinutesOptions []int
}

// NewProgramsData builds page data from the cached list state.
func NewProgramsData(list programs.ListState) ProgramsData {
	d := ProgramsData{
		Programs:       list.Programs,
		Loading:        list.IsLoading,
		Generate:       GenerateForm{Request: programs.DefaultGenerateRequest()},
		Goals:          programs.Goals(),
		DaysOptions:    programs.DaysPerWeekOptions,
		MinutesOptions: programs.SessionMinutesOptions,
	}
	if list.Err != nil {
		d.LoadError = list.Err.Error()
	}
	return d
}

type statusData struct {
	handler.ErrorPageParams
	Loading bool
}
