package views

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/gymkit/handler"
	"github.com/dmitrymomot/gymkit/pkg/authsession"
)

// ErrRender is returned when a template fails to execute.
var ErrRender = errors.New("views: failed to render template")

//go:embed templates/*.html
var files embed.FS

var funcs = template.FuncMap{
	"plural": plural,
	"date":   formatDate,
}

var (
	authTmpl     = parse("auth.html")
	homeTmpl     = parse("home.html")
	programsTmpl = parse("programs.html")
	statusTmpl   = parse("status.html")
)

// parse combines the layout with one page file. Each page gets its own set
// so every page can define "content".
func parse(page string) *template.Template {
	return template.Must(template.New(page).Funcs(funcs).ParseFS(files, "templates/layout.html", "templates/"+page))
}

// render executes name into a buffer and writes it only when execution
// succeeds, so a failing template never leaves half a page behind.
func render(t *template.Template, name string, data any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var buf bytes.Buffer
		if err := t.ExecuteTemplate(&buf, name, data); err != nil {
			return errors.Join(ErrRender, err)
		}
		_, err := buf.WriteTo(w)
		return err
	})
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

// LoginPage is the login form.
func LoginPage(form AuthForm) templ.Component {
	form.Register, form.Action = false, "/login"
	return render(authTmpl, "layout", Page{Title: "Log In", Data: form})
}

// RegisterPage is the registration form.
func RegisterPage(form AuthForm) templ.Component {
	form.Register, form.Action = true, "/register"
	return render(authTmpl, "layout", Page{Title: "Register", Data: form})
}

// AuthFormFragment is the #auth-form element of either page.
func AuthFormFragment(form AuthForm) templ.Component {
	if form.Action == "" {
		form.Action = "/login"
		if form.Register {
			form.Action = "/register"
		}
	}
	return render(authTmpl, "auth-form", form)
}

// HomePage greets the signed in user.
func HomePage(user *authsession.User, data HomeData) templ.Component {
	return render(homeTmpl, "layout", Page{Title: "Home", User: user, Data: data})
}

// ProgramsPage lists the user's programs. While the list loads or a program
// is being generated the page asks the browser to refresh.
func ProgramsPage(user *authsession.User, data ProgramsData) templ.Component {
	page := Page{Title: "Programs", User: user, Data: data}
	if data.Loading || data.Generating {
		page.Refresh = 3
	}
	return render(programsTmpl, "layout", page)
}

// ProgramList is the #program-list element of the programs page.
func ProgramList(data ProgramsData) templ.Component {
	return render(programsTmpl, "program-list", data)
}

// LoadingPage is shown while the session is being resolved.
func LoadingPage() templ.Component {
	return render(statusTmpl, "layout", Page{Title: "Loading", Refresh: 1, Data: statusData{Loading: true}})
}

// ErrorPage renders a failed request.
func ErrorPage(p handler.ErrorPageParams) templ.Component {
	return render(statusTmpl, "layout", Page{Title: "Error", Data: statusData{ErrorPageParams: p}})
}

// ErrorToast is patched into #toast for DataStar requests.
func ErrorToast(p handler.ErrorPageParams) templ.Component {
	return render(statusTmpl, "toast", p)
}
