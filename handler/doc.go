// Package handler turns typed functions into http.HandlerFuncs.
//
// A HandlerFunc receives a Context and a bound request value and returns a
// Response. Wrap binds the request, calls the function and renders the
// Response; binding and rendering failures go to an ErrorHandler.
//
//	type loginForm struct {
//		Email    string `form:"email"`
//		Password string `form:"password"`
//	}
//
//	func login(ctx handler.Context, req loginForm) handler.Response {
//		if err := sessions.Login(ctx, req.Email, req.Password); err != nil {
//			return handler.Templ(views.LoginPage(req.Email, err.Error()))
//		}
//		return handler.Redirect("/")
//	}
//
//	r.Post("/login", handler.Wrap(login, handler.WithBinders[handler.Context, loginForm](binder.Form())))
//
// Responses adapt to DataStar: a request sent by the DataStar client gets
// its HTML as an element patch over SSE and its redirects as a script
// redirect, while a plain browser request gets HTML and a 303.
package handler
