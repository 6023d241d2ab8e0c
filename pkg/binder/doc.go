// Package binder decodes HTTP request data into tagged structs.
//
// Two sources are supported: urlencoded or multipart form bodies (`form`
// tags) and the URL query string (`query` tags). A field without a tag binds
// to its lowercased name; `-` skips it. Basic scalar kinds, pointers and
// slices of them are supported.
//
//	type loginForm struct {
//		Email    string `form:"email"`
//		Password string `form:"password"`
//	}
//
//	h := handler.Wrap(login, handler.WithBinders[handler.Context, loginForm](binder.Form()))
//
// Binders return ErrBinderNotApplicable when the request carries nothing
// for them, so several can be chained.
package binder
