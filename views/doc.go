// Package views renders gymkit's pages and fragments.
//
// Pages are html/template files embedded in the binary and exposed as
// templ.Component values, so handlers render them through the handler
// package like any other component. Every page shares the "layout"
// template; fragments can be rendered on their own for DataStar patches.
package views
