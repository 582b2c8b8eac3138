// Package templates holds the HTML components served by the web binary.
// Components are written in .templ files; run `templ generate` after editing
// them.
package templates

//go:generate templ generate

type DashboardProps struct {
	Title string
	TopN  int
}
