// Package views renders the application's HTML pages as templ components.
package views
