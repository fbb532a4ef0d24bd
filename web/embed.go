// Package web holds the HTML templates and static assets of the web client.
package web

import "embed"

// Templates contains base.html plus one file per page.
//
//go:embed templates/*.html
var Templates embed.FS

// Static is served under /static/.
//
//go:embed static
var Static embed.FS
