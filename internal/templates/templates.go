// Package templates holds the HTML templates rendered into outgoing email.
package templates

import (
	"embed"
	"html/template"
)

//go:embed *.html
var files embed.FS

// Digest is the upcoming practice sessions email.
var Digest = template.Must(template.ParseFS(files, "digest_email.html"))
