// Package templates holds the server-rendered pages.
package templates

import (
	"embed"
	"html/template"
	"io/fs"
	"net/url"
	"strings"

	"github.com/Akxssh/property-salahe/internal/explore"
	"github.com/Akxssh/property-salahe/internal/models"
)

//go:embed *.tmpl
var files embed.FS

//go:embed static
var static embed.FS

// Funcs are the helpers available to every page.
var Funcs = template.FuncMap{
	"str":    models.Str,
	"num":    func(n *float64) string { return explore.GroupedNumber(models.Num(n)) },
	"rupees": func(n *float64) string { return "₹" + explore.GroupedNumber(models.Num(n)) },
	"imgsrc": ImageSource,
}

// Load parses every embedded page.
func Load() (*template.Template, error) {
	return template.New("").Funcs(Funcs).ParseFS(files, "*.tmpl")
}

// Must is Load for process start-up and tests.
func Must() *template.Template {
	return template.Must(Load())
}

// Static is the stylesheet and other assets served under /static.
func Static() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// ImageSource allows http(s) URLs and inline image data as an img src.
func ImageSource(raw string) template.URL {
	if strings.HasPrefix(raw, "data:image/") {
		return template.URL(raw)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return template.URL(u.String())
}
