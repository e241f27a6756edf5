// Page fallback handler.
//
// Pages are not registered as routes: Page runs as the engine's NoRoute
// handler, after EdgeClassifier has redirected un-prefixed paths. Requests
// for "/<locale>/..." get the built page from the static directory when one
// is configured, or a minimal HTML shell otherwise. Other GET requests may
// hit a static file; everything else is a JSON 404.
package handlers

import (
	"html/template"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"github.com/bitx-studio/landing-backend/internal/domain"
	"github.com/bitx-studio/landing-backend/internal/tracking"
)

// shellTmpl is served when no static build is configured. It carries what
// page scripts need: the document language and, when set, the analytics tag.
var shellTmpl = template.Must(template.New("shell").Parse(`<!doctype html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1, viewport-fit=cover">
<meta name="color-scheme" content="light">
<title>{{.Brand}}</title>
{{- if .AnalyticsID}}
<script async src="https://www.googletagmanager.com/gtag/js?id={{.AnalyticsID}}"></script>
<script>
window.dataLayer = window.dataLayer || [];
function gtag(){dataLayer.push(arguments);}
window.gtag = gtag;
gtag('js', new Date());
gtag('config', {{.AnalyticsID}}, { anonymize_ip: true });
</script>
{{- end}}
</head>
<body data-locale="{{.Lang}}"><main id="app"></main></body>
</html>
`))

type shellData struct {
	Lang        string
	Brand       string
	AnalyticsID string
}

// Page serves localized pages and static files for unmatched routes.
func (h *Handlers) Page(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		fail(c, http.StatusNotFound, ErrCodeNotFound, nil)
		return
	}

	p := c.Request.URL.Path
	l, isPage := tracking.LocaleFromPath(p)

	if h.site.StaticDir != "" {
		candidates := []string{p}
		if isPage {
			clean := strings.TrimSuffix(path.Clean(p), "/")
			candidates = []string{clean + "/index.html", clean + ".html", "/index.html"}
		}
		for _, name := range candidates {
			if h.serveStatic(c, name) {
				return
			}
		}
	}

	if !isPage {
		fail(c, http.StatusNotFound, ErrCodeNotFound, nil)
		return
	}
	h.serveShell(c, l)
}

// serveStatic writes the named file from the static directory and reports
// whether it existed. http.Dir rejects paths escaping the directory.
func (h *Handlers) serveStatic(c *gin.Context, name string) bool {
	f, err := http.Dir(h.site.StaticDir).Open(name)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
	c.Abort()
	return true
}

func (h *Handlers) serveShell(c *gin.Context, l domain.Locale) {
	c.Render(http.StatusOK, render.HTML{
		Template: shellTmpl,
		Name:     "shell",
		Data: shellData{
			Lang:        l.String(),
			Brand:       h.site.Brand,
			AnalyticsID: h.site.AnalyticsID,
		},
	})
}
