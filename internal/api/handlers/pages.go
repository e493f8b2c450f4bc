package handlers

import (
	"fmt"
	"net/http"
)

// PageHandler serves the minimal HTML shells behind the route guard. The
// real UI is a static bundle mounted under /static; these shells exist so
// the guard has concrete pages to redirect between.
type PageHandler struct {
	appName  string
	themeCSS bool
}

func NewPageHandler(appName string, themeCSS bool) *PageHandler {
	return &PageHandler{appName: appName, themeCSS: themeCSS}
}

func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.render(w, "Sign in")
}

func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.render(w, "Dashboard")
}

func (h *PageHandler) render(w http.ResponseWriter, title string) {
	link := ""
	if h.themeCSS {
		link = `<link rel="stylesheet" href="/theme.css">`
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>%s · %s</title>%s</head>
<body><div id="root" data-app="%s"></div><script src="/static/app.js"></script></body>
</html>
`, title, h.appName, link, h.appName)
}
