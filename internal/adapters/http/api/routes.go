package api

import (
	"net/http"
	"reflect"
	"runtime"
	"strings"
)

// RouteInfo is the public description of a Route.
type RouteInfo struct {
	Method  string `json:"method"`
	Path    string `json:"path"`
	Name    string `json:"name"`
	Handler string `json:"handler"`
}

// matches reports whether q occurs, ignoring case, in the method, path,
// name or handler.
func (ri RouteInfo) matches(q string) bool {
	q = strings.ToLower(q)
	for _, field := range []string{ri.Method, ri.Path, ri.Name, ri.Handler} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// RoutesHandler lists the business routes.
type RoutesHandler struct {
	routes []RouteInfo
}

// NewRoutesHandler snapshots routes for listing.
func NewRoutesHandler(routes []Route) *RoutesHandler {
	infos := make([]RouteInfo, len(routes))
	for i, r := range routes {
		infos[i] = RouteInfo{Method: r.Method, Path: r.Pattern, Name: r.Name, Handler: handlerName(r.Handler)}
	}
	return &RoutesHandler{routes: infos}
}

// HandleRoutes handles GET /routes?q=... An empty or absent q lists every
// route.
func (h *RoutesHandler) HandleRoutes(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusOK, h.routes)
		return
	}

	found := make([]RouteInfo, 0, len(h.routes))
	for _, ri := range h.routes {
		if ri.matches(q) {
			found = append(found, ri)
		}
	}
	writeJSON(w, http.StatusOK, found)
}

// handlerName turns a method value into "Type.Method", e.g.
// "ProductHandler.HandleGet".
func handlerName(fn http.HandlerFunc) string {
	if fn == nil {
		return ""
	}
	name := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()).Name()
	name = strings.TrimSuffix(name, "-fm")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if _, rest, ok := strings.Cut(name, "."); ok {
		name = rest
	}
	return strings.NewReplacer("(*", "", ")", "").Replace(name)
}
