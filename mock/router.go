package mock

import (
	"net/http"
)

// Handler routes HTTP requests to the appropriate mock endpoints and counts them.
type Handler struct {
	Service *Service
}

// ServeHTTP dispatches incoming HTTP requests based on URL path.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case LoginPath:
		h.Service.loginCalls.Add(1)
		if h.Service.LoginHandler != nil {
			h.Service.LoginHandler(w, r)
		} else {
			h.Service.defaultLoginHandler(w, r)
		}
	case RefreshPath:
		h.Service.refreshCalls.Add(1)
		if h.Service.RefreshHandler != nil {
			h.Service.RefreshHandler(w, r)
		} else {
			h.Service.defaultRefreshHandler(w, r)
		}
	case ResourcePath:
		h.Service.resourceCalls.Add(1)
		if h.Service.ResourceHandler != nil {
			h.Service.ResourceHandler(w, r)
		} else {
			h.Service.defaultResourceHandler(w, r)
		}
	default:
		http.NotFound(w, r)
	}
}

// WriteError writes an error reply the way the API server does
func WriteError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
