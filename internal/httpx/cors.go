package httpx

import (
	"net/http"
	"strings"
)

// CORS allows browser clients on other origins to call the JSON API.
type CORS struct {
	AllowOrigin string
	// AllowHeaders defaults to Content-Type, Authorization and X-Request-Id.
	AllowHeaders []string
}

func (c CORS) Wrap(next http.Handler) http.Handler {
	origin := c.AllowOrigin
	if origin == "" {
		origin = "*"
	}
	headers := "Content-Type, Authorization, X-Request-Id"
	if len(c.AllowHeaders) > 0 {
		headers = strings.Join(c.AllowHeaders, ", ")
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		if origin != "*" {
			w.Header().Add("Vary", "Origin")
		}
		// Preflight
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", headers)
			w.Header().Set("Access-Control-Expose-Headers", "X-Request-Id")
			w.Header().Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
