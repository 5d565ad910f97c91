package http

import (
	"net/http"
	"slices"
)

// withCORS answers preflight requests and stamps Access-Control headers on
// responses to allowed origins. Requests without an Origin pass through.
func withCORS(next http.Handler, allowed []string) http.Handler {
	wildcard := slices.Contains(allowed, "*")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" || (!wildcard && !slices.Contains(allowed, origin)) {
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		if wildcard {
			h.Set("Access-Control-Allow-Origin", "*")
		} else {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			h.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
