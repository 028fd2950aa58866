package middleware

import (
	"net/http"

	"dumpsift/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
	chicors "github.com/go-chi/cors"
)

// RequestID attaches or propagates X-Request-ID and stores it on context
func RequestID() func(http.Handler) http.Handler { return chimw.RequestID }

// NoCache sets headers to disable client and proxy caching
func NoCache() func(http.Handler) http.Handler { return chimw.NoCache }

// Heartbeat replies with 200 OK to GET path, useful for LB health checks
func Heartbeat(path string) func(http.Handler) http.Handler { return chimw.Heartbeat(path) }

// CORS allows read only cross origin access from origins; nil when origins is empty
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return nil
	}
	return chicors.Handler(chicors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	})
}

// Defaults is the bundle for the status server, outermost first
func Defaults(log logger.Logger, origins []string) []func(http.Handler) http.Handler {
	out := []func(http.Handler) http.Handler{
		RequestID(),
		RecoverJSON(log),
		AccessLog(log, AccessLogOptions{}),
		NoCache(),
	}
	if c := CORS(origins); c != nil {
		out = append(out, c)
	}
	return out
}
