package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// DefaultCORSConfig returns a permissive CORS configuration suitable for
// local dashboards and tooling.
func DefaultCORSConfig() *CORSConfig {
	return &CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}
}

func (c *CORSConfig) headerValues() (origins, methods, headers string) {
	return joinList(c.AllowedOrigins), joinList(c.AllowedMethods), joinList(c.AllowedHeaders)
}

func joinList(items []string) string {
	result := ""
	for i, item := range items {
		if i > 0 {
			result += ", "
		}
		result += item
	}
	return result
}

// NewCORSMiddleware returns Huma middleware that sets CORS headers on
// every API response.
func NewCORSMiddleware(config *CORSConfig) func(huma.Context, func(huma.Context)) {
	origins, methods, headers := config.headerValues()
	return func(ctx huma.Context, next func(huma.Context)) {
		ctx.SetHeader("Access-Control-Allow-Origin", origins)
		ctx.SetHeader("Access-Control-Allow-Methods", methods)
		ctx.SetHeader("Access-Control-Allow-Headers", headers)
		next(ctx)
	}
}

// AddCORSHandler registers a mux-level OPTIONS handler so preflight
// requests succeed for routes outside Huma (e.g. /metrics).
func AddCORSHandler(mux *http.ServeMux, config *CORSConfig) {
	origins, methods, headers := config.headerValues()
	mux.HandleFunc("OPTIONS /", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origins)
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.Header().Set("Access-Control-Allow-Headers", headers)
		w.WriteHeader(http.StatusNoContent)
	})
}
