// Package middleware provides the HTTP middleware stack of the trip API server.
package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// NewCORSHandler returns a middleware that lets the planner front end, served
// from allowedOrigins, call the trip API from the browser.
// Each entry must be a full origin (scheme + host, no trailing slash).
func NewCORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "traceparent", "tracestate"},
	})
	return func(next http.Handler) http.Handler {
		return c.Handler(next)
	}
}
