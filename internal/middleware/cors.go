package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS lets browser pages on other origins drive the portal. Credentials are
// never shared cross-origin; the portal holds the bearer token itself.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	handler := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Location", "X-Request-ID"},
		MaxAge:           600,
		AllowCredentials: false,
	})

	return handler.Handler
}
