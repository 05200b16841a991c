package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// Local frontends allowed when MEALBRIDGE_CLIENT_URL lists nothing usable.
var devOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// CORS allows the configured client origins with credentials. The request id
// header is exposed so browsers can report it.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = devOrigins
	}
	opts := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", idempotencyHeader, requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader, idempotentReplayHeader},
		AllowCredentials: true,
		MaxAge:           600,
	}
	return cors.Handler(opts)
}
