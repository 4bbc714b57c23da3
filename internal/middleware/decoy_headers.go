package middleware

import "net/http"

// DecoyHeadersConfig holds the response headers the decoy presents
type DecoyHeadersConfig struct {
	// ServerBanner replaces the Server header when set, e.g. "Apache/2.4.41 (Ubuntu)"
	ServerBanner string
}

// DecoyHeaders returns a middleware that adds a plausible server banner and
// the baseline headers a real login portal would send. No Content-Security-Policy
// is set: the decoy page uses inline scripts.
func DecoyHeaders(config DecoyHeadersConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if config.ServerBanner != "" {
				w.Header().Set("Server", config.ServerBanner)
			}

			// nosniff prevents browsers from MIME-sniffing a response away from declared Content-Type
			w.Header().Set("X-Content-Type-Options", "nosniff")

			w.Header().Set("Cache-Control", "no-store")

			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			next.ServeHTTP(w, r)
		})
	}
}
