package routes

import (
	"log/slog"
	"net/http"

	"github.com/BradenHooton/honeypot/internal/handlers"
	"github.com/BradenHooton/honeypot/internal/middleware"
	pkghttp "github.com/BradenHooton/honeypot/pkg/http"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// CapturePath is where the decoy page posts submitted credentials
const CapturePath = "/log-attempt"

// Options configures the router middleware stack
type Options struct {
	Logger            *slog.Logger
	WebRoot           string
	DecoyServerHeader string
	CORS              *middleware.CORSConfig
}

// NewRouter builds the full HTTP handler: middleware stack plus routes
func NewRouter(captureHandler *handlers.CaptureHandler, opts Options) chi.Router {
	corsConfig := opts.CORS
	if corsConfig == nil {
		corsConfig = middleware.DefaultCORSConfig()
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(middleware.DecoyHeaders(middleware.DecoyHeadersConfig{ServerBanner: opts.DecoyServerHeader}))
	router.Use(middleware.CORS(corsConfig))
	router.Use(middleware.SecureLogger(opts.Logger, middleware.QuietRoute{Method: http.MethodPost, Path: CapturePath}))
	router.Use(chimiddleware.Recoverer)

	RegisterRoutes(router, captureHandler, opts.WebRoot)
	return router
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, captureHandler *handlers.CaptureHandler, webRoot string) {
	router.Post(CapturePath, captureHandler.LogAttempt)

	// Decoy front-end assets
	if webRoot != "" {
		fileServer := http.FileServer(http.Dir(webRoot))
		router.Get("/*", fileServer.ServeHTTP)
		router.Head("/*", fileServer.ServeHTTP)
	}

	// Unknown paths and unsupported methods look the same to the caller
	router.NotFound(notFound)
	router.MethodNotAllowed(notFound)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteNotFound(w, "Not found")
}
