package routes

import (
	"net/http"

	"github.com/abdliliaai/Rxsentinel/internal/api/handlers"
	"github.com/abdliliaai/Rxsentinel/internal/api/middleware"
	"github.com/abdliliaai/Rxsentinel/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	verificationHandler *handlers.VerificationHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(verificationHandler *handlers.VerificationHandler, metrics *observability.Metrics) *Router {
	return &Router{
		mux:                 http.NewServeMux(),
		verificationHandler: verificationHandler,
		metrics:             metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Verification endpoints
	r.mux.HandleFunc("POST /api/prescriptions", r.verificationHandler.VerifyPrescription)
	r.mux.HandleFunc("GET /api/prescriptions", r.verificationHandler.ListRecords)
	r.mux.HandleFunc("GET /api/prescriptions/search", r.verificationHandler.SearchCases)
	r.mux.HandleFunc("GET /api/prescriptions/{id}", r.verificationHandler.GetRecord)
	r.mux.HandleFunc("GET /api/prescriptions/{id}/document", r.verificationHandler.GetSourceDocument)

	// Apply middleware chain
	var handler http.Handler = r.mux
	if r.metrics != nil {
		handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	}
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
