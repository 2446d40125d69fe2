package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"dialog-backend/internal/handlers"
	"dialog-backend/internal/middleware"
	"dialog-backend/internal/websocket"
)

// Parameters describe the router dependencies.
type Parameters struct {
	Logger          *zap.Logger
	ConverseHandler *handlers.ConverseHandler
	WSHub           *websocket.Hub
	// JWTAuth protects the converse routes when set.
	JWTAuth *middleware.JWTAuth
	// RateLimiter limits the converse routes when set.
	RateLimiter *middleware.RateLimiter
	CORSOrigins []string
}

func New(params *Parameters) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(params.Logger))
	r.Use(cors.New(cors.Options{
		AllowedOrigins: params.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}).Handler)

	r.Get("/", params.ConverseHandler.Index)
	r.Get("/health", params.ConverseHandler.Health)

	r.Group(func(r chi.Router) {
		if params.RateLimiter != nil {
			r.Use(params.RateLimiter.Middleware)
		}

		r.With(bearerAuth(params.JWTAuth)...).Post("/converse", params.ConverseHandler.Converse)

		// The websocket authenticates with a token query parameter.
		if params.WSHub != nil {
			r.Get("/converse/ws", params.WSHub.HandleWebSocket)
		}
	})

	return r
}

func bearerAuth(auth *middleware.JWTAuth) []func(http.Handler) http.Handler {
	if auth == nil {
		return nil
	}
	return []func(http.Handler) http.Handler{auth.Middleware}
}
