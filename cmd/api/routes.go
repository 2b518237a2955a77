package main

import (
	"net/http"

	httphandlers "ontime/internal/interfaces/http"
	"ontime/internal/shared/config"
	"ontime/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", httphandlers.HandleHealth)

	// Public auth routes
	mux.HandleFunc("/api/auth/register", deps.AuthHandler.HandleRegister)
	mux.HandleFunc("/api/auth/login", deps.AuthHandler.HandleLogin)

	// Protected routes
	authMiddleware := middleware.Auth(deps.JWT)

	mux.Handle("/api/reminders", authMiddleware(http.HandlerFunc(deps.ReminderHandler.HandleReminders)))
	mux.Handle("/api/reminders/{id}", authMiddleware(http.HandlerFunc(deps.ReminderHandler.HandleReminderByID)))
	mux.Handle("/api/canvas/connect", authMiddleware(http.HandlerFunc(deps.CanvasHandler.HandleConnect)))
	mux.Handle("/api/canvas/connection", authMiddleware(http.HandlerFunc(deps.CanvasHandler.HandleGetConnection)))
	mux.Handle("/api/canvas/sync", authMiddleware(http.HandlerFunc(deps.CanvasHandler.HandleSync)))

	// Apply global middleware
	handler := middleware.Logging(middleware.CORS(mux))
	if cfg.Telemetry.Enabled {
		handler = middleware.Telemetry(middleware.Tracing(handler))
	}

	return handler
}
