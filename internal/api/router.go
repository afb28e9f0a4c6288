// Fireline - Fire Incident Dispatch and Realtime Notifications
// Copyright 2026 Fireline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/firelinehq/fireline

// Package api provides HTTP routing using the Chi router.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/firelinehq/fireline/internal/auth"
	"github.com/firelinehq/fireline/internal/middleware"
	"github.com/firelinehq/fireline/internal/models"
)

// Router sets up HTTP routes using the Chi router.
type Router struct {
	handler       *Handler
	middleware    *auth.Middleware
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a new router with all routes configured.
func NewRouter(handler *Handler, authMiddleware *auth.Middleware) *Router {
	cfg := handler.config
	chiMw := NewChiMiddlewareFromSecurity(
		cfg.Security.CORSOrigins,
		cfg.Security.RateLimitReqs,
		cfg.Security.RateLimitWindow,
		cfg.Security.RateLimitDisabled,
	)

	return &Router{
		handler:       handler,
		middleware:    authMiddleware,
		chiMiddleware: chiMw,
	}
}

// chiMiddleware adapts http.HandlerFunc middleware to Chi's
// func(http.Handler) http.Handler, so the auth and metrics middleware
// work with Chi's r.Use().
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// requireRole adapts the auth role check into a Chi route middleware.
func (router *Router) requireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return router.middleware.RequireAnyRole(roles, next.ServeHTTP)
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight

	// Prometheus scrape endpoint.
	r.Handle("/metrics", promhttp.Handler())

	// Health endpoints: permissive rate limiting so monitoring can poll
	// frequently, no auth.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
		r.Get("/", router.handler.Health)
	})

	// Authentication endpoints: strict rate limiting against brute force.
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitAuth())
		r.Use(APISecurityHeaders())

		// Login has the strictest limit (5 attempts per 5 minutes per IP).
		r.With(router.chiMiddleware.RateLimitLogin()).Post("/login", router.handler.Login)
		r.Post("/logout", router.handler.Logout)
		r.With(chiMiddleware(router.middleware.Authenticate)).Get("/me", router.handler.Me)
	})

	// Data endpoints: all require authentication.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiMiddleware(router.middleware.Authenticate))

		// Realtime endpoint. The handler re-checks the token itself so the
		// query-param form works for browser clients.
		r.With(router.chiMiddleware.RateLimitWebSocket()).Get("/ws", router.handler.WebSocket)

		r.Route("/incidents", func(r chi.Router) {
			r.Get("/", router.handler.ListIncidents)
			r.With(router.chiMiddleware.RateLimitWrite()).Post("/", router.handler.CreateIncident)
			r.Get("/{id}", router.handler.GetIncident)
			r.With(router.chiMiddleware.RateLimitWrite()).Put("/{id}", router.handler.UpdateIncident)
			r.With(router.requireRole(models.RoleAdmin)).Delete("/{id}", router.handler.DeleteIncident)

			dispatcherOnly := router.requireRole(models.RoleAdmin, models.RoleCentralDispatcher)
			r.With(dispatcherOnly, router.chiMiddleware.RateLimitWrite()).Post("/{id}/assign", router.handler.AssignIncident)
			r.With(router.chiMiddleware.RateLimitWrite()).Post("/{id}/status", router.handler.UpdateIncidentStatus)

			r.Get("/{id}/reports", router.handler.ListIncidentReports)
			r.With(router.chiMiddleware.RateLimitWrite()).Post("/{id}/reports", router.handler.CreateIncidentReport)
		})

		r.Route("/stations", func(r chi.Router) {
			adminOnly := router.requireRole(models.RoleAdmin)
			r.Get("/", router.handler.ListStations)
			r.With(adminOnly).Post("/", router.handler.CreateStation)
			r.Get("/{id}", router.handler.GetStation)
			r.With(adminOnly).Put("/{id}", router.handler.UpdateStation)
			r.With(adminOnly).Delete("/{id}", router.handler.DeleteStation)
		})

		r.Route("/vehicles", func(r chi.Router) {
			r.Get("/", router.handler.ListVehicles)
			r.With(router.chiMiddleware.RateLimitWrite()).Post("/", router.handler.CreateVehicle)
			r.Get("/{id}", router.handler.GetVehicle)
			r.With(router.chiMiddleware.RateLimitWrite()).Put("/{id}", router.handler.UpdateVehicle)
			r.With(router.requireRole(models.RoleAdmin)).Delete("/{id}", router.handler.DeleteVehicle)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(router.requireRole(models.RoleAdmin))
			r.Get("/", router.handler.ListUsers)
			r.Post("/", router.handler.CreateUser)
			r.Get("/{id}", router.handler.GetUser)
			r.Put("/{id}", router.handler.UpdateUser)
			r.Delete("/{id}", router.handler.DeleteUser)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", router.handler.GetSettings)
			r.With(router.requireRole(models.RoleAdmin)).Put("/", router.handler.UpdateSettings)
		})
	})

	// Consistent envelope for unknown routes and bad methods.
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		WriteNotFound(w, req, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		WriteError(w, req, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
	})

	return r
}
