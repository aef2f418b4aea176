package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/capacity-service/internal/api/http/handlers"
	"github.com/spec-kit/capacity-service/internal/auth"
	"github.com/spec-kit/capacity-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Capacity       *handlers.CapacityHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	capacityGroup := app.Group("/api/capacity", cfg.AuthMiddleware.Handle)

	capacityGroup.Get("/departments", auth.RequireRole(), cfg.Capacity.ListDepartmentCapacity)
	capacityGroup.Get("/departments/:id", auth.RequireRole(), cfg.Capacity.GetDepartmentCapacity)
	capacityGroup.Put("/departments/:id/target", auth.RequireRole(auth.RoleAdmin), cfg.Capacity.UpdateCapacityTarget)

	planners := auth.RequireRole(auth.RoleAdmin, auth.RolePlanner)
	capacityGroup.Post("/validate", planners, cfg.Capacity.ValidateCapacity)
	capacityGroup.Post("/suggest-alternatives", planners, cfg.Capacity.SuggestAlternatives)
	capacityGroup.Post("/schedule", planners, cfg.Capacity.CommitSchedule)
}
