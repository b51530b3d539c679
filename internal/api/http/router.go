package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/chamado-service/internal/api/http/handlers"
	"github.com/spec-kit/chamado-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Assignments    *handlers.AssignmentsHandler
	Dashboard      *handlers.DashboardHandler
	QueueSocket    *handlers.QueueSocketHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Static ticket paths are registered
// before /:id so they are matched first.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	if cfg.QueueSocket != nil {
		app.Get("/ws/queue", cfg.QueueSocket.Upgrade, cfg.AuthMiddleware.Handle, auth.RequireStaff(), cfg.QueueSocket.Serve())
	}

	api := app.Group("/api", cfg.AuthMiddleware.Handle)
	api.Get("/dashboard", auth.RequireStaff(), cfg.Dashboard.Dashboard)

	tickets := api.Group("/tickets")
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", auth.RequireStaff(), cfg.Tickets.ListTickets)
	tickets.Get("/mine", cfg.Tickets.ListMine)
	tickets.Get("/queue", auth.RequireStaff(), cfg.Assignments.Queue)
	tickets.Get("/assignments", auth.RequireStaff(), cfg.Assignments.MyAssignments)

	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/history", cfg.Tickets.History)
	tickets.Post("/:id/claim", auth.RequireStaff(), cfg.Assignments.Claim)
	tickets.Post("/:id/start", cfg.Tickets.StartTicket)
	tickets.Post("/:id/resolve", cfg.Tickets.ResolveTicket)
	tickets.Post("/:id/reopen", auth.RequireAdmin(), cfg.Tickets.ReopenTicket)
	tickets.Post("/:id/follow-ups", cfg.Tickets.AddFollowUp)
}
