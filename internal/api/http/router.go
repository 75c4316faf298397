package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-io/ticket-service/internal/api/http/handlers"
	"github.com/helpdesk-io/ticket-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Catalog        *handlers.CatalogHandler
	Tickets        *handlers.TicketsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Get("/availability/email", cfg.Users.EmailAvailability)
	authGroup.Get("/availability/rut", cfg.Users.RUTAvailability)

	api := app.Group("/api", cfg.AuthMiddleware.Handle)

	api.Get("/departments", cfg.Catalog.ListDepartments)
	api.Get("/departments/:id", cfg.Catalog.GetDepartment)
	api.Post("/departments", auth.RequireAdmin(), cfg.Catalog.CreateDepartment)
	api.Patch("/departments/:id", auth.RequireAdmin(), cfg.Catalog.UpdateDepartment)
	api.Get("/priorities", cfg.Catalog.ListPriorities)
	api.Get("/statuses", cfg.Catalog.ListStatuses)

	api.Get("/users/me", cfg.Users.Me)
	api.Get("/users", auth.RequireAdmin(), cfg.Users.ListUsers)
	api.Post("/users", auth.RequireAdmin(), cfg.Users.CreateUser)
	api.Get("/users/:id", cfg.Users.GetUser)
	api.Patch("/users/:id", auth.RequireAdmin(), cfg.Users.UpdateUser)

	tickets := api.Group("/tickets")
	staff := auth.RequireStaff()
	tickets.Get("/queue/open", staff, cfg.Tickets.OpenQueue)
	tickets.Get("/queue/closed", staff, cfg.Tickets.ClosedQueue)
	tickets.Get("/queue/overdue", staff, cfg.Tickets.OverdueQueue)
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Get("/:id/history", cfg.Tickets.History)
	tickets.Post("/:id/take", staff, cfg.Tickets.TakeTicket)
	tickets.Post("/:id/derive", staff, cfg.Tickets.DeriveTicket)
}
