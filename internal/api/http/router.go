package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Messages       *handlers.MessagesHandler
	Profiles       *handlers.ProfilesHandler
	Experts        *handlers.ExpertsHandler
	Catalog        *handlers.CatalogHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/signup", cfg.Auth.Signup)
	app.Post("/login", cfg.Auth.Login)

	app.Get("/products", cfg.Catalog.ListProducts)
	app.Get("/products/search/:name", cfg.Catalog.SearchProducts)
	app.Get("/products/:id", cfg.Catalog.GetProduct)
	app.Get("/expertises", cfg.Catalog.ListExpertises)
	app.Get("/expertises/search/:name", cfg.Catalog.SearchExpertises)

	authed := cfg.AuthMiddleware.Handle
	manager := auth.RequireRole(domain.RoleManager)
	staff := auth.RequireRole(domain.RoleManager, domain.RoleExpert)

	app.Get("/me", authed, cfg.Auth.Me)
	app.Get("/metrics", authed, manager, cfg.Health.Metrics)
	app.Post("/expert", authed, manager, cfg.Auth.CreateExpert)
	app.Put("/products/:id", authed, manager, cfg.Catalog.SaveProduct)

	tickets := app.Group("/tickets", authed)
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/history", cfg.Tickets.History)
	tickets.Put("/:id/open", cfg.Tickets.Transition(domain.StatusOpen))
	tickets.Put("/:id/reopen", cfg.Tickets.Transition(domain.StatusReopened))
	tickets.Put("/:id/close", cfg.Tickets.Transition(domain.StatusClosed))
	tickets.Put("/:id/resolved", cfg.Tickets.Transition(domain.StatusResolved))
	tickets.Put("/:id/inprogress", manager, cfg.Tickets.InProgress)
	tickets.Put("/:id/priority/:priority", manager, cfg.Tickets.SetPriority)
	tickets.Get("/:id/messages", cfg.Messages.List)
	tickets.Post("/:id/message", cfg.Messages.Add)
	tickets.Put("/:id/messages/:index/ack", cfg.Messages.Ack)
	app.Get("/messages/unread", authed, cfg.Messages.Unread)

	profiles := app.Group("/profiles", authed)
	profiles.Get("", manager, cfg.Profiles.List)
	profiles.Put("/edit", cfg.Profiles.EditSelf)
	profiles.Get("/:email", cfg.Profiles.Get)
	profiles.Get("/:email/tickets", cfg.Profiles.Tickets)
	profiles.Put("/:email", manager, cfg.Profiles.Edit)

	app.Get("/experts", authed, manager, cfg.Experts.List)
	app.Get("/expert/:id", authed, staff, cfg.Experts.Get)
	app.Put("/experts/:id/expertise", authed, manager, cfg.Experts.AddExpertise)
	app.Delete("/experts/:id/expertise", authed, manager, cfg.Experts.RemoveExpertise)

	app.Get("/expertises/:field/experts", authed, staff, cfg.Experts.ListByExpertise)
	app.Post("/expertises", authed, manager, cfg.Catalog.CreateExpertise)
	app.Delete("/expertises/:field", authed, manager, cfg.Catalog.DeleteExpertise)
}
