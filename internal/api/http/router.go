package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/repairflow/workorder-service/internal/api/http/handlers"
	"github.com/repairflow/workorder-service/internal/auth"
	"github.com/repairflow/workorder-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Public         *handlers.PublicHandler
	Tickets        *handlers.TicketsHandler
	Dispatch       *handlers.DispatchHandler
	Attachments    *handlers.AttachmentsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	// Unauthenticated customer surface. Track routes authenticate by the
	// (ticket id, phone, ticket number) triple inside the handler.
	public := app.Group("/public")
	public.Post("/tickets", cfg.Public.CreateTicket)
	public.Get("/periods", cfg.Public.AvailablePeriods)
	public.Get("/track", cfg.Public.TrackByNumber)
	public.Get("/track/:id", cfg.Public.Track)
	public.Post("/track/:id/supplement", cfg.Public.Supplement)
	public.Post("/track/:id/confirm-time", cfg.Public.ConfirmTime)
	public.Post("/track/:id/reschedule", cfg.Public.Reschedule)
	public.Post("/track/:id/confirm-quote", cfg.Public.ConfirmQuote)
	public.Post("/track/:id/cancel", cfg.Public.Cancel)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/register",
		cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleCoordinator), cfg.Auth.Register)

	staff := app.Group("/staff", cfg.AuthMiddleware.Handle)

	tickets := staff.Group("/tickets")
	tickets.Get("/", cfg.Tickets.List)
	tickets.Post("/", auth.RequireRole(domain.RoleCoordinator), cfg.Tickets.Create)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Patch("/:id/contact", cfg.Tickets.UpdateContact)
	tickets.Patch("/:id/internal", auth.RequireRole(domain.RoleCoordinator), cfg.Tickets.UpdateInternal)
	tickets.Post("/:id/request-info", auth.RequireRole(domain.RoleCoordinator), cfg.Tickets.RequestInfo)
	tickets.Post("/:id/status", auth.RequireRole(domain.RoleCoordinator), cfg.Tickets.ChangeStatus)
	tickets.Post("/:id/cancel", cfg.Tickets.Cancel)
	tickets.Post("/:id/reopen", auth.RequireRole(domain.RoleCoordinator), cfg.Tickets.Reopen)
	tickets.Post("/:id/close", auth.RequireCapability(domain.CapCloseTicket), cfg.Tickets.Close)

	tickets.Post("/:id/dispatch", auth.RequireCapability(domain.CapDispatch), cfg.Dispatch.Dispatch)
	tickets.Post("/:id/accept", auth.RequireCapability(domain.CapAcceptTicket), cfg.Dispatch.Accept)
	tickets.Post("/:id/cancel-acceptance", auth.RequireRole(domain.RoleTechnician), cfg.Dispatch.CancelAcceptance)
	tickets.Post("/:id/select-slot", auth.RequireCapability(domain.CapProposeTime), cfg.Dispatch.SelectSlot)
	tickets.Post("/:id/propose-slots", auth.RequireCapability(domain.CapProposeTime), cfg.Dispatch.ProposeSlots)
	tickets.Post("/:id/confirm-time", auth.RequireRole(domain.RoleCoordinator), cfg.Dispatch.ConfirmTime)
	tickets.Post("/:id/reschedule", cfg.Dispatch.Reschedule)
	tickets.Post("/:id/assistants", cfg.Dispatch.AddAssistant)
	tickets.Delete("/:id/assistants/:userId", cfg.Dispatch.RemoveAssistant)
	tickets.Get("/:id/dispatches", auth.RequireRole(domain.RoleCoordinator), cfg.Dispatch.History)

	tickets.Post("/:id/quote", auth.RequireCapability(domain.CapSubmitQuote), cfg.Tickets.SubmitQuote)
	tickets.Post("/:id/confirm-quote", auth.RequireRole(domain.RoleCoordinator), cfg.Tickets.ConfirmQuote)
	tickets.Post("/:id/complete", auth.RequireCapability(domain.CapComplete), cfg.Tickets.Complete)

	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Get("/:id/comments", cfg.Tickets.ListComments)
	tickets.Get("/:id/audit", auth.RequireRole(domain.RoleCoordinator), cfg.Tickets.AuditTrail)

	tickets.Post("/:id/attachments", cfg.Attachments.Upload)
	tickets.Get("/:id/attachments", cfg.Attachments.List)
	staff.Get("/attachments/:id", cfg.Attachments.Download)
}
