package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// NewApp creates the fiber application with every route registered.
func NewApp(h *Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "questd",
		ErrorHandler:          h.ErrorHandler,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New())

	SetupRoutes(app, h)
	return app
}

// SetupRoutes registers the read and action routes.
func SetupRoutes(app *fiber.App, h *Handler) {
	app.Get("/health", h.Health)

	app.Get("/events", h.ListEvents)
	app.Get("/events/:id", h.GetEvent)
	app.Get("/accounts/:address/events", h.AccountEvents)
	app.Get("/accounts/:address/participation", h.AccountParticipation)
	app.Get("/accounts/:address/balances", h.AccountBalances)
	app.Post("/refresh", h.Refresh)

	app.Post("/events", h.CreateEvent)
	app.Post("/events/:id/join", h.JoinEvent)
	app.Post("/events/:id/proof", h.SubmitProof)
	app.Post("/events/:id/claim", h.ClaimReward)
	app.Post("/events/:id/verify", h.VerifyParticipants)
	app.Post("/token/buy", h.BuyToken)
}
