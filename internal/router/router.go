package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/aulavid/aulavid-api/internal/config"
	"github.com/aulavid/aulavid-api/internal/handler"
	"github.com/aulavid/aulavid-api/internal/middleware"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler      *handler.AuthHandler
	SubjectHandler   *handler.SubjectHandler
	VideoHandler     *handler.VideoHandler
	StudentHandler   *handler.StudentHandler
	ProfessorHandler *handler.ProfessorHandler
	UploadHandler    *handler.UploadHandler
	WebhookHandler   *handler.WebhookHandler
	PortalHandler    *handler.PortalHandler
	LegacyHandler    *handler.LegacyHandler
	Redis            *redis.Client
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	api.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Public authentication. Verification and login share a tight limit so
	// code guessing stays expensive.
	if deps.AuthHandler != nil {
		auth := api.Group("/auth", middleware.RateLimit("auth", cfg.RateLimitMax, cfg.RateLimitWindow, deps.Redis))
		deps.AuthHandler.Register(auth)
	}

	// Provider callbacks carry their own signature check.
	if deps.WebhookHandler != nil {
		webhooks := api.Group("/webhooks")
		deps.WebhookHandler.Register(webhooks)
	}

	// Professor admin surface.
	admin := api.Group("/admin", middleware.JWTProtected(cfg.JWTSecret), middleware.RequireRole(middleware.RoleProfessor))
	if deps.SubjectHandler != nil {
		deps.SubjectHandler.Register(admin.Group("/subjects"))
	}
	if deps.VideoHandler != nil {
		deps.VideoHandler.Register(admin.Group("/videos"))
	}
	if deps.StudentHandler != nil {
		deps.StudentHandler.Register(admin.Group("/students"))
	}
	if deps.UploadHandler != nil {
		deps.UploadHandler.Register(admin.Group("/uploads"))
	}

	// Account provisioning sits behind the static superuser token, not JWT,
	// so it lives outside the /admin prefix.
	if deps.ProfessorHandler != nil {
		deps.ProfessorHandler.Register(api.Group("/superuser/professors", middleware.SuperuserProtected(cfg.AdminSecretToken)))
	}

	// Student portal.
	student := api.Group("/student", middleware.JWTProtected(cfg.JWTSecret), middleware.RequireRole(middleware.RoleStudent))
	if deps.AuthHandler != nil {
		deps.AuthHandler.RegisterStudent(student.Group("/session"))
	}
	if deps.PortalHandler != nil {
		deps.PortalHandler.Register(student)
	}
	if deps.LegacyHandler != nil {
		deps.LegacyHandler.Register(student.Group("/legacy"))
	}
}
