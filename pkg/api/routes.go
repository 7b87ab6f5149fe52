package api

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) SetupRoutes(app *fiber.App) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "X-API-Key"},
	}))

	api := app.Group("/api/v1", s.AuthMiddleware())

	api.Post("/sync", s.HandleSync)

	api.Get("/resources", s.HandleListResources)
	api.Get("/vms", s.HandleListVirtualMachines)

	api.Get("/dashboard/metrics", s.HandleDashboardMetrics)
	api.Get("/licenses/optimizations", s.HandleLicenseOptimizations)

	api.Post("/customers", s.HandleCreateCustomer)
	api.Get("/customers", s.HandleListCustomers)
	api.Get("/customers/:id", s.HandleGetCustomer)
	api.Put("/customers/:id", s.HandleUpdateCustomer)
	api.Post("/customers/:id/deactivate", s.HandleDeactivateCustomer)
	api.Delete("/customers/:id", s.HandleDeleteCustomer)

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}
