package api

import (
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

func (s *Server) HandleDashboardMetrics(c fiber.Ctx) error {
	var customerID *uuid.UUID

	if raw := c.Query("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)

		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid customer id"})
		}

		customerID = &id
	}

	m, err := s.reporter.DashboardMetrics(c.Context(), customerID)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to fetch dashboard metrics"})
	}

	return c.JSON(m)
}
