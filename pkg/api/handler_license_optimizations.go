package api

import (
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/stratoview/cloudsync/pkg/reporting"
)

type LicenseOptimizationsResponse struct {
	Optimizations []reporting.LicenseOptimization `json:"optimizations"`
}

func (s *Server) HandleLicenseOptimizations(c fiber.Ctx) error {
	var customerID *uuid.UUID

	if raw := c.Query("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)

		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid customer id"})
		}

		customerID = &id
	}

	optimizations, err := s.reporter.LicenseOptimizations(c.Context(), customerID)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to fetch license optimizations"})
	}

	return c.JSON(LicenseOptimizationsResponse{Optimizations: optimizations})
}
