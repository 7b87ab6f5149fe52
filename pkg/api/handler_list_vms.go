package api

import (
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/stratoview/cloudsync/pkg/reporting"
)

type ListVirtualMachinesResponse struct {
	VirtualMachines []reporting.VirtualMachineView `json:"virtual_machines"`
	Total           int64                          `json:"total"`
}

func (s *Server) HandleListVirtualMachines(c fiber.Ctx) error {
	var customerID *uuid.UUID

	if raw := c.Query("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)

		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid customer id"})
		}

		customerID = &id
	}

	views, err := s.reporter.ListVirtualMachines(c.Context(), customerID)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to fetch virtual machines"})
	}

	return c.JSON(ListVirtualMachinesResponse{
		VirtualMachines: views,
		Total:           int64(len(views)),
	})
}
