package api

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/stratoview/cloudsync/pkg/manager"
)

// HandleDeactivateCustomer soft-disables a customer and cascades the removal
// of its synced inventory.
func (s *Server) HandleDeactivateCustomer(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))

	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid customer id"})
	}

	err = s.customers.Deactivate(c.Context(), id)

	if errors.Is(err, manager.ErrCustomerNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error()})
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to deactivate customer"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
