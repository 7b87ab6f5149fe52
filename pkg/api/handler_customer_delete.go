package api

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/stratoview/cloudsync/pkg/manager"
)

func (s *Server) HandleDeleteCustomer(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))

	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid customer id"})
	}

	err = s.customers.Delete(c.Context(), id)

	if errors.Is(err, manager.ErrCustomerNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error()})
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to delete customer"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
