package api

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/stratoview/cloudsync/pkg/manager"
)

func (s *Server) HandleUpdateCustomer(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))

	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid customer id"})
	}

	var req manager.UpdateCustomerRequest

	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	customer, err := s.customers.Update(c.Context(), id, req)

	if errors.Is(err, manager.ErrCustomerNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error()})
	}

	if errors.Is(err, manager.ErrInvalidRequest) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to update customer"})
	}

	return c.JSON(CustomerResponse{Data: customer})
}
