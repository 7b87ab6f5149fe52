package api

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/stratoview/cloudsync/pkg/manager"
	"github.com/stratoview/cloudsync/pkg/models"
)

type CustomerResponse struct {
	Data *models.Customer `json:"data"`
}

func (s *Server) HandleCreateCustomer(c fiber.Ctx) error {
	var req manager.CreateCustomerRequest

	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	customer, err := s.customers.Create(c.Context(), req)

	if errors.Is(err, manager.ErrInvalidRequest) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to create customer"})
	}

	return c.Status(fiber.StatusCreated).JSON(CustomerResponse{Data: customer})
}
