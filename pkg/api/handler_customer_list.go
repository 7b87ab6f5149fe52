package api

import (
	"github.com/gofiber/fiber/v3"

	"github.com/stratoview/cloudsync/pkg/models"
)

type ListCustomersResponse struct {
	Customers []models.Customer `json:"customers"`
	Total     int64             `json:"total"`
}

func (s *Server) HandleListCustomers(c fiber.Ctx) error {
	customers, err := s.customers.List(c.Context())

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to fetch customers"})
	}

	return c.JSON(ListCustomersResponse{
		Customers: customers,
		Total:     int64(len(customers)),
	})
}
