package api

import (
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/stratoview/cloudsync/pkg/models"
	"github.com/stratoview/cloudsync/pkg/reporting"
)

type ListResourcesResponse struct {
	Resources []models.AzureResource `json:"resources"`
	Total     int64                  `json:"total"`
}

func (s *Server) HandleListResources(c fiber.Ctx) error {
	filter := reporting.ResourceFilter{
		Type:   c.Query("type"),
		Status: c.Query("status"),
	}

	if raw := c.Query("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)

		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid customer id"})
		}

		filter.CustomerID = &id
	}

	resources, err := s.reporter.QueryResources(c.Context(), filter)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to fetch resources"})
	}

	return c.JSON(ListResourcesResponse{
		Resources: resources,
		Total:     int64(len(resources)),
	})
}
