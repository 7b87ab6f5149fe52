package api

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/stratoview/cloudsync/pkg/syncer"
)

type SyncRequest struct {
	CustomerID *uuid.UUID `json:"customer_id"`
}

type SyncResponse struct {
	Runs []*syncer.SyncRun `json:"runs"`
}

// HandleSync triggers a sync for one customer or for all active customers.
// Runs synchronously and returns the per-customer reports.
func (s *Server) HandleSync(c fiber.Ctx) error {
	ctx := c.Context()

	var req SyncRequest

	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
		}
	}

	if req.CustomerID != nil {
		run, err := s.syncer.SyncCustomer(ctx, *req.CustomerID)

		if errors.Is(err, syncer.ErrCustomerNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error()})
		}

		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "sync failed"})
		}

		return c.JSON(SyncResponse{Runs: []*syncer.SyncRun{run}})
	}

	runs := s.syncer.SyncAll(ctx)

	return c.JSON(SyncResponse{Runs: runs})
}
