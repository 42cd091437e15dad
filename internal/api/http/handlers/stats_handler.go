package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/guild-ticket-bot/internal/observability"
	"github.com/spec-kit/guild-ticket-bot/internal/repository"
)

// StatsHandler serves operator statistics on the protected admin route.
type StatsHandler struct {
	tickets repository.TicketRepository
	metrics *observability.Metrics
}

// NewStatsHandler constructs handler.
func NewStatsHandler(tickets repository.TicketRepository, metrics *observability.Metrics) *StatsHandler {
	return &StatsHandler{tickets: tickets, metrics: metrics}
}

// Stats GET /admin/stats.
func (h *StatsHandler) Stats(c *fiber.Ctx) error {
	counts, err := h.tickets.CountOpenByGuild(c.UserContext())
	if err != nil {
		return err
	}
	operations, opErrors := h.metrics.Snapshot()
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"open_tickets_by_guild": counts,
			"operations":            operations,
			"errors":                opErrors,
		},
	})
}
