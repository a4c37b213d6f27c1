package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger is the slice of *sql.DB the health check needs.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	response := fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := h.db.PingContext(c.Context()); err != nil {
		response["status"] = "error"
		response["database"] = err.Error()
		return c.Status(fiber.StatusInternalServerError).JSON(response)
	}

	response["database"] = "connected"
	return c.Status(fiber.StatusOK).JSON(response)
}
