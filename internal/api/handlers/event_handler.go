package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/postlane/postlane/internal/service"
)

type EventHandler struct {
	s  service.EventService
	us service.UserService
}

func NewEventHandler(events service.EventService, users service.UserService) *EventHandler {
	return &EventHandler{s: events, us: users}
}

func (h *EventHandler) ListEvents(c *fiber.Ctx) error {
	userID := GetUserID(c)

	user, err := h.us.GetUserInfo(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	limit := c.QueryInt("limit", 50)
	events, err := h.s.List(c.Context(), user.WorkspaceID, limit)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list events",
		})
	}

	return c.Status(fiber.StatusOK).JSON(events)
}
