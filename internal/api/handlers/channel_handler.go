package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/postlane/postlane/internal/service"
	"github.com/postlane/postlane/internal/transfer"
)

type ChannelHandler struct {
	s service.ChannelService
}

func NewChannelHandler(service service.ChannelService) *ChannelHandler {
	return &ChannelHandler{s: service}
}

func (h *ChannelHandler) ConnectChannel(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.ChannelConnect
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	channelID, err := h.s.Connect(c.Context(), userID, &req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"id": channelID,
	})
}

func (h *ChannelHandler) ListChannels(c *fiber.Ctx) error {
	userID := GetUserID(c)

	channels, err := h.s.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list channels",
		})
	}

	return c.Status(fiber.StatusOK).JSON(channels)
}

func (h *ChannelHandler) DisconnectChannel(c *fiber.Ctx) error {
	userID := GetUserID(c)
	channelID := c.Query("id")
	if channelID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing channel id",
		})
	}

	if err := h.s.Disconnect(c.Context(), userID, channelID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
