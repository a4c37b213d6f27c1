package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/postlane/postlane/configs"
	"github.com/postlane/postlane/internal/service"
	"github.com/postlane/postlane/pkg/utils"
)

type AuthHandler struct {
	cfg config.Config
	s   service.ApiKeyService
}

func NewAuthHandler(cfg config.Config, service service.ApiKeyService) *AuthHandler {
	return &AuthHandler{cfg: cfg, s: service}
}

// CreateSession exchanges a valid API key for a short-lived session cookie,
// so browser clients don't have to send the key on every request.
func (h *AuthHandler) CreateSession(c *fiber.Ctx) error {
	apiKey := c.Get("X-Api-Key")
	if apiKey == "" {
		apiKey = c.Query("api_key")
	}
	if apiKey == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Missing API key",
		})
	}

	userID, err := h.s.GetUserID(c.Context(), apiKey)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	token, err := utils.GenerateToken(h.cfg.SecretKey, userID, 24*time.Hour)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to create session",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		SameSite: "Lax",
		MaxAge:   int((24 * time.Hour).Seconds()),
	})

	return c.SendStatus(fiber.StatusOK)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:   h.cfg.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	return c.SendStatus(fiber.StatusOK)
}
