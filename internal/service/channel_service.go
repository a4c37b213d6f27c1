package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/postlane/postlane/internal/models"
	"github.com/postlane/postlane/internal/repository"
	"github.com/postlane/postlane/internal/transfer"
	"github.com/postlane/postlane/pkg/utils"
)

type ChannelService interface {
	Connect(ctx context.Context, userID string, req *transfer.ChannelConnect) (string, error)
	List(ctx context.Context, userID string) ([]*models.Channel, error)
	Disconnect(ctx context.Context, userID, channelID string) error
}

type channelService struct {
	cr       repository.ChannelRepository
	ur       repository.UserRepository
	events   EventService
	key      []byte
	validate *validator.Validate
}

func NewChannelService(cr repository.ChannelRepository, ur repository.UserRepository, events EventService, key []byte) ChannelService {
	return &channelService{
		cr:       cr,
		ur:       ur,
		events:   events,
		key:      key,
		validate: validator.New(),
	}
}

// Connect stores an already-authorized account. Tokens are encrypted before
// the channel row is written; the plaintext from the request goes no further.
func (s *channelService) Connect(ctx context.Context, userID string, req *transfer.ChannelConnect) (string, error) {
	if err := s.validate.Struct(req); err != nil {
		return "", fmt.Errorf("invalid channel data: %w", err)
	}

	user, err := s.ur.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", errors.New("user not found")
	}

	tokenEncrypted, err := utils.Encrypt([]byte(req.AccessToken), s.key)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt token: %w", err)
	}

	var refreshEncrypted sql.NullString
	if req.RefreshToken != "" {
		enc, err := utils.Encrypt([]byte(req.RefreshToken), s.key)
		if err != nil {
			return "", fmt.Errorf("failed to encrypt refresh token: %w", err)
		}
		refreshEncrypted = sql.NullString{String: enc, Valid: true}
	}

	var expiresAt sql.NullTime
	if req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			return "", fmt.Errorf("invalid expiry format: %w", err)
		}
		expiresAt = sql.NullTime{Time: t, Valid: true}
	}

	channelID, err := gonanoid.New()
	if err != nil {
		return "", err
	}

	channel := models.Channel{
		ID:                    channelID,
		WorkspaceID:           user.WorkspaceID,
		Provider:              req.Provider,
		Type:                  req.Type,
		Name:                  req.Name,
		ExternalID:            req.ExternalID,
		TokenEncrypted:        sql.NullString{String: tokenEncrypted, Valid: true},
		RefreshTokenEncrypted: refreshEncrypted,
		ExpiresAt:             expiresAt,
	}
	if err := s.cr.Create(ctx, &channel); err != nil {
		return "", fmt.Errorf("error creating channel: %w", err)
	}

	s.events.LogEvent(ctx, transfer.Event{
		WorkspaceID: user.WorkspaceID,
		ChannelID:   channelID,
		UserID:      userID,
		Action:      "channel.connected",
		Message:     fmt.Sprintf("Channel connected: %s (%s)", req.Name, req.Type),
	})

	return channelID, nil
}

func (s *channelService) List(ctx context.Context, userID string) ([]*models.Channel, error) {
	user, err := s.ur.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user not found")
	}
	return s.cr.ListByWorkspace(ctx, user.WorkspaceID)
}

func (s *channelService) Disconnect(ctx context.Context, userID, channelID string) error {
	user, err := s.ur.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return errors.New("user not found")
	}

	channel, err := s.cr.GetByID(ctx, channelID)
	if err != nil {
		return err
	}
	if channel == nil || channel.WorkspaceID != user.WorkspaceID {
		return errors.New("channel not found")
	}

	if err := s.cr.SetConnected(ctx, channelID, false); err != nil {
		return fmt.Errorf("error disconnecting channel: %w", err)
	}

	s.events.LogEvent(ctx, transfer.Event{
		WorkspaceID: user.WorkspaceID,
		ChannelID:   channelID,
		UserID:      userID,
		Action:      "channel.disconnected",
		Message:     fmt.Sprintf("Channel disconnected: %s", channel.Name),
	})

	return nil
}
