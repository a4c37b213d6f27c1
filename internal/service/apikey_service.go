package service

import (
	"context"
	"errors"

	"github.com/postlane/postlane/internal/models"
	"github.com/postlane/postlane/internal/repository"
	"github.com/postlane/postlane/pkg/utils"
)

type ApiKeyService interface {
	Create(ctx context.Context, userID, label string) (string, error)
	GetUserID(ctx context.Context, rawKey string) (string, error)
	List(ctx context.Context, userID string) ([]*models.ApiKey, error)
	Remove(ctx context.Context, id int64, userID string) error
}

type apiKeyService struct {
	kr repository.ApiKeyRepository
}

func NewApiKeyService(kr repository.ApiKeyRepository) ApiKeyService {
	return &apiKeyService{kr: kr}
}

// Create returns the raw key exactly once; only its hash is stored.
func (s *apiKeyService) Create(ctx context.Context, userID, label string) (string, error) {
	rawKey, err := utils.GenerateRandomKey(32)
	if err != nil {
		return "", err
	}

	key := models.ApiKey{
		UserID:  userID,
		KeyHash: utils.HashKey(rawKey),
		Label:   label,
	}
	if _, err := s.kr.Create(ctx, &key); err != nil {
		return "", err
	}

	return rawKey, nil
}

func (s *apiKeyService) GetUserID(ctx context.Context, rawKey string) (string, error) {
	userID, err := s.kr.GetUserIDByHash(ctx, utils.HashKey(rawKey))
	if err != nil {
		return "", err
	}
	if userID == "" {
		return "", errors.New("invalid api key")
	}
	return userID, nil
}

func (s *apiKeyService) List(ctx context.Context, userID string) ([]*models.ApiKey, error) {
	return s.kr.ListByUserID(ctx, userID)
}

func (s *apiKeyService) Remove(ctx context.Context, id int64, userID string) error {
	return s.kr.Remove(ctx, id, userID)
}
