package service

import (
	"context"
	"errors"

	"github.com/postlane/postlane/internal/models"
	"github.com/postlane/postlane/internal/repository"
)

type UserService interface {
	GetUserInfo(ctx context.Context, userID string) (*models.User, error)
}

type userService struct {
	ur repository.UserRepository
}

func NewUserService(ur repository.UserRepository) UserService {
	return &userService{ur: ur}
}

func (s *userService) GetUserInfo(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.ur.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user not found")
	}
	return user, nil
}
