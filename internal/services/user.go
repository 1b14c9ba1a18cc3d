package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/psimmons86/playdates-server/internal/model"
	"github.com/psimmons86/playdates-server/internal/store"
)

type UserService struct {
	store store.Store
}

func NewUserService(s store.Store) *UserService {
	return &UserService{store: s}
}

func (s *UserService) CreateUser(ctx context.Context, u *model.User) (*model.User, error) {
	if u.UserID == "" {
		return nil, fmt.Errorf("%w: userId is required", model.ErrValidation)
	}
	if u.Email == "" || !strings.Contains(u.Email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", model.ErrValidation)
	}
	return s.store.Users().Create(ctx, u)
}

func (s *UserService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.store.Users().Get(ctx, userID)
}

func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	return s.store.Users().Delete(ctx, userID)
}
