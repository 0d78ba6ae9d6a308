package services

import (
	"context"
	"errors"

	"beiboot-backend/internal/auth"
	"beiboot-backend/internal/database"
	"beiboot-backend/internal/models"
)

type UserService struct {
	store Store
}

func NewUserService(store Store) *UserService {
	return &UserService{store: store}
}

// Me returns the caller's user row, or the token identity when the caller
// has not created anything yet.
func (s *UserService) Me(ctx context.Context, caller *auth.Principal) (*models.User, error) {
	user, err := s.store.GetUser(ctx, caller.ID)
	if errors.Is(err, database.ErrNotFound) {
		return &models.User{ID: caller.ID, Username: caller.Username}, nil
	}
	if err != nil {
		return nil, Upstream("could not load user", err)
	}
	return user, nil
}
