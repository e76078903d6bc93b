package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"resort/internal/config"
	"resort/internal/domain"
	"resort/internal/models"

	"github.com/rs/zerolog"
)

// ErrUnauthenticated is returned when a request carries no known API key.
var ErrUnauthenticated = errors.New("unauthenticated")

type UserService struct {
	repo   domain.UserStore
	logger *zerolog.Logger
	keys   map[string]string
}

func NewUserService(repo domain.UserStore, keys []config.APIClientKey, logger *zerolog.Logger) *UserService {
	byKey := make(map[string]string, len(keys))
	for _, k := range keys {
		byKey[k.Key] = k.Username
	}
	return &UserService{repo: repo, logger: logger, keys: byKey}
}

// Authenticate resolves an API key to the principal of its user account.
func (s *UserService) Authenticate(ctx context.Context, apiKey string) (models.Principal, error) {
	username, ok := s.keys[apiKey]
	if !ok || apiKey == "" {
		return models.Principal{}, ErrUnauthenticated
	}

	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		s.logger.Warn().Err(err).Str("username", username).Msg("API key bound to unknown user")
		return models.Principal{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	return models.Principal{UserID: user.ID, Username: user.Username, IsAdmin: user.IsAdmin}, nil
}

func (s *UserService) CreateUser(ctx context.Context, user *models.User) error {
	user.Username = strings.TrimSpace(user.Username)
	if user.Username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidArgument)
	}
	return translate(s.repo.CreateUser(ctx, user))
}

func (s *UserService) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.repo.ListUsers(ctx)
	return users, translate(err)
}

func (s *UserService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	return user, translate(err)
}
