package service

import (
	"crypto/subtle"
	"strings"

	"rekard/internal/repository"

	"go.uber.org/zap"
)

// AuthService gates the bot behind a shared password
type AuthService struct {
	userRepo    repository.UserRepository
	botPassword string
	logger      *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repository.UserRepository, botPassword string, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		botPassword: botPassword,
		logger:      logger,
	}
}

// CheckPassword verifies if provided password matches, ignoring surrounding spaces
func (s *AuthService) CheckPassword(password string) bool {
	password = strings.TrimSpace(password)
	if password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(s.botPassword)) == 1
}

// IsAuthorized checks if user is authorized
func (s *AuthService) IsAuthorized(userID int64) (bool, error) {
	return s.userRepo.IsAuthorized(userID)
}

// AuthorizeUser authorizes a user
func (s *AuthService) AuthorizeUser(userID int64) error {
	if err := s.userRepo.AuthorizeUser(userID); err != nil {
		return err
	}
	s.logger.Info("User authorized", zap.Int64("user_id", userID))
	return nil
}

// EnsureUserExists creates user record if doesn't exist
func (s *AuthService) EnsureUserExists(userID int64) error {
	return s.userRepo.EnsureUserExists(userID)
}
