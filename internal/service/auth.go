package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lendcore/lending-os/internal/apperr"
	"github.com/lendcore/lending-os/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// Register creates a new user with hashed password
func (s *Service) Register(ctx context.Context, orgID int64, username, email, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, apperr.E(apperr.ErrInvalidInput, "email and password are required")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		OrganizationID: orgID,
		Username:       username,
		Email:          email,
		PasswordHash:   string(hashedPassword),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.log.Infof("User registered: %s (org %d)", user.Email, orgID)
	return user, nil
}

// Login authenticates a user and returns a JWT token carrying the user
// and organization ids.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		return "", apperr.E(apperr.ErrUnauthorized, "invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", apperr.E(apperr.ErrUnauthorized, "invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": fmt.Sprintf("%d", user.ID),
		"org": fmt.Sprintf("%d", user.OrganizationID),
		"exp": jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s", user.Email)
	return tokenString, nil
}
