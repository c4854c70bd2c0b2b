package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nordbooks/tenauth/internal/auth/domain"
	"github.com/nordbooks/tenauth/internal/auth/store"
	"github.com/nordbooks/tenauth/pkg/cryptox"
	"github.com/nordbooks/tenauth/pkg/idx"
)

// RegistrationService creates self-registered accounts.
type RegistrationService struct {
	Store store.Store
}

// Register creates an active user with role "user" in the given tenant.
func (s *RegistrationService) Register(ctx context.Context, tenantID, username, password, email string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" || tenantID == "" {
		return domain.User{}, fmt.Errorf("register: tenant, username and password are required")
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("register: %w", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		PasswordHash: hash,
		Email:        email,
		TenantID:     tenantID,
		Role:         domain.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrUsernameTaken
		}
		return domain.User{}, fmt.Errorf("register: %w", err)
	}
	return user, nil
}
