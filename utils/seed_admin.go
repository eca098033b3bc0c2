package utils

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/medportal/medportalbackend/models"
	"github.com/rs/zerolog"
)

// AdminEnsurer inserts an admin account unless one with the same username
// already exists.
type AdminEnsurer interface {
	EnsureAdmin(ctx context.Context, account *models.Account) (bool, error)
}

// SeedAdminAccount makes sure the configured bootstrap admin exists. It is a
// no-op when either username or password is empty.
func SeedAdminAccount(ctx context.Context, store AdminEnsurer, hasher *PasswordHasher, username, password, organisation string, log zerolog.Logger) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		log.Debug().Msg("admin seeding skipped: ADMIN_USERNAME or ADMIN_PASSWORD not set")
		return nil
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	created, err := store.EnsureAdmin(ctx, &models.Account{
		Username:     username,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Organisation: organisation,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	if created {
		log.Info().Str("username", username).Msg("admin account seeded")
	} else {
		log.Info().Str("username", username).Msg("admin account already exists")
	}
	return nil
}
