package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/medportal/medportalbackend/events"
	"github.com/medportal/medportalbackend/models"
	"github.com/medportal/medportalbackend/utils"
	"github.com/rs/zerolog"
)

// AccountStore is the credential and document store.
type AccountStore interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
	FindByNationalID(ctx context.Context, nationalID string) (*models.Account, error)
	FindByID(ctx context.Context, id string) (*models.Account, error)
	ReplaceDocuments(ctx context.Context, accountID string, documents []string) error
}

type SessionStarter interface {
	StartSession(ctx context.Context, accountID string, role models.Role) (string, error)
}

type AuthService struct {
	accounts  AccountStore
	hasher    *utils.PasswordHasher
	sessions  SessionStarter
	publisher events.Publisher
	log       zerolog.Logger
}

func NewAuthService(accounts AccountStore, hasher *utils.PasswordHasher, sessions SessionStarter, publisher events.Publisher, log zerolog.Logger) *AuthService {
	return &AuthService{
		accounts:  accounts,
		hasher:    hasher,
		sessions:  sessions,
		publisher: publisher,
		log:       log,
	}
}

type SignupInput struct {
	Username     string
	Password     string
	Role         models.Role
	Organisation string
	NationalID   string
}

// Signup creates an account. Only the attribute matching the role is kept:
// the national ID for users, the organisation for admins. Usernames are not
// checked for uniqueness.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.Account, error) {
	username := strings.TrimSpace(in.Username)
	switch {
	case username == "":
		return nil, fmt.Errorf("%w: username is required", models.ErrValidation)
	case in.Password == "":
		return nil, fmt.Errorf("%w: password is required", models.ErrValidation)
	case !in.Role.Valid():
		return nil, fmt.Errorf("%w: role must be %q or %q", models.ErrValidation, models.RoleUser, models.RoleAdmin)
	}

	hash, err := s.hasher.Hash(in.Password)
	if errors.Is(err, models.ErrValidation) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrAccountCreation, err)
	}

	account := &models.Account{
		Username:     username,
		PasswordHash: hash,
		Role:         in.Role,
	}
	if in.Role == models.RoleUser {
		account.NationalID = strings.TrimSpace(in.NationalID)
	} else {
		account.Organisation = strings.TrimSpace(in.Organisation)
	}

	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrAccountCreation, err)
	}

	s.publish(ctx, events.New(events.AccountCreated, account.ID.Hex(), map[string]any{"role": account.Role}))
	return account, nil
}

type LoginResult struct {
	Account     *models.Account
	Token       string
	RedirectURL string
}

// Login checks the credentials and opens a session. Unknown usernames and
// wrong passwords both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	account, err := s.accounts.FindByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}

	ok, err := s.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password for %s: %w", account.ID.Hex(), err)
	}
	if !ok {
		return nil, models.ErrInvalidCredentials
	}

	token, err := s.sessions.StartSession(ctx, account.ID.Hex(), account.Role)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	return &LoginResult{
		Account:     account,
		Token:       token,
		RedirectURL: account.Role.RedirectURL(),
	}, nil
}

// Account returns the account behind a session.
func (s *AuthService) Account(ctx context.Context, id string) (*models.Account, error) {
	return s.accounts.FindByID(ctx, id)
}

func (s *AuthService) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.Warn().Err(err).Str("event", e.Name).Str("account_id", e.AccountID).Msg("event publish failed")
	}
}
