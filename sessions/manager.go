// Package sessions maps opaque cookie tokens to an authenticated account
// and role. The cookie carries an HS256-signed token whose jti names a
// server-side session record.
package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/medportal/medportalbackend/models"
)

type Manager struct {
	store  Store
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager builds a Manager. A zero ttl means sessions never expire.
func NewManager(store Store, secret string, ttl time.Duration) *Manager {
	return &Manager{store: store, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// StartSession always creates a fresh session; earlier sessions of the same
// account stay valid.
func (m *Manager) StartSession(ctx context.Context, accountID string, role models.Role) (string, error) {
	now := m.now().UTC()
	s := models.Session{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Role:      role,
		CreatedAt: now,
	}
	claims := jwt.RegisteredClaims{
		ID:       s.ID,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if m.ttl > 0 {
		s.ExpiresAt = now.Add(m.ttl)
		claims.ExpiresAt = jwt.NewNumericDate(s.ExpiresAt)
	}

	if err := m.store.Save(ctx, s); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

// CurrentSession resolves token to its session. Tampered, unknown and
// expired tokens resolve to (_, false, nil); only store failures are errors.
func (m *Manager) CurrentSession(ctx context.Context, token string) (models.Session, bool, error) {
	if token == "" {
		return models.Session{}, false, nil
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid || claims.ID == "" {
		return models.Session{}, false, nil
	}

	s, ok, err := m.store.Get(ctx, claims.ID)
	if err != nil {
		return models.Session{}, false, fmt.Errorf("load session: %w", err)
	}
	if !ok || s.Expired(m.now()) {
		return models.Session{}, false, nil
	}
	return s, true, nil
}
