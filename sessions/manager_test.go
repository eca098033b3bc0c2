package sessions

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/medportal/medportalbackend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_StartAndResolve(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore(), "secret", 0)

	token, err := m.StartSession(ctx, "acc-1", models.RoleUser)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	s, ok, err := m.CurrentSession(ctx, token)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "acc-1", s.AccountID)
	assert.Equal(t, models.RoleUser, s.Role)
	assert.True(t, s.ExpiresAt.IsZero())
}

func TestManager_ConcurrentSessionsForSameAccount(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore(), "secret", 0)

	first, err := m.StartSession(ctx, "acc-1", models.RoleAdmin)
	require.NoError(t, err)
	second, err := m.StartSession(ctx, "acc-1", models.RoleAdmin)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	for _, tok := range []string{first, second} {
		s, ok, err := m.CurrentSession(ctx, tok)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, models.RoleAdmin, s.Role)
	}
}

func TestManager_RejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := NewManager(store, "secret", 0)

	token, err := m.StartSession(ctx, "acc-1", models.RoleUser)
	require.NoError(t, err)

	other := NewManager(store, "another-secret", 0)
	forged, err := other.StartSession(ctx, "acc-2", models.RoleAdmin)
	require.NoError(t, err)

	unknown, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ID: "missing"}).SignedString([]byte("secret"))
	require.NoError(t, err)

	noID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{}).SignedString([]byte("secret"))
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"empty":        "",
		"garbage":      "not-a-token",
		"truncated":    token[:len(token)-4],
		"wrong secret": forged,
		"unknown id":   unknown,
		"no id":        noID,
	} {
		t.Run(name, func(t *testing.T) {
			_, ok, err := m.CurrentSession(ctx, tok)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestManager_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	store := NewMemoryStore()
	store.now = clock
	m := NewManager(store, "secret", time.Hour)
	m.now = clock

	token, err := m.StartSession(ctx, "acc-1", models.RoleUser)
	require.NoError(t, err)

	s, ok, err := m.CurrentSession(ctx, token)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, now.Add(time.Hour), s.ExpiresAt)

	now = now.Add(2 * time.Hour)
	_, ok, err = m.CurrentSession(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)
}

type failingStore struct{}

func (failingStore) Save(context.Context, models.Session) error { return errors.New("down") }
func (failingStore) Get(context.Context, string) (models.Session, bool, error) {
	return models.Session{}, false, errors.New("down")
}

func TestManager_StoreFailures(t *testing.T) {
	ctx := context.Background()
	m := NewManager(failingStore{}, "secret", 0)

	_, err := m.StartSession(ctx, "acc-1", models.RoleUser)
	assert.Error(t, err)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ID: "x"}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, _, err = m.CurrentSession(ctx, token)
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()

	client, err := NewRedisClient(ctx, addr, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	m := NewManager(NewRedisStore(client), "secret", time.Minute)
	token, err := m.StartSession(ctx, "acc-redis", models.RoleAdmin)
	require.NoError(t, err)

	s, ok, err := m.CurrentSession(ctx, token)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "acc-redis", s.AccountID)

	ttl, err := client.TTL(ctx, "session:"+s.ID).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
