package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/medportal/medportalbackend/models"
	"github.com/redis/go-redis/v9"
)

// Store persists session records by id.
type Store interface {
	Save(ctx context.Context, s models.Session) error
	Get(ctx context.Context, id string) (models.Session, bool, error)
}

// MemoryStore keeps sessions for the lifetime of the process.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]models.Session), now: time.Now}
}

func (m *MemoryStore) Save(_ context.Context, s models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (models.Session, bool, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return models.Session{}, false, nil
	}
	if s.Expired(m.now()) {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		return models.Session{}, false, nil
	}
	return s, true, nil
}

// RedisStore shares sessions between server instances. Entries carry the
// session expiry as their TTL, or none when the session never expires.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "session:"}
}

func (r *RedisStore) Save(ctx context.Context, s models.Session) error {
	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	var ttl time.Duration
	if !s.ExpiresAt.IsZero() {
		ttl = time.Until(s.ExpiresAt)
		if ttl <= 0 {
			return nil
		}
	}
	if err := r.client.Set(ctx, r.prefix+s.ID, body, ttl).Err(); err != nil {
		return fmt.Errorf("%w: save session: %w", models.ErrStorage, err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (models.Session, bool, error) {
	body, err := r.client.Get(ctx, r.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Session{}, false, nil
	}
	if err != nil {
		return models.Session{}, false, fmt.Errorf("%w: load session: %w", models.ErrStorage, err)
	}

	var s models.Session
	if err := json.Unmarshal(body, &s); err != nil {
		return models.Session{}, false, fmt.Errorf("%w: decode session: %w", models.ErrStorage, err)
	}
	return s, true, nil
}

// NewRedisClient connects to Redis and pings it.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}
