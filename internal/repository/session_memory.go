package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/futig/docqa/internal/config"
	"github.com/futig/docqa/internal/entity"
	"github.com/futig/docqa/internal/state"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Session is one registered interaction session.
type Session struct {
	ID        string
	Store     *state.Store
	CreatedAt time.Time
}

// SessionRepository keeps sessions in memory. A session expires after TTL
// without being read.
type SessionRepository struct {
	// mu orders lifetime refreshes against Reset and Delete
	mu    sync.Mutex
	cache *cache.Cache
}

func NewSessionRepository(cfg config.SessionConfig) *SessionRepository {
	return &SessionRepository{
		cache: cache.New(cfg.TTL, cfg.CleanupInterval),
	}
}

// Create registers an empty session under a fresh identifier.
func (r *SessionRepository) Create(ctx context.Context) *Session {
	session := newSession(uuid.New().String())
	r.cache.Set(session.ID, session, cache.DefaultExpiration)
	return session
}

// Get returns the session and extends its lifetime.
func (r *SessionRepository) Get(ctx context.Context, id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, found := r.touch(id)
	if !found {
		return nil, fmt.Errorf("%w: %s", entity.ErrSessionNotFound, id)
	}
	return session, nil
}

// GetOrCreate returns the session stored under key, creating it on first use.
// It is used for callers with their own stable keys, such as chat IDs.
func (r *SessionRepository) GetOrCreate(ctx context.Context, key string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, found := r.touch(key); found {
		return session
	}

	session := newSession(key)
	r.cache.Set(key, session, cache.DefaultExpiration)
	return session
}

// Reset replaces the session stored under key with an empty one.
func (r *SessionRepository) Reset(ctx context.Context, key string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	session := newSession(key)
	r.cache.Set(key, session, cache.DefaultExpiration)
	return session
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, found := r.cache.Get(id); !found {
		return fmt.Errorf("%w: %s", entity.ErrSessionNotFound, id)
	}
	r.cache.Delete(id)
	return nil
}

// touch re-stores a live session to restart its TTL. Callers hold mu.
func (r *SessionRepository) touch(id string) (*Session, bool) {
	x, found := r.cache.Get(id)
	if !found {
		return nil, false
	}

	session := x.(*Session)
	r.cache.Set(id, session, cache.DefaultExpiration)
	return session, true
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}

// OnEvicted registers f to be called with the identifier of every expired or deleted session.
func (r *SessionRepository) OnEvicted(f func(id string)) {
	r.cache.OnEvicted(func(key string, _ any) {
		f(key)
	})
}

// ChatKey is the registry key of a Telegram chat's session.
func ChatKey(chatID int64) string {
	return fmt.Sprintf("tg:%d", chatID)
}

func newSession(id string) *Session {
	return &Session{
		ID:        id,
		Store:     state.NewStore(),
		CreatedAt: time.Now(),
	}
}
