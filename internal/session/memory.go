package session

import (
	"context"
	"sync"
	"time"

	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/models"
)

// MemoryRepository keeps sessions in process memory. Used standalone in
// tests and small deployments, and as the failover target behind redis.
type MemoryRepository struct {
	sessions   sync.Map
	rateLimits sync.Map
	ttl        time.Duration
}

func NewMemoryRepository(ttl time.Duration) *MemoryRepository {
	return &MemoryRepository{
		ttl: ttl,
	}
}

func (r *MemoryRepository) GetSession(ctx context.Context, token string) (*models.Session, error) {
	val, ok := r.sessions.Load(token)
	if !ok {
		return nil, nil
	}
	session := val.(*models.Session)
	if session.Expired(time.Now()) {
		r.sessions.Delete(token)
		return nil, nil
	}
	return session, nil
}

func (r *MemoryRepository) SetSession(ctx context.Context, session *models.Session) error {
	if session.ExpiresAt.IsZero() {
		session.ExpiresAt = time.Now().Add(r.ttl)
	}
	r.sessions.Store(session.Token, session)
	return nil
}

func (r *MemoryRepository) ClearSession(ctx context.Context, token string) error {
	r.sessions.Delete(token)
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, ok := r.rateLimits.Load(userID)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	r.rateLimits.Store(userID, entry)
	return entry.count <= limit, nil
}
