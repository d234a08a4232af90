package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/drumline-app/drumline/internal/domain"
)

// SessionRepo stores browser session records as JSON values with a TTL.
// Implements auth.SessionStore.
type SessionRepo struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewSessionRepo creates a session repository with the given session TTL.
func NewSessionRepo(rdb *goredis.Client, ttl time.Duration) *SessionRepo {
	return &SessionRepo{rdb: rdb, ttl: ttl}
}

type sessionRecord struct {
	UserID   uuid.UUID `json:"user_id"`
	Role     string    `json:"role"`
	SchoolID int64     `json:"school_id,omitempty"`
}

func sessionKey(sessionID string) string {
	return "auth:session:" + sessionID
}

// Get returns the principal for a session id.
func (s *SessionRepo) Get(ctx context.Context, sessionID string) (domain.Principal, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(sessionID)).Result()
	if errors.Is(err, goredis.Nil) {
		return domain.Principal{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Principal{}, fmt.Errorf("failed to load session: %w", err)
	}

	var record sessionRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return domain.Principal{}, fmt.Errorf("failed to decode session: %w", err)
	}

	role, err := domain.ParseRole(record.Role)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("session carries %w", err)
	}

	return domain.Principal{
		ID:           record.UserID,
		DeclaredRole: role,
		HomeSchoolID: record.SchoolID,
	}, nil
}

// Put stores the principal under a session id with the configured TTL.
func (s *SessionRepo) Put(ctx context.Context, sessionID string, p domain.Principal) error {
	raw, err := json.Marshal(sessionRecord{
		UserID:   p.ID,
		Role:     string(p.DeclaredRole),
		SchoolID: p.HomeSchoolID,
	})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return s.rdb.Set(ctx, sessionKey(sessionID), raw, s.ttl).Err()
}

// Delete removes a session record.
func (s *SessionRepo) Delete(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, sessionKey(sessionID)).Err()
}
