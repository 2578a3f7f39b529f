package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"portfolio-chat-be/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "chat:session:"
	sessionTTL = 24 * time.Hour
)

// SessionRepository keeps negotiated sessions in redis so they survive
// process restarts and can be shared between replicas.
type SessionRepository struct {
	rdb *redis.Client
}

var _ contract.SessionRegistry = &SessionRepository{}

func NewSessionRepository(rdb *redis.Client) *SessionRepository {
	return &SessionRepository{rdb: rdb}
}

func (r *SessionRepository) Get(ctx context.Context, key string) (*contract.NegotiatedSession, bool) {
	raw, err := r.rdb.Get(ctx, keyPrefix+key).Result()
	if err != nil {
		return nil, false
	}
	var session contract.NegotiatedSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, false
	}
	return &session, true
}

func (r *SessionRepository) Save(ctx context.Context, session *contract.NegotiatedSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, keyPrefix+session.Key, raw, sessionTTL).Err()
}

func (r *SessionRepository) Delete(ctx context.Context, key string) error {
	err := r.rdb.Del(ctx, keyPrefix+key).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
