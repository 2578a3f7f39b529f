package memory

import (
	"context"
	"time"

	"portfolio-chat-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

type SessionRepository struct {
	cache *cache.Cache
}

var _ contract.SessionRegistry = &SessionRepository{}

func NewSessionRepository() *SessionRepository {
	// Sessions idle for a day are forgotten; expired items are purged
	// every ten minutes.
	c := cache.New(24*time.Hour, 10*time.Minute)
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Get(_ context.Context, key string) (*contract.NegotiatedSession, bool) {
	if x, found := r.cache.Get(key); found {
		return x.(*contract.NegotiatedSession), true
	}
	return nil, false
}

func (r *SessionRepository) Save(_ context.Context, session *contract.NegotiatedSession) error {
	r.cache.Set(session.Key, session, cache.DefaultExpiration)
	return nil
}

func (r *SessionRepository) Delete(_ context.Context, key string) error {
	r.cache.Delete(key)
	return nil
}
