package contract

import (
	"context"
	"time"
)

// NegotiatedSession is the server-side view of one conversation session.
// The registry is the authority for "can this id be resolved"; the chat
// log in Postgres is an optional side effect, never consulted for that.
type NegotiatedSession struct {
	Key       string    `json:"key"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
}

// SessionRegistry tracks live sessions. Implementations: in-memory
// (go-cache) for a single process, redis when configured.
type SessionRegistry interface {
	Get(ctx context.Context, key string) (*NegotiatedSession, bool)
	Save(ctx context.Context, session *NegotiatedSession) error
	Delete(ctx context.Context, key string) error
}
