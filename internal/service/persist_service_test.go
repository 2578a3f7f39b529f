package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"portfolio-chat-be/internal/dto"
	"portfolio-chat-be/internal/entity"
	"portfolio-chat-be/internal/repository/contract"
	"portfolio-chat-be/internal/repository/memory"
	"portfolio-chat-be/internal/repository/specification"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions []*entity.ChatSession
}

func (r *fakeSessionRepo) Create(_ context.Context, s *entity.ChatSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, s)
	return nil
}

func (r *fakeSessionRepo) Update(context.Context, *entity.ChatSession) error { return nil }

func (r *fakeSessionRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.sessions {
		if s.Id == id {
			r.sessions = append(r.sessions[:i], r.sessions[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *fakeSessionRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if matchesSession(s, specs) {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*entity.ChatSession(nil), r.sessions...), nil
}

func (r *fakeSessionRepo) Count(context.Context, ...specification.Specification) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.sessions)), nil
}

func matchesSession(s *entity.ChatSession, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.BySessionKey:
			if s.SessionKey != sp.Key {
				return false
			}
		case specification.ByID:
			if s.Id != sp.ID {
				return false
			}
		}
	}
	return true
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []*entity.ChatMessage
	failing  bool
}

func (r *fakeMessageRepo) Create(_ context.Context, m *entity.ChatMessage) error {
	return r.CreateBulk(context.Background(), []*entity.ChatMessage{m})
}

func (r *fakeMessageRepo) CreateBulk(_ context.Context, ms []*entity.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return assert.AnError
	}
	r.messages = append(r.messages, ms...)
	return nil
}

func (r *fakeMessageRepo) DeleteByChatSessionId(_ context.Context, sessionId uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.messages[:0]
	for _, m := range r.messages {
		if m.ChatSessionId != sessionId {
			kept = append(kept, m)
		}
	}
	r.messages = kept
	return nil
}

func (r *fakeMessageRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.ChatMessage
	for _, m := range r.messages {
		keep := true
		for _, spec := range specs {
			if sp, ok := spec.(specification.ByChatSessionID); ok && m.ChatSessionId != sp.ChatSessionID {
				keep = false
			}
		}
		if keep {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	ms, err := r.FindAll(ctx, specs...)
	return int64(len(ms)), err
}

func (r *fakeMessageRepo) snapshot() []*entity.ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*entity.ChatMessage(nil), r.messages...)
}

func TestPersistServiceStoresExchange(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	sessionRepo := &fakeSessionRepo{}
	messageRepo := &fakeMessageRepo{}
	registry := memory.NewSessionRepository()

	require.NoError(t, registry.Save(context.Background(), &contract.NegotiatedSession{
		Key:   "sess-1",
		Title: "Tell me about the projects",
	}))

	svc := NewPersistService(pubSub, "persist.test", sessionRepo, messageRepo, registry, noopLogger{})
	require.NoError(t, svc.Consume(context.Background()))

	payload, err := json.Marshal(dto.PersistExchangeMessage{
		SessionKey:       "sess-1",
		UserMessage:      "Tell me about the projects",
		AssistantMessage: "Here are three of them.",
		ExchangedAt:      time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, pubSub.Publish("persist.test", message.NewMessage(uuid.NewString(), payload)))

	assert.Eventually(t, func() bool {
		return len(messageRepo.snapshot()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	stored := messageRepo.snapshot()
	assert.Equal(t, "user", stored[0].Role)
	assert.Equal(t, "Tell me about the projects", stored[0].Content)
	assert.Equal(t, "assistant", stored[1].Role)
	assert.Equal(t, "Here are three of them.", stored[1].Content)
	assert.Equal(t, stored[0].ChatSessionId, stored[1].ChatSessionId)

	// The session row was created on first write, titled from the registry.
	sess, err := sessionRepo.FindOne(context.Background(), specification.BySessionKey{Key: "sess-1"})
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "Tell me about the projects", sess.Title)
}

func TestPersistServiceDropsPoisonMessages(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	sessionRepo := &fakeSessionRepo{}
	messageRepo := &fakeMessageRepo{}
	registry := memory.NewSessionRepository()

	svc := NewPersistService(pubSub, "persist.test", sessionRepo, messageRepo, registry, noopLogger{})
	require.NoError(t, svc.Consume(context.Background()))

	require.NoError(t, pubSub.Publish("persist.test",
		message.NewMessage(uuid.NewString(), []byte("not json"))))

	// A poison message is acked and dropped, and the consumer keeps going.
	payload, _ := json.Marshal(dto.PersistExchangeMessage{
		SessionKey:       "sess-2",
		UserMessage:      "still works?",
		AssistantMessage: "still works.",
	})
	require.NoError(t, pubSub.Publish("persist.test",
		message.NewMessage(uuid.NewString(), payload)))

	assert.Eventually(t, func() bool {
		return len(messageRepo.snapshot()) == 2
	}, 2*time.Second, 10*time.Millisecond)
}
