package service

import (
	"context"
	"encoding/json"
	"time"

	"portfolio-chat-be/internal/dto"
	"portfolio-chat-be/internal/entity"
	"portfolio-chat-be/internal/pkg/logger"
	"portfolio-chat-be/internal/repository/contract"
	"portfolio-chat-be/internal/repository/specification"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// IPersistService consumes transcript messages off the channel and writes
// them to the chat log. It sits entirely off the response path: failures
// here are logged and the message dropped.
type IPersistService interface {
	Consume(ctx context.Context) error
}

type persistService struct {
	pubSub      *gochannel.GoChannel
	topicName   string
	sessionRepo contract.ChatSessionRepository
	messageRepo contract.ChatMessageRepository
	registry    contract.SessionRegistry
	log         logger.ILogger
}

func NewPersistService(
	pubSub *gochannel.GoChannel,
	topicName string,
	sessionRepo contract.ChatSessionRepository,
	messageRepo contract.ChatMessageRepository,
	registry contract.SessionRegistry,
	log logger.ILogger,
) IPersistService {
	return &persistService{
		pubSub:      pubSub,
		topicName:   topicName,
		sessionRepo: sessionRepo,
		messageRepo: messageRepo,
		registry:    registry,
		log:         log,
	}
}

func (ps *persistService) Consume(ctx context.Context) error {
	messages, err := ps.pubSub.Subscribe(ctx, ps.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			ps.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (ps *persistService) processMessage(ctx context.Context, msg *message.Message) {
	// Everything in here Acks: a transcript that cannot be stored is
	// dropped, never retried into the hot path.
	defer msg.Ack()

	var payload dto.PersistExchangeMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		ps.log.Error("persist", "failed to unmarshal transcript", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	session, err := ps.resolveSession(ctx, payload.SessionKey)
	if err != nil {
		ps.log.Error("persist", "failed to resolve session", map[string]interface{}{
			"session": payload.SessionKey,
			"error":   err.Error(),
		})
		return
	}

	now := payload.ExchangedAt
	if now.IsZero() {
		now = time.Now()
	}
	pair := []*entity.ChatMessage{
		{
			Id:            uuid.New(),
			ChatSessionId: session.Id,
			Role:          "user",
			Content:       payload.UserMessage,
			CreatedAt:     now,
		},
		{
			Id:            uuid.New(),
			ChatSessionId: session.Id,
			Role:          "assistant",
			Content:       payload.AssistantMessage,
			CreatedAt:     now.Add(time.Millisecond),
		},
	}
	if err := ps.messageRepo.CreateBulk(ctx, pair); err != nil {
		ps.log.Error("persist", "failed to store exchange", map[string]interface{}{
			"session": payload.SessionKey,
			"error":   err.Error(),
		})
	}
}

// resolveSession finds the stored session row for a negotiated key,
// creating it on first write with the title the registry assigned.
func (ps *persistService) resolveSession(ctx context.Context, sessionKey string) (*entity.ChatSession, error) {
	existing, err := ps.sessionRepo.FindOne(ctx, specification.BySessionKey{Key: sessionKey})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		now := time.Now()
		existing.UpdatedAt = &now
		if err := ps.sessionRepo.Update(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	title := ""
	if negotiated, found := ps.registry.Get(ctx, sessionKey); found {
		title = negotiated.Title
	}
	session := &entity.ChatSession{
		Id:         uuid.New(),
		SessionKey: sessionKey,
		Title:      title,
		CreatedAt:  time.Now(),
	}
	if err := ps.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}
