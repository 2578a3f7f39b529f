package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"portfolio-chat-be/internal/constant"
	"portfolio-chat-be/internal/dto"
	"portfolio-chat-be/internal/pkg/logger"
	"portfolio-chat-be/internal/repository/contract"
	"portfolio-chat-be/internal/repository/specification"
	"portfolio-chat-be/pkg/llm"
	"portfolio-chat-be/pkg/stream"
	"portfolio-chat-be/pkg/weather"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ChatMode tells the controller how to deliver the response: as an event
// stream or as a single JSON body. The choice is made before any header
// is written.
type ChatMode int

const (
	ModeStream ChatMode = iota
	ModeJSON
)

// ChatPlan is the outcome of the synchronous half of a chat request.
// For ModeJSON the text is already complete; for ModeStream the token
// source has been acquired (first fragment in hand) and the rest is
// consumed by StreamChat after the handler returns.
type ChatPlan struct {
	SessionKey string
	Mode       ChatMode
	Text       string // ModeJSON only

	userMessage string
	inject      string
	tokens      *tokenStream
}

type IChatService interface {
	PrepareChat(ctx context.Context, req *dto.SendChatRequest, clientKey string, admin bool) (*ChatPlan, error)
	StreamChat(w io.Writer, plan *ChatPlan)
	GetHistory(ctx context.Context, sessionKey string) (*dto.GetHistoryResponse, error)
	ClearSession(ctx context.Context, sessionKey string) error
}

type chatService struct {
	registry        contract.SessionRegistry
	sessionRepo     contract.ChatSessionRepository // nil when chat log storage is off
	messageRepo     contract.ChatMessageRepository // nil when chat log storage is off
	provider        llm.Provider
	weather         *weather.Client // nil when no OpenWeather key is configured
	publisher       message.Publisher
	persistTopic    string
	defaultLocation string
	log             logger.ILogger
}

func NewChatService(
	registry contract.SessionRegistry,
	sessionRepo contract.ChatSessionRepository,
	messageRepo contract.ChatMessageRepository,
	provider llm.Provider,
	weatherClient *weather.Client,
	publisher message.Publisher,
	persistTopic string,
	defaultLocation string,
	log logger.ILogger,
) IChatService {
	return &chatService{
		registry:        registry,
		sessionRepo:     sessionRepo,
		messageRepo:     messageRepo,
		provider:        provider,
		weather:         weatherClient,
		publisher:       publisher,
		persistTopic:    persistTopic,
		defaultLocation: defaultLocation,
		log:             log,
	}
}

// PrepareChat runs everything that must finish before the response status
// and headers are committed: session negotiation, the greeting and
// unsafe-character short circuits, the weather lookup and token source
// acquisition with retries. Acquisition failures surface here as a 500,
// before a single frame has been written.
func (s *chatService) PrepareChat(ctx context.Context, req *dto.SendChatRequest, clientKey string, admin bool) (*ChatPlan, error) {
	sessionKey := s.negotiate(ctx, clientKey)
	userMessage := req.LatestUserMessage()

	s.updateTitle(ctx, sessionKey, userMessage)

	plan := &ChatPlan{
		SessionKey:  sessionKey,
		Mode:        ModeStream,
		userMessage: userMessage,
	}

	// Bare greeting on a fresh conversation: canned reply, no provider call.
	if isGreeting(userMessage) && len(req.Messages) <= 2 {
		plan.tokens = cannedStream(timeOfDayGreeting(time.Now()))
		return plan, nil
	}

	history := s.buildHistory(req, admin)

	// Characters that break the event-stream transport downgrade the
	// whole response to one JSON body. Deliberate, not an error.
	if strings.ContainsAny(userMessage, `{}[]\"`) {
		text, err := s.chatWithRetry(ctx, history)
		if err != nil {
			return nil, err
		}
		plan.Mode = ModeJSON
		plan.Text = text
		return plan, nil
	}

	if weather.WantsWeather(userMessage) && s.weather != nil {
		location := weather.ResolveLocation(userMessage, s.defaultLocation)
		if report, err := s.weather.Current(ctx, location); err != nil {
			// Degrades gracefully: the model's own reply still streams.
			s.log.Warn("chat", "weather lookup failed", map[string]interface{}{
				"location": location,
				"error":    err.Error(),
			})
		} else {
			plan.inject = report.Sentence()
		}
	}

	ts, err := s.openStream(history)
	if err != nil {
		s.log.Error("chat", "token source exhausted", map[string]interface{}{
			"session": sessionKey,
			"error":   err.Error(),
		})
		return nil, fiber.NewError(fiber.StatusInternalServerError,
			"The assistant is unavailable right now, please try again later")
	}
	plan.tokens = ts
	return plan, nil
}

// StreamChat writes the event stream for a prepared plan. It runs as the
// detached body writer after the handler has returned, so it never touches
// the request context; it owns the writer and closes the frame stream
// exactly once on every path.
func (s *chatService) StreamChat(w io.Writer, plan *ChatPlan) {
	defer plan.tokens.cancel()

	framer := stream.NewFramer(w)
	if err := framer.Heartbeat(); err != nil {
		return
	}

	var full strings.Builder
	emit := func(chunk string) error {
		full.WriteString(chunk)
		return framer.WriteChunk(chunk)
	}
	asm := stream.NewAssembler(emit)

	if plan.inject != "" {
		if err := emit(plan.inject); err != nil {
			return
		}
	}

	if err := asm.Write(plan.tokens.first); err != nil {
		framer.Fail(constant.StreamErrorMessage)
		return
	}
	for frag := range plan.tokens.rest {
		if frag.err != nil {
			s.log.Error("chat", "stream failed mid-response", map[string]interface{}{
				"session": plan.SessionKey,
				"error":   frag.err.Error(),
			})
			framer.Fail(constant.StreamErrorMessage)
			return
		}
		if err := asm.Write(frag.text); err != nil {
			framer.Fail(constant.StreamErrorMessage)
			return
		}
	}
	if err := asm.Close(); err != nil {
		framer.Fail(constant.StreamErrorMessage)
		return
	}
	if err := framer.Close(); err != nil {
		return
	}

	s.publishTranscript(plan.SessionKey, plan.userMessage, full.String())
}

func (s *chatService) GetHistory(ctx context.Context, sessionKey string) (*dto.GetHistoryResponse, error) {
	sess, found := s.registry.Get(ctx, sessionKey)
	if !found {
		return nil, fiber.NewError(fiber.StatusNotFound, "session not found")
	}

	resp := &dto.GetHistoryResponse{
		SessionId: sess.Key,
		Title:     sess.Title,
		Messages:  []dto.MessageDTO{},
	}
	if s.messageRepo == nil {
		// Storage disabled: the session resolves but carries no log.
		return resp, nil
	}

	stored, err := s.sessionRepo.FindOne(ctx, specification.BySessionKey{Key: sessionKey})
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return resp, nil
	}

	messages, err := s.messageRepo.FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: stored.Id},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}
	for _, m := range messages {
		resp.Messages = append(resp.Messages, dto.MessageDTO{
			Id:        m.Id.String(),
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return resp, nil
}

func (s *chatService) ClearSession(ctx context.Context, sessionKey string) error {
	if err := s.registry.Delete(ctx, sessionKey); err != nil {
		return err
	}
	if s.sessionRepo == nil {
		return nil
	}
	stored, err := s.sessionRepo.FindOne(ctx, specification.BySessionKey{Key: sessionKey})
	if err != nil || stored == nil {
		return err
	}
	if err := s.messageRepo.DeleteByChatSessionId(ctx, stored.Id); err != nil {
		return err
	}
	return s.sessionRepo.Delete(ctx, stored.Id)
}

// negotiate resolves the inbound session key against the registry. A
// well-formed unknown key is adopted as-is (first contact from a client
// that minted its own id); a missing or malformed one is replaced, and
// the caller returns the final key in the response header either way.
func (s *chatService) negotiate(ctx context.Context, clientKey string) string {
	now := time.Now()

	if validSessionKey(clientKey) {
		if sess, found := s.registry.Get(ctx, clientKey); found {
			sess.LastSeen = now
			_ = s.registry.Save(ctx, sess)
			return clientKey
		}
		_ = s.registry.Save(ctx, &contract.NegotiatedSession{
			Key:       clientKey,
			CreatedAt: now,
			LastSeen:  now,
		})
		return clientKey
	}

	minted := uuid.NewString()
	_ = s.registry.Save(ctx, &contract.NegotiatedSession{
		Key:       minted,
		CreatedAt: now,
		LastSeen:  now,
	})
	return minted
}

func validSessionKey(key string) bool {
	if key == "" || len(key) > 64 {
		return false
	}
	for _, r := range key {
		if r <= ' ' || r > '~' {
			return false
		}
	}
	return true
}

// updateTitle names the session after its first user message.
func (s *chatService) updateTitle(ctx context.Context, sessionKey, userMessage string) {
	sess, found := s.registry.Get(ctx, sessionKey)
	if !found || sess.Title != "" || userMessage == "" {
		return
	}
	sess.Title = truncateRunes(userMessage, 60)
	_ = s.registry.Save(ctx, sess)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func (s *chatService) buildHistory(req *dto.SendChatRequest, admin bool) []llm.Message {
	prompt := constant.PublicSystemPrompt
	if admin {
		prompt = constant.AdminSystemPrompt
	}
	history := make([]llm.Message, 0, len(req.Messages)+1)
	history = append(history, llm.Message{Role: constant.ChatMessageRoleSystem, Content: prompt})
	for _, m := range req.Messages {
		history = append(history, llm.Message{Role: m.Role, Content: m.Content})
	}
	return history
}

// chatWithRetry is the non-streaming path, with the same backoff schedule
// as stream acquisition.
func (s *chatService) chatWithRetry(ctx context.Context, history []llm.Message) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= stream.MaxAttempts; attempt++ {
		text, err := s.provider.Chat(ctx, history)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if attempt < stream.MaxAttempts {
			if werr := stream.Wait(ctx, attempt); werr != nil {
				return "", werr
			}
		}
	}
	return "", fiber.NewError(fiber.StatusInternalServerError,
		fmt.Sprintf("The assistant is unavailable right now, please try again later (last error: %v)", lastErr))
}

type fragment struct {
	text string
	err  error
}

// tokenStream is an acquired token source: the first fragment is already
// in hand, which is what proves acquisition succeeded before any frame is
// written. rest is closed on clean completion.
type tokenStream struct {
	first  string
	rest   <-chan fragment
	cancel context.CancelFunc
}

func cannedStream(text string) *tokenStream {
	rest := make(chan fragment)
	close(rest)
	return &tokenStream{first: text, rest: rest, cancel: func() {}}
}

// openStream acquires a token source, retrying with backoff. Acquisition
// means the provider produced its first fragment (or completed); a
// structural failure of the streaming mechanism falls back to a plain
// call within the same attempt. The stream read outlives the HTTP
// handler, so it runs on a detached context with its own deadline.
func (s *chatService) openStream(history []llm.Message) (*tokenStream, error) {
	var lastErr error
	for attempt := 1; attempt <= stream.MaxAttempts; attempt++ {
		ts, err := s.startAttempt(history)
		if err == nil {
			return ts, nil
		}

		if errors.Is(err, llm.ErrStructural) {
			text, ferr := s.provider.Chat(context.Background(), history)
			if ferr == nil {
				return cannedStream(text), nil
			}
			err = fmt.Errorf("structural failure, fallback also failed: %w", ferr)
		}

		lastErr = err
		if attempt < stream.MaxAttempts {
			if werr := stream.Wait(context.Background(), attempt); werr != nil {
				return nil, werr
			}
		}
	}
	return nil, fmt.Errorf("token source failed after %d attempts: %w", stream.MaxAttempts, lastErr)
}

func (s *chatService) startAttempt(history []llm.Message) (*tokenStream, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)

	rest := make(chan fragment)
	head := make(chan fragment, 1)

	go func() {
		defer close(rest)
		sawFirst := false
		err := s.provider.ChatStream(ctx, history, func(text string) error {
			if !sawFirst {
				sawFirst = true
				head <- fragment{text: text}
				return nil
			}
			select {
			case rest <- fragment{text: text}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if !sawFirst {
			head <- fragment{err: err}
			return
		}
		if err != nil {
			select {
			case rest <- fragment{err: err}:
			case <-ctx.Done():
			}
		}
	}()

	first := <-head
	if first.err != nil {
		cancel()
		return nil, first.err
	}
	return &tokenStream{first: first.text, rest: rest, cancel: cancel}, nil
}

// publishTranscript hands the finished exchange to the persistence
// consumer. Fire and forget: a publish failure is logged and dropped,
// never reflected in the response.
func (s *chatService) publishTranscript(sessionKey, userMessage, assistantMessage string) {
	if s.publisher == nil || s.messageRepo == nil {
		return
	}
	payload, err := json.Marshal(dto.PersistExchangeMessage{
		SessionKey:       sessionKey,
		UserMessage:      userMessage,
		AssistantMessage: assistantMessage,
		ExchangedAt:      time.Now(),
	})
	if err != nil {
		return
	}
	msg := message.NewMessage(uuid.NewString(), payload)
	if err := s.publisher.Publish(s.persistTopic, msg); err != nil {
		s.log.Warn("chat", "transcript publish failed", map[string]interface{}{
			"session": sessionKey,
			"error":   err.Error(),
		})
	}
}

func isGreeting(message string) bool {
	normalized := strings.Trim(strings.ToLower(strings.TrimSpace(message)), "!. ")
	for _, g := range constant.CannedGreetingTriggers {
		if normalized == g {
			return true
		}
	}
	return false
}

func timeOfDayGreeting(now time.Time) string {
	switch h := now.Hour(); {
	case h < 12:
		return constant.GreetingMorning
	case h < 18:
		return constant.GreetingAfternoon
	default:
		return constant.GreetingEvening
	}
}
