package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"portfolio-chat-be/internal/constant"
	"portfolio-chat-be/internal/dto"
	"portfolio-chat-be/internal/pkg/logger"
	"portfolio-chat-be/internal/pkg/serverutils"
	"portfolio-chat-be/internal/service"
	"portfolio-chat-be/pkg/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopLogger struct{}

func (noopLogger) Debug(string, string, map[string]interface{}) {}
func (noopLogger) Info(string, string, map[string]interface{})  {}
func (noopLogger) Warn(string, string, map[string]interface{})  {}
func (noopLogger) Error(string, string, map[string]interface{}) {}
func (noopLogger) Sync() error                                  { return nil }
func (noopLogger) GetLogs(string, int, int) ([]logger.LogEntry, error) {
	return nil, nil
}

// stubChatService scripts the plan the controller acts on; StreamChat
// writes fixed frames so header and body handling can be checked without
// a provider.
type stubChatService struct {
	plan          *service.ChatPlan
	chunks        []string
	prepareCalled int
}

func (s *stubChatService) PrepareChat(_ context.Context, _ *dto.SendChatRequest, _ string, _ bool) (*service.ChatPlan, error) {
	s.prepareCalled++
	return s.plan, nil
}

func (s *stubChatService) StreamChat(w io.Writer, _ *service.ChatPlan) {
	framer := stream.NewFramer(w)
	_ = framer.Heartbeat()
	for _, c := range s.chunks {
		_ = framer.WriteChunk(c)
	}
	_ = framer.Close()
}

func (s *stubChatService) GetHistory(_ context.Context, sessionKey string) (*dto.GetHistoryResponse, error) {
	if sessionKey != s.plan.SessionKey {
		return nil, fiber.NewError(fiber.StatusNotFound, "session not found")
	}
	return &dto.GetHistoryResponse{SessionId: sessionKey, Title: "t", Messages: []dto.MessageDTO{}}, nil
}

func (s *stubChatService) ClearSession(context.Context, string) error { return nil }

func newTestApp(svc service.IChatService, apiKey string) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware(noopLogger{}))
	NewChatController(svc).RegisterRoutes(app.Group("/api"), serverutils.ApiKeyMiddleware(apiKey))
	return app
}

func TestSendChatRejectsWrongApiKey(t *testing.T) {
	svc := &stubChatService{plan: &service.ChatPlan{SessionKey: "s1"}}
	app := newTestApp(svc, "secret")

	req := httptest.NewRequest("POST", "/api/chat/v1",
		strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", "wrong")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	var body serverutils.ErrorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body.Error, "Unauthorized")

	// Rejected before the service was ever consulted.
	assert.Equal(t, 0, svc.prepareCalled)
}

func TestSendChatStreamingResponse(t *testing.T) {
	svc := &stubChatService{
		plan:   &service.ChatPlan{SessionKey: "sess-42", Mode: service.ModeStream},
		chunks: []string{"Hello there. ", "More text."},
	}
	app := newTestApp(svc, "secret")

	req := httptest.NewRequest("POST", "/api/chat/v1",
		strings.NewReader(`{"messages":[{"role":"user","content":"hi there friend"}]}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", "secret")

	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "sess-42", resp.Header.Get(constant.SessionHeader))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)
	assert.True(t, strings.HasPrefix(text, ":\n\n"))
	assert.Contains(t, text, "data: Hello there. \n\n")
	assert.True(t, strings.HasSuffix(text, "data: [DONE]\n\n"))
}

func TestSendChatJSONFallbackResponse(t *testing.T) {
	svc := &stubChatService{
		plan: &service.ChatPlan{SessionKey: "sess-7", Mode: service.ModeJSON, Text: "plain answer"},
	}
	app := newTestApp(svc, "secret")

	req := httptest.NewRequest("POST", "/api/chat/v1",
		strings.NewReader(`{"messages":[{"role":"user","content":"show me {code}"}]}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", "secret")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json"))
	assert.Equal(t, "sess-7", resp.Header.Get(constant.SessionHeader))

	var body dto.ChatTextResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "plain answer", body.Text)
}

func TestSendChatRejectsMalformedBody(t *testing.T) {
	svc := &stubChatService{plan: &service.ChatPlan{SessionKey: "s1"}}
	app := newTestApp(svc, "secret")

	req := httptest.NewRequest("POST", "/api/chat/v1", strings.NewReader(`{"messages": []}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", "secret")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, svc.prepareCalled)
}

func TestGetHistoryUnknownSession(t *testing.T) {
	svc := &stubChatService{plan: &service.ChatPlan{SessionKey: "known"}}
	app := newTestApp(svc, "secret")

	req := httptest.NewRequest("GET", "/api/chat/v1?sessionId=unknown", nil)
	req.Header.Set("x-api-key", "secret")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var body serverutils.ErrorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "session not found", body.Error)
}
