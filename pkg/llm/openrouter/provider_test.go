package openrouter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"portfolio-chat-be/pkg/llm"
)

func newTestProvider(url string) *OpenRouterProvider {
	p := NewOpenRouterProvider("test-key", "test-model")
	p.BaseURL = url
	return p
}

func TestChatStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		events := []string{
			": heartbeat\n\n",
			"data: {\"choices\":[{\"delta\":{\"content\":\"Hi \"}}]}\n\n",
			"data: {\"choices\":[{\"delta\":{\"content\":\"there.\"}}]}\n\n",
			"data: [DONE]\n\n",
		}
		for _, e := range events {
			w.Write([]byte(e))
		}
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	var got strings.Builder
	err := p.ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "hi"}}, func(fragment string) error {
		got.WriteString(fragment)
		return nil
	})
	if err != nil {
		t.Fatalf("ChatStream error: %v", err)
	}
	if got.String() != "Hi there." {
		t.Errorf("streamed content = %q, want %q", got.String(), "Hi there.")
	}
}

func TestChatStreamAbortFromCallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\n\n"))
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"y\"}}]}\n\n"))
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	calls := 0
	err := p.ChatStream(context.Background(), nil, func(string) error {
		calls++
		return context.Canceled
	})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("callback called %d times, want 1", calls)
	}
}

func TestChatNonStreaming(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"full reply"}}]}`))
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	got, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("Chat error: %v", err)
	}
	if got != "full reply" {
		t.Errorf("Chat = %q, want %q", got, "full reply")
	}
}
