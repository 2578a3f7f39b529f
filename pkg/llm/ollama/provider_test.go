package ollama

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"portfolio-chat-be/pkg/llm"
)

func TestChatStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s, want /api/chat", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		lines := []string{
			`{"model":"m","message":{"role":"assistant","content":"Hel"},"done":false}`,
			`{"model":"m","message":{"role":"assistant","content":"lo."},"done":false}`,
			`{"model":"m","message":{"role":"assistant","content":""},"done":true}`,
		}
		for _, l := range lines {
			w.Write([]byte(l + "\n"))
		}
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "m")
	var got strings.Builder
	err := p.ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "hi"}}, func(fragment string) error {
		got.WriteString(fragment)
		return nil
	})
	if err != nil {
		t.Fatalf("ChatStream error: %v", err)
	}
	if got.String() != "Hello." {
		t.Errorf("streamed content = %q, want %q", got.String(), "Hello.")
	}
}

func TestChatStreamMalformedLine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not json\n"))
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "m")
	err := p.ChatStream(context.Background(), nil, func(string) error { return nil })
	if !errors.Is(err, llm.ErrStructural) {
		t.Errorf("err = %v, want ErrStructural", err)
	}
}

func TestChatNonStreaming(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"model":"m","message":{"role":"assistant","content":"full reply"},"done":true}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "m")
	got, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("Chat error: %v", err)
	}
	if got != "full reply" {
		t.Errorf("Chat = %q, want %q", got, "full reply")
	}
}
