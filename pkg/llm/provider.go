package llm

import (
	"context"
	"errors"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// FragmentFunc receives incremental completion text. Returning an error
// aborts the stream.
type FragmentFunc func(fragment string) error

// ErrStructural marks a non-network failure of the streaming mechanism
// (malformed stream, decoder failure). The caller may fall back to a plain
// non-streaming call within the same attempt instead of burning a retry.
var ErrStructural = errors.New("structural stream failure")

// StructuralError wraps err so it matches ErrStructural via errors.Is.
func StructuralError(err error) error {
	return errors.Join(ErrStructural, err)
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// Provider defines the contract for any LLM backend
type Provider interface {
	// Chat sends a chat history to the model and returns the full response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// ChatStream sends a chat history and invokes fn once per text fragment
	// as the model produces it. Returns after the stream ends or fails.
	ChatStream(ctx context.Context, history []Message, fn FragmentFunc, options ...Option) error
}
