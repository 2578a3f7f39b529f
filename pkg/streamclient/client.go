// Package streamclient consumes the portfolio assistant's chat protocol:
// it negotiates a session id, branches on streaming vs JSON responses,
// reassembles event-stream frames into growing assistant text and extracts
// trailing navigation directives.
package streamclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"portfolio-chat-be/pkg/directive"
	"portfolio-chat-be/pkg/stream"
)

// SessionHeader carries the session id in both directions.
const SessionHeader = "X-Session-Id"

// maxReassignments caps consecutive server-issued session replacements so
// a server that never resolves a session cannot loop the client forever.
const maxReassignments = 3

// Message mirrors the wire message shape.
type Message struct {
	ID        string    `json:"id,omitempty"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

type chatRequest struct {
	Messages  []Message `json:"messages"`
	SessionID string    `json:"sessionId,omitempty"`
}

type jsonResponse struct {
	Text    string `json:"text"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// HistoryResponse is the GET-history payload.
type HistoryResponse struct {
	SessionID string    `json:"sessionId"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
}

// Events are the side-effect hooks the consumer drives while a response
// arrives. All hooks are optional and invoked synchronously, in order,
// after each append.
type Events struct {
	// OnTypingDone fires once, when the first real content arrives.
	OnTypingDone func()
	// OnAppend receives the cumulative display text after each chunk.
	OnAppend func(text string)
	// OnNavigate fires at most once with the extracted section name.
	OnNavigate func(section string)
}

// Result is the finalized assistant response. Streamed distinguishes the
// event-stream path from the JSON fallback path.
type Result struct {
	Text     string
	Section  string
	Streamed bool
}

// StreamError preserves content that arrived before a mid-stream failure.
type StreamError struct {
	Partial string
	Err     error
}

func (e *StreamError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("stream error (partial content received: %d chars): %v", len(e.Partial), e.Err)
	}
	return fmt.Sprintf("stream error: %v", e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// Client talks to the chat endpoint. Create one and reuse it; the session
// store keeps the conversation stable across runs.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
	Store   SessionStore

	reassignStreak int
}

func New(baseURL, apiKey string, store SessionStore) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{}, // no timeout: the body is a long-lived stream
		Store:   store,
	}
}

// SessionID returns the persisted session id, minting one on first use.
func (c *Client) SessionID() string {
	id := c.Store.Load()
	if id == "" {
		id = NewSessionID()
		_ = c.Store.Save(id)
	}
	return id
}

// Send posts the conversation and consumes the response. The returned
// Result carries the final display text; ev hooks fire as content arrives.
// Cancelling ctx aborts the read loop and keeps whatever was appended.
func (c *Client) Send(ctx context.Context, messages []Message, ev Events) (*Result, error) {
	sent := c.SessionID()

	body, err := json.Marshal(chatRequest{Messages: messages, SessionID: sent})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/chat/v1", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set(SessionHeader, sent)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.adoptSession(sent, resp.Header.Get(SessionHeader)); err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.decodeError(resp)
	}

	// Branch once on the response kind, then hand off to the matching
	// consumer. Streaming and JSON never mix within one response.
	ct := resp.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "text/event-stream") {
		return c.consumeStream(ctx, resp.Body, ev)
	}
	return c.consumeJSON(resp.Body, ev)
}

// History fetches the stored conversation for the current session.
func (c *Client) History(ctx context.Context) (*HistoryResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.BaseURL+"/api/chat/v1?sessionId="+c.SessionID(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.decodeError(resp)
	}

	var hist HistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&hist); err != nil {
		return nil, err
	}
	return &hist, nil
}

// adoptSession overwrites the persisted id when the server reassigns it,
// bounded so a broken server cannot loop us. In-flight message state is
// untouched: only the identifier changes.
func (c *Client) adoptSession(sent, returned string) error {
	if returned == "" || returned == sent {
		c.reassignStreak = 0
		return nil
	}
	c.reassignStreak++
	if c.reassignStreak > maxReassignments {
		return fmt.Errorf("server reassigned the session %d times in a row, giving up", c.reassignStreak)
	}
	return c.Store.Save(returned)
}

func (c *Client) decodeError(resp *http.Response) error {
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.Error != "" {
		return fmt.Errorf("%s (status %d)", e.Error, resp.StatusCode)
	}
	return fmt.Errorf("request failed with status %d", resp.StatusCode)
}

func (c *Client) consumeJSON(body io.Reader, ev Events) (*Result, error) {
	var jr jsonResponse
	if err := json.NewDecoder(body).Decode(&jr); err != nil {
		return nil, err
	}
	if jr.Status == "error" {
		return nil, fmt.Errorf("%s", jr.Message)
	}
	if ev.OnTypingDone != nil {
		ev.OnTypingDone()
	}
	res := finalize(jr.Text, ev)
	res.Streamed = false
	return res, nil
}

func (c *Client) consumeStream(ctx context.Context, body io.Reader, ev Events) (*Result, error) {
	var (
		decoder   utf8Decoder
		frames    frameSplitter
		display   string
		section   string
		navigated bool
		gotFirst  bool
	)

	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			// Abort keeps partial content; the conversation stays valid.
			// Same error shape as a cancel that lands inside body.Read, so
			// callers see one type regardless of timing.
			return &Result{Text: display, Section: section, Streamed: true},
				&StreamError{Partial: display, Err: ctx.Err()}
		default:
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			for _, frame := range frames.push(decoder.decode(buf[:n])) {
				if frame == stream.DoneSentinel {
					return &Result{Text: display, Section: section, Streamed: true}, nil
				}
				if !gotFirst {
					gotFirst = true
					if ev.OnTypingDone != nil {
						ev.OnTypingDone()
					}
				}
				// Scan the cumulative text, not the frame: the tag can
				// straddle a chunk boundary.
				display += frame
				if !navigated {
					if res := directive.Extract(display); res.Found {
						navigated = true
						section = res.Section
						display = res.Text
						if ev.OnNavigate != nil {
							ev.OnNavigate(section)
						}
					}
				}
				if ev.OnAppend != nil {
					ev.OnAppend(display)
				}
			}
		}
		if readErr != nil {
			// EOF without the sentinel is a dropped connection, not success.
			return &Result{Text: display, Section: section, Streamed: true},
				&StreamError{Partial: display, Err: readErr}
		}
	}
}

func finalize(text string, ev Events) *Result {
	res := &Result{Text: text}
	if d := directive.Extract(text); d.Found {
		res.Text = d.Text
		res.Section = d.Section
		if ev.OnNavigate != nil {
			ev.OnNavigate(d.Section)
		}
	}
	if ev.OnAppend != nil {
		ev.OnAppend(res.Text)
	}
	return res
}

// ShouldAutoScroll decides whether the view follows appended content. It is
// a pure function of how close to the bottom the reader was before the
// update; a reader who scrolled away is never hijacked.
func ShouldAutoScroll(distanceFromBottom, threshold int) bool {
	return distanceFromBottom <= threshold
}
