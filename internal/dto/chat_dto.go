package dto

import (
	"time"
)

// MessageDTO is the wire message shape shared by requests and history.
type MessageDTO struct {
	Id        string    `json:"id,omitempty"`
	Role      string    `json:"role" validate:"required,oneof=system user assistant"`
	Content   string    `json:"content" validate:"required"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

type SendChatRequest struct {
	Messages  []MessageDTO `json:"messages" validate:"required,min=1,dive"`
	SessionId string       `json:"sessionId,omitempty"`
}

// LatestUserMessage returns the content of the last user message, or "".
func (r *SendChatRequest) LatestUserMessage() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == "user" {
			return r.Messages[i].Content
		}
	}
	return ""
}

// ChatTextResponse is the non-streaming fallback body.
type ChatTextResponse struct {
	Text string `json:"text"`
}

type ChatErrorResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Details string `json:"details,omitempty"`
}

type GetHistoryResponse struct {
	SessionId string       `json:"sessionId"`
	Title     string       `json:"title"`
	Messages  []MessageDTO `json:"messages"`
}
