package dto

import "time"

// PersistExchangeMessage is the pub/sub payload carrying one finished
// user/assistant exchange to the storage consumer.
type PersistExchangeMessage struct {
	SessionKey       string    `json:"session_key"`
	UserMessage      string    `json:"user_message"`
	AssistantMessage string    `json:"assistant_message"`
	ExchangedAt      time.Time `json:"exchanged_at"`
}
