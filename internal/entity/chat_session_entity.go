package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey"`
	SessionKey string    `gorm:"uniqueIndex"` // opaque negotiated id, client- or server-minted
	Title      string
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}
