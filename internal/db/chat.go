package db

import (
	"time"

	"gorm.io/datatypes"
)

// ChatGroup stores a capped batch of chat messages for one player set,
// keyed by the same 63-bit group id a match derives from its players. When
// a group fills up a new row with the next sequence number takes over.
type ChatGroup struct {
	ID        uint           `gorm:"primaryKey"`
	GroupID   int64          `gorm:"index;not null;uniqueIndex:idx_chat_group_sequence"`
	Sequence  int            `gorm:"not null;default:0;uniqueIndex:idx_chat_group_sequence"`
	Messages  datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}
