package db

import (
	"time"

	"gorm.io/datatypes"
)

// Event is an append-only audit record of match activity.
type Event struct {
	ID        uint           `gorm:"primaryKey"`
	MatchID   *uint          `gorm:"index"`
	PlayerID  *uint          `gorm:"index"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}
