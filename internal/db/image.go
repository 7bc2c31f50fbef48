package db

import (
	"time"

	"gorm.io/datatypes"
)

// Copyright classifications for uploaded images.
const (
	CopyrightOwner      = "owner"
	CopyrightRestricted = "restricted"
	CopyrightDiris      = "diris"
	CopyrightPublic     = "public"
)

// Image rows are referenced from round participations and player avatars
// but never owned by them: deleting a player keeps their images around,
// since finished rounds may still point at them.
type Image struct {
	ID          uint           `gorm:"primaryKey"`
	Data        []byte         `gorm:"type:bytea;not null"`
	Width       int            `gorm:"not null;default:0"`
	Height      int            `gorm:"not null;default:0"`
	Size        int            `gorm:"not null;default:0"`
	OwnerID     *uint          `gorm:"index"`
	Copyright   string         `gorm:"size:16;not null;default:owner"`
	Info        datatypes.JSON `gorm:"type:jsonb"`
	RandomOrder int32          `gorm:"index;not null;default:0"`
	CreatedAt   time.Time      `gorm:"not null"`
	UpdatedAt   time.Time      `gorm:"not null"`
}

// IsAvailablePublicly reports whether the image may be served to players
// other than its owner.
func (i *Image) IsAvailablePublicly() bool {
	return i.Copyright == CopyrightDiris || i.Copyright == CopyrightPublic
}
