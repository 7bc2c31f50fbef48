package db

import "time"

type Player struct {
	ID           uint      `gorm:"primaryKey"`
	Name         string    `gorm:"size:64;uniqueIndex;not null"`
	AuthToken    string    `gorm:"size:64;uniqueIndex;not null"`
	AvatarID     *uint     `gorm:"index"`
	Avatar       *Image    `gorm:"constraint:OnDelete:SET NULL"`
	PushToken    string    `gorm:"size:512"`
	TotalMatches int       `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}
