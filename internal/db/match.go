package db

import "time"

type Match struct {
	ID               uint       `gorm:"primaryKey"`
	GroupID          int64      `gorm:"index;not null"`
	InvitingPlayerID uint       `gorm:"index;not null"`
	Status           string     `gorm:"size:16;index;not null"`
	TimeoutSeconds   int        `gorm:"not null"`
	TotalRounds      int        `gorm:"not null"`
	CurrentRound     int        `gorm:"not null;default:1"`
	DeadlineResponse *time.Time ``
	DeadlineAction   *time.Time `gorm:"index"`
	Finished         *time.Time ``
	CreatedAt        time.Time  `gorm:"not null"`
	UpdatedAt        time.Time  `gorm:"not null"`

	Invitations []MatchInvitation `gorm:"constraint:OnDelete:CASCADE"`
	Rounds      []Round           `gorm:"constraint:OnDelete:CASCADE"`
}

type MatchInvitation struct {
	ID               uint       `gorm:"primaryKey"`
	MatchID          uint       `gorm:"index;not null;uniqueIndex:idx_invitations_match_player"`
	PlayerID         uint       `gorm:"not null;uniqueIndex:idx_invitations_match_player"`
	IsInvitingPlayer bool       `gorm:"not null;default:false"`
	Status           string     `gorm:"size:16;not null"`
	DateInvited      time.Time  `gorm:"not null"`
	DateResponded    *time.Time ``
	Score            int        `gorm:"not null;default:0"`
	NotificationSent *time.Time ``
	CreatedAt        time.Time  `gorm:"not null"`
	UpdatedAt        time.Time  `gorm:"not null"`
}
