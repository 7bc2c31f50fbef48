package db

import "time"

type Round struct {
	ID             uint       `gorm:"primaryKey"`
	MatchID        uint       `gorm:"index;not null;uniqueIndex:idx_rounds_match_number"`
	Number         int        `gorm:"not null;uniqueIndex:idx_rounds_match_number"`
	StorytellerID  uint       `gorm:"not null"`
	Status         string     `gorm:"size:16;not null"`
	Story          string     `gorm:"size:512"`
	IsCurrentRound bool       `gorm:"not null;default:false"`
	DeadlineStory  *time.Time ``
	DeadlineOthers *time.Time ``
	DeadlineVotes  *time.Time ``
	CreatedAt      time.Time  `gorm:"not null"`
	UpdatedAt      time.Time  `gorm:"not null"`

	Participations []RoundParticipation `gorm:"constraint:OnDelete:CASCADE"`
}

type RoundParticipation struct {
	ID            uint  `gorm:"primaryKey"`
	RoundID       uint  `gorm:"index;not null;uniqueIndex:idx_participations_round_player"`
	PlayerID      uint  `gorm:"not null;uniqueIndex:idx_participations_round_player"`
	IsStoryteller bool  `gorm:"not null;default:false"`
	ImageID       *uint `gorm:"index"`
	Score         int   `gorm:"not null;default:0"`
	VoteImageID   *uint ``
	VotePlayerID  *uint ``

	NotificationImageSent    *time.Time ``
	NotificationVoteSent     *time.Time ``
	NotificationFinishedSent *time.Time ``

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
