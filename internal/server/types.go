package server

import "time"

// Player is the in-memory account record. The auth token is issued once at
// registration and never rotated.
type Player struct {
	ID           uint
	Name         string
	AuthToken    string
	AvatarID     uint
	PushToken    string
	TotalMatches int
}

// Image holds uploaded image bytes plus the metadata extracted on upload.
// RandomOrder is drawn once at upload time and gives every image a stable
// shuffle position without ordering by id.
type Image struct {
	ID          uint
	Data        []byte
	Width       int
	Height      int
	Size        int
	Owner       uint
	Copyright   string
	Info        map[string]any
	RandomOrder int32
	Created     time.Time
}

// ChatMessage is one entry in a chat group. Groups are keyed by the same
// 63-bit id a match derives from its player set, so rematches share a
// conversation.
type ChatMessage struct {
	Player uint      `json:"player"`
	Text   string    `json:"text"`
	Sent   time.Time `json:"sent"`
}

type chatGroup struct {
	Sequence int
	Messages []ChatMessage
}

func timeNowUTC() time.Time {
	return time.Now().UTC()
}
