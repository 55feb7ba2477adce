package models

import "time"

// ParticipantID identifies a player. Address ids are stored in EIP-55 checksum form.
type ParticipantID string

// ParticipantEntry is one player's position in a single round.
type ParticipantEntry struct {
	ID       ParticipantID `bson:"id" json:"id"`
	Stake    Amount        `bson:"stake" json:"stake"`
	Clicks   uint64        `bson:"clicks" json:"clicks"`
	JoinedAt time.Time     `bson:"joinedAt" json:"joinedAt"`
}

// PlayerData is the per-player projection returned by getPlayerData.
type PlayerData struct {
	HasJoined bool   `json:"hasJoined"`
	Stake     Amount `json:"stake"`
	Clicks    uint64 `json:"clicks"`
}

// LeaderboardEntry is a ranked participant of the current round.
type LeaderboardEntry struct {
	Rank int `json:"rank"`
	ParticipantEntry
	Score Score `json:"score"`
}
