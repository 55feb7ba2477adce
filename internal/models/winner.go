package models

import (
	"time"
)

// WinnerRecord represents the winner of a round
type WinnerRecord struct {
	RoundNumber  uint64        `bson:"roundNumber" json:"roundNumber"`
	WinnerID     ParticipantID `bson:"winnerId" json:"winnerId"`
	WinningScore Score         `bson:"winningScore" json:"winningScore"`
	Payout       Amount        `bson:"payout" json:"payout"`
	DecidedAt    time.Time     `bson:"decidedAt" json:"decidedAt"`
}
