package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoundStatus represents where a round is in its lifecycle
type RoundStatus string

const (
	RoundStatusWaiting       RoundStatus = "WAITING"
	RoundStatusActive        RoundStatus = "ACTIVE"
	RoundStatusPayoutPending RoundStatus = "PAYOUT_PENDING"
	RoundStatusEnded         RoundStatus = "ENDED"
)

// RoundOutcome records how a round was closed
type RoundOutcome string

const (
	RoundOutcomeWon      RoundOutcome = "WON"
	RoundOutcomeInactive RoundOutcome = "INACTIVE"
)

// RoundInfo is a consistent read of the live round.
type RoundInfo struct {
	RoundNumber   uint64        `json:"roundNumber"`
	Status        RoundStatus   `json:"status"`
	Active        bool          `json:"active"`
	CreatedAt     time.Time     `json:"createdAt"`
	StartedAt     *time.Time    `json:"startedAt,omitempty"`
	Duration      time.Duration `json:"duration"`
	TimeRemaining time.Duration `json:"timeRemaining"`
	Pot           Amount        `json:"pot"`
	PlayerCount   int           `json:"playerCount"`
	LastWinner    ParticipantID `json:"lastWinner,omitempty"`
}

// RoundResult is the archived outcome of a closed round.
type RoundResult struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	RoundNumber  uint64             `bson:"roundNumber" json:"roundNumber"`
	Outcome      RoundOutcome       `bson:"outcome" json:"outcome"`
	Winner       *WinnerRecord      `bson:"winner,omitempty" json:"winner,omitempty"`
	Recipient    ParticipantID      `bson:"recipient,omitempty" json:"recipient,omitempty"` // Empty when an inactive pot is discarded
	Payout       Amount             `bson:"payout" json:"payout"`
	TransferRef  string             `bson:"transferRef,omitempty" json:"transferRef,omitempty"`
	Participants []ParticipantEntry `bson:"participants" json:"participants"`
	StartedAt    *time.Time         `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	EndedAt      time.Time          `bson:"endedAt" json:"endedAt"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}
