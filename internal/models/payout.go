package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PayoutReason says why a pot is being transferred
type PayoutReason string

const (
	PayoutReasonRoundWin   PayoutReason = "ROUND_WIN"
	PayoutReasonInactivity PayoutReason = "INACTIVITY"
)

type PayoutStatus string

const (
	PayoutStatusSucceeded PayoutStatus = "SUCCEEDED"
	PayoutStatusFailed    PayoutStatus = "FAILED"
)

// ErrTransferDeclined marks a rail error as a definitive refusal: no value
// moved and the next attempt may carry a new idempotency key. Any other rail
// error leaves the outcome unknown.
var ErrTransferDeclined = errors.New("transfer declined")

// TransferRequest asks the payment rail to move a pot to a participant.
// IdempotencyKey is reused when a payout whose outcome is unknown is retried.
type TransferRequest struct {
	RoundNumber    uint64        `json:"roundNumber"`
	To             ParticipantID `json:"to"`
	Amount         Amount        `json:"amount"`
	Reason         PayoutReason  `json:"reason"`
	IdempotencyKey string        `json:"idempotencyKey"`
}

// TransferReceipt confirms a settled transfer.
type TransferReceipt struct {
	Reference string    `json:"reference"`
	SettledAt time.Time `json:"settledAt"`
}

// PayoutAttempt is the audit record of one call to the payment rail.
type PayoutAttempt struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	RoundNumber    uint64             `bson:"roundNumber" json:"roundNumber"`
	Recipient      ParticipantID      `bson:"recipient" json:"recipient"`
	Amount         Amount             `bson:"amount" json:"amount"`
	Reason         PayoutReason       `bson:"reason" json:"reason"`
	IdempotencyKey string             `bson:"idempotencyKey" json:"idempotencyKey"`
	Status         PayoutStatus       `bson:"status" json:"status"`
	Reference      string             `bson:"reference,omitempty" json:"reference,omitempty"`
	ErrorMessage   string             `bson:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	AttemptedAt    time.Time          `bson:"attemptedAt" json:"attemptedAt"`
}
