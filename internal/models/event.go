package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EventType string

const (
	EventPlayerJoined            EventType = "PlayerJoined"
	EventRoundStarted            EventType = "RoundStarted"
	EventPlayerClicked           EventType = "PlayerClicked"
	EventRoundEnded              EventType = "RoundEnded"
	EventInactivityPayoutClaimed EventType = "InactivityPayoutClaimed"
	EventPayoutFailed            EventType = "PayoutFailed"
)

// GameEvent is a state-change notification emitted by the engine.
// Seq is assigned in commit order and restarts with the process.
type GameEvent struct {
	ID          primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	Seq         uint64             `json:"seq" bson:"seq"`
	Type        EventType          `json:"type" bson:"type"`
	RoundNumber uint64             `json:"roundNumber" bson:"roundNumber"`
	Participant ParticipantID      `json:"participant,omitempty" bson:"participant,omitempty"`
	Amount      Amount             `json:"amount,omitempty" bson:"amount,omitempty"` // stake, pot or payout depending on Type
	Clicks      uint64             `json:"clicks,omitempty" bson:"clicks,omitempty"`
	Score       *Score             `json:"score,omitempty" bson:"score,omitempty"`
	Message     string             `json:"message,omitempty" bson:"message,omitempty"`
	OccurredAt  time.Time          `json:"occurredAt" bson:"occurredAt"`
}
