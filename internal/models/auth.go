package models

import "time"

// TokenRequest asks for a participant token (development deployments only)
type TokenRequest struct {
	ParticipantID string `json:"participantId" binding:"required"`
}

// TokenResponse carries a signed participant token
type TokenResponse struct {
	Token         string        `json:"token"`
	ParticipantID ParticipantID `json:"participantId"`
	ExpiresAt     time.Time     `json:"expiresAt"`
}

// JoinRequest is the body of POST /round/join. Stake is in whole tokens ("0.1").
type JoinRequest struct {
	Stake string `json:"stake" binding:"required"`
}
