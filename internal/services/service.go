package services

import (
	"context"
	"time"

	"github.com/ArowuTest/fastest-finger-pot/internal/models"
)

// GameService defines the live round operations exposed to transports
type GameService interface {
	// NormalizeParticipant validates and canonicalizes a raw participant id
	NormalizeParticipant(raw string) (models.ParticipantID, error)

	// Join stakes a whole-token decimal amount ("0.1") into the current round
	Join(ctx context.Context, id models.ParticipantID, stake string) (models.ParticipantEntry, error)

	// Click registers one click and returns the new count
	Click(ctx context.Context, id models.ParticipantID) (uint64, error)

	// EndRound pays out an expired round and archives it
	EndRound(ctx context.Context) (*models.RoundResult, error)

	// ClaimInactivityPayout force-closes an abandoned round and archives it
	ClaimInactivityPayout(ctx context.Context) (*models.RoundResult, error)

	RoundInfo() models.RoundInfo
	PotSize() models.Amount
	CurrentRoundNumber() uint64
	RoundActive() bool
	IsExpired() bool
	CurrentWinner() (models.ParticipantID, bool)
	LastWinnerRecord() (models.WinnerRecord, bool)
	TimeRemaining() time.Duration
	PlayerData(id models.ParticipantID) models.PlayerData
	PlayerScore(id models.ParticipantID) models.Score
	CurrentRoundPlayers() []models.ParticipantEntry
	Leaderboard(limit int) []models.LeaderboardEntry
	CanClaimInactivityPayout() bool
	TimeUntilInactivityPayout() time.Duration

	// Token describes how amounts are formatted
	Token() TokenInfo
}

// HistoryService defines read access to archived rounds
type HistoryService interface {
	GetRounds(ctx context.Context, page, limit int) ([]*models.RoundResult, int64, error)
	GetRound(ctx context.Context, number uint64) (*models.RoundResult, error)
	GetRoundEvents(ctx context.Context, number uint64) ([]*models.GameEvent, error)
	GetRoundPayouts(ctx context.Context, number uint64) ([]*models.PayoutAttempt, error)
	GetWins(ctx context.Context, id models.ParticipantID, page, limit int) ([]*models.RoundResult, error)
	RecentEvents(ctx context.Context, limit int) ([]*models.GameEvent, error)
}

// AuthService defines the interface for authentication operations
type AuthService interface {
	// IssueToken signs a participant token. Only enabled in development deployments.
	IssueToken(ctx context.Context, participantID string) (*models.TokenResponse, error)
}

// TokenInfo is the staking token's display metadata
type TokenInfo struct {
	Symbol   string `json:"symbol"`
	Decimals int32  `json:"decimals"`
}
