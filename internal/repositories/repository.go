package repositories

import (
	"context"
	"errors"

	"github.com/ArowuTest/fastest-finger-pot/internal/models"
)

// ErrNotFound is returned by Find* methods that look up a single record.
var ErrNotFound = errors.New("record not found")

// RoundRepository defines the interface for archived round operations
type RoundRepository interface {
	Create(ctx context.Context, round *models.RoundResult) error
	FindByNumber(ctx context.Context, number uint64) (*models.RoundResult, error)
	FindLatest(ctx context.Context) (*models.RoundResult, error)
	// FindLatestWon returns the most recent round that produced a winner
	FindLatestWon(ctx context.Context) (*models.RoundResult, error)
	FindRecent(ctx context.Context, page, limit int) ([]*models.RoundResult, error)
	FindByWinner(ctx context.Context, id models.ParticipantID, page, limit int) ([]*models.RoundResult, error)
	Count(ctx context.Context) (int64, error)
}

// EventRepository defines the interface for the game event log
type EventRepository interface {
	Create(ctx context.Context, event *models.GameEvent) error
	// FindByRound returns a round's events oldest first
	FindByRound(ctx context.Context, round uint64) ([]*models.GameEvent, error)
	// FindRecent returns up to limit events newest first
	FindRecent(ctx context.Context, limit int) ([]*models.GameEvent, error)
	// MaxRound returns the highest round number with any event, 0 if none
	MaxRound(ctx context.Context) (uint64, error)
}

// PayoutRepository defines the interface for the payment rail audit trail
type PayoutRepository interface {
	Create(ctx context.Context, attempt *models.PayoutAttempt) error
	FindByRound(ctx context.Context, round uint64) ([]*models.PayoutAttempt, error)
	// MaxSettledRound returns the highest round with a succeeded attempt, 0 if none
	MaxSettledRound(ctx context.Context) (uint64, error)
}

// Store bundles the repositories of one storage backend.
type Store struct {
	Rounds  RoundRepository
	Events  EventRepository
	Payouts PayoutRepository
	Close   func(ctx context.Context) error
}
