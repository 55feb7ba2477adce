package services

import (
	"context"
	"fmt"

	"github.com/ArowuTest/fastest-finger-pot/internal/models"
	"github.com/ArowuTest/fastest-finger-pot/internal/repositories"
)

var _ HistoryService = (*HistoryServiceImpl)(nil)

const maxPageSize = 100

// HistoryServiceImpl serves archived rounds, events and payout attempts
type HistoryServiceImpl struct {
	rounds  repositories.RoundRepository
	events  repositories.EventRepository
	payouts repositories.PayoutRepository
}

func NewHistoryService(store *repositories.Store) *HistoryServiceImpl {
	return &HistoryServiceImpl{
		rounds:  store.Rounds,
		events:  store.Events,
		payouts: store.Payouts,
	}
}

func clampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

// GetRounds returns a page of rounds newest first, plus the total count
func (s *HistoryServiceImpl) GetRounds(ctx context.Context, page, limit int) ([]*models.RoundResult, int64, error) {
	page, limit = clampPage(page, limit)
	rounds, err := s.rounds.FindRecent(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list rounds: %w", err)
	}
	total, err := s.rounds.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count rounds: %w", err)
	}
	return rounds, total, nil
}

// GetRound returns one archived round; repositories.ErrNotFound if it was never archived
func (s *HistoryServiceImpl) GetRound(ctx context.Context, number uint64) (*models.RoundResult, error) {
	return s.rounds.FindByNumber(ctx, number)
}

func (s *HistoryServiceImpl) GetRoundEvents(ctx context.Context, number uint64) ([]*models.GameEvent, error) {
	return s.events.FindByRound(ctx, number)
}

func (s *HistoryServiceImpl) GetRoundPayouts(ctx context.Context, number uint64) ([]*models.PayoutAttempt, error) {
	return s.payouts.FindByRound(ctx, number)
}

// GetWins returns the rounds won by id, newest first
func (s *HistoryServiceImpl) GetWins(ctx context.Context, id models.ParticipantID, page, limit int) ([]*models.RoundResult, error) {
	page, limit = clampPage(page, limit)
	return s.rounds.FindByWinner(ctx, id, page, limit)
}

func (s *HistoryServiceImpl) RecentEvents(ctx context.Context, limit int) ([]*models.GameEvent, error) {
	_, limit = clampPage(1, limit)
	return s.events.FindRecent(ctx, limit)
}
