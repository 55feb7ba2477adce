// Package memory holds round history in process memory. It backs the
// memory storage driver and service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ArowuTest/fastest-finger-pot/internal/models"
	"github.com/ArowuTest/fastest-finger-pot/internal/repositories"
)

var (
	_ repositories.RoundRepository  = (*RoundRepository)(nil)
	_ repositories.EventRepository  = (*EventRepository)(nil)
	_ repositories.PayoutRepository = (*PayoutRepository)(nil)
)

// RoundRepository keeps rounds sorted by number, newest last.
type RoundRepository struct {
	mu     sync.RWMutex
	rounds []*models.RoundResult
}

func NewRoundRepository() *RoundRepository {
	return &RoundRepository{}
}

func (r *RoundRepository) Create(ctx context.Context, round *models.RoundResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := sort.Search(len(r.rounds), func(i int) bool { return r.rounds[i].RoundNumber >= round.RoundNumber })
	if i < len(r.rounds) && r.rounds[i].RoundNumber == round.RoundNumber {
		return fmt.Errorf("round %d already archived", round.RoundNumber)
	}
	round.CreatedAt = time.Now()
	stored := cloneRound(round)

	r.rounds = append(r.rounds, nil)
	copy(r.rounds[i+1:], r.rounds[i:])
	r.rounds[i] = stored
	return nil
}

func (r *RoundRepository) FindByNumber(ctx context.Context, number uint64) (*models.RoundResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := sort.Search(len(r.rounds), func(i int) bool { return r.rounds[i].RoundNumber >= number })
	if i == len(r.rounds) || r.rounds[i].RoundNumber != number {
		return nil, repositories.ErrNotFound
	}
	return cloneRound(r.rounds[i]), nil
}

func (r *RoundRepository) FindLatest(ctx context.Context) (*models.RoundResult, error) {
	return r.latest(func(*models.RoundResult) bool { return true })
}

func (r *RoundRepository) FindLatestWon(ctx context.Context) (*models.RoundResult, error) {
	return r.latest(func(round *models.RoundResult) bool { return round.Outcome == models.RoundOutcomeWon })
}

func (r *RoundRepository) latest(match func(*models.RoundResult) bool) (*models.RoundResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.rounds) - 1; i >= 0; i-- {
		if match(r.rounds[i]) {
			return cloneRound(r.rounds[i]), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *RoundRepository) FindRecent(ctx context.Context, page, limit int) ([]*models.RoundResult, error) {
	return r.page(func(*models.RoundResult) bool { return true }, page, limit), nil
}

func (r *RoundRepository) FindByWinner(ctx context.Context, id models.ParticipantID, page, limit int) ([]*models.RoundResult, error) {
	return r.page(func(round *models.RoundResult) bool {
		return round.Winner != nil && round.Winner.WinnerID == id
	}, page, limit), nil
}

func (r *RoundRepository) page(match func(*models.RoundResult) bool, page, limit int) []*models.RoundResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if page < 1 {
		page = 1
	}
	skip := (page - 1) * limit
	out := []*models.RoundResult{}
	for i := len(r.rounds) - 1; i >= 0 && len(out) < limit; i-- {
		if !match(r.rounds[i]) {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		out = append(out, cloneRound(r.rounds[i]))
	}
	return out
}

func (r *RoundRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.rounds)), nil
}

func cloneRound(in *models.RoundResult) *models.RoundResult {
	out := *in
	if in.Winner != nil {
		w := *in.Winner
		out.Winner = &w
	}
	if in.StartedAt != nil {
		t := *in.StartedAt
		out.StartedAt = &t
	}
	out.Participants = append([]models.ParticipantEntry(nil), in.Participants...)
	return &out
}

// EventRepository is an append-only event log.
type EventRepository struct {
	mu     sync.RWMutex
	events []models.GameEvent
}

func NewEventRepository() *EventRepository {
	return &EventRepository{}
}

func (r *EventRepository) Create(ctx context.Context, event *models.GameEvent) error {
	r.mu.Lock()
	r.events = append(r.events, *event)
	r.mu.Unlock()
	return nil
}

func (r *EventRepository) FindByRound(ctx context.Context, round uint64) ([]*models.GameEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*models.GameEvent{}
	for i := range r.events {
		if r.events[i].RoundNumber == round {
			ev := r.events[i]
			out = append(out, &ev)
		}
	}
	return out, nil
}

func (r *EventRepository) FindRecent(ctx context.Context, limit int) ([]*models.GameEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*models.GameEvent{}
	for i := len(r.events) - 1; i >= 0 && len(out) < limit; i-- {
		ev := r.events[i]
		out = append(out, &ev)
	}
	return out, nil
}

func (r *EventRepository) MaxRound(ctx context.Context) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var max uint64
	for i := range r.events {
		if r.events[i].RoundNumber > max {
			max = r.events[i].RoundNumber
		}
	}
	return max, nil
}

// PayoutRepository records rail attempts in order.
type PayoutRepository struct {
	mu       sync.RWMutex
	attempts []models.PayoutAttempt
}

func NewPayoutRepository() *PayoutRepository {
	return &PayoutRepository{}
}

func (r *PayoutRepository) Create(ctx context.Context, attempt *models.PayoutAttempt) error {
	r.mu.Lock()
	r.attempts = append(r.attempts, *attempt)
	r.mu.Unlock()
	return nil
}

func (r *PayoutRepository) FindByRound(ctx context.Context, round uint64) ([]*models.PayoutAttempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*models.PayoutAttempt{}
	for i := range r.attempts {
		if r.attempts[i].RoundNumber == round {
			a := r.attempts[i]
			out = append(out, &a)
		}
	}
	return out, nil
}

func (r *PayoutRepository) MaxSettledRound(ctx context.Context) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var max uint64
	for i := range r.attempts {
		if r.attempts[i].Status == models.PayoutStatusSucceeded && r.attempts[i].RoundNumber > max {
			max = r.attempts[i].RoundNumber
		}
	}
	return max, nil
}

// NewStore returns an empty in-memory store.
func NewStore() *repositories.Store {
	return &repositories.Store{
		Rounds:  NewRoundRepository(),
		Events:  NewEventRepository(),
		Payouts: NewPayoutRepository(),
		Close:   func(context.Context) error { return nil },
	}
}
