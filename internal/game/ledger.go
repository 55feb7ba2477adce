package game

import (
	"fmt"
	"time"

	"github.com/ArowuTest/fastest-finger-pot/internal/models"
)

// roundLedger holds the live round. pot always equals the registry's
// stake total; a staged payout leaves both untouched until settle.
type roundLedger struct {
	number    uint64
	status    models.RoundStatus // Waiting or Active; archived rounds are Ended
	createdAt time.Time
	startedAt time.Time // zero until the first join
	pot       models.Amount
	players   *registry

	duration   time.Duration
	inactivity time.Duration

	lastWinner models.ParticipantID
	lastRecord *models.WinnerRecord

	pending   *stagedPayout
	unsettled *unsettledTransfer
}

func newRoundLedger(cfg Config, now time.Time) *roundLedger {
	return &roundLedger{
		number:     1,
		status:     models.RoundStatusWaiting,
		createdAt:  now,
		players:    newRegistry(1),
		duration:   cfg.RoundDuration,
		inactivity: cfg.InactivityThreshold,
	}
}

func (l *roundLedger) started() bool {
	return l.status == models.RoundStatusActive
}

func (l *roundLedger) isExpired(now time.Time) bool {
	return l.started() && now.Sub(l.startedAt) >= l.duration
}

func (l *roundLedger) timeRemaining(now time.Time) time.Duration {
	if !l.started() {
		return 0
	}
	if left := l.duration - now.Sub(l.startedAt); left > 0 {
		return left
	}
	return 0
}

// join admits id with stake. started reports whether this join opened the round.
func (l *roundLedger) join(id models.ParticipantID, stake models.Amount, now time.Time) (started bool, err error) {
	if stake == 0 {
		return false, ErrZeroStake
	}
	if _, ok := l.players.lookup(id); ok {
		return false, ErrAlreadyJoined
	}
	if l.status != models.RoundStatusWaiting && l.status != models.RoundStatusActive {
		return false, ErrRoundNotJoinable
	}
	if l.isExpired(now) {
		return false, ErrRoundNotJoinable
	}
	pot, ok := l.pot.Add(stake)
	if !ok {
		return false, ErrArithmeticOverflow
	}

	l.players.insert(id, stake, now)
	l.pot = pot
	if l.status == models.RoundStatusWaiting {
		l.status = models.RoundStatusActive
		l.startedAt = now
		started = true
	}
	return started, nil
}

// click records one click and returns the new count.
func (l *roundLedger) click(id models.ParticipantID, now time.Time) (uint64, error) {
	p, ok := l.players.lookup(id)
	if !ok {
		return 0, ErrNotJoined
	}
	if !l.started() || l.isExpired(now) {
		return 0, ErrRoundEnded
	}
	if p.entry.Clicks == ^uint64(0) {
		return 0, ErrArithmeticOverflow
	}
	p.entry.Clicks++
	return p.entry.Clicks, nil
}

// restoreLive reinstates an active round's players. Nothing is applied if
// any entry is invalid.
func (l *roundLedger) restoreLive(entries []models.ParticipantEntry, startedAt time.Time) error {
	seen := make(map[models.ParticipantID]bool, len(entries))
	var pot models.Amount
	for _, p := range entries {
		if p.ID == "" {
			return fmt.Errorf("restore round %d: %w", l.number, ErrInvalidParticipant)
		}
		if p.Stake == 0 {
			return fmt.Errorf("restore round %d: %s: %w", l.number, p.ID, ErrZeroStake)
		}
		if seen[p.ID] {
			return fmt.Errorf("restore round %d: %s: %w", l.number, p.ID, ErrAlreadyJoined)
		}
		seen[p.ID] = true
		var ok bool
		if pot, ok = pot.Add(p.Stake); !ok {
			return fmt.Errorf("restore round %d: %w", l.number, ErrArithmeticOverflow)
		}
	}

	for _, p := range entries {
		l.players.insert(p.ID, p.Stake, p.JoinedAt)
		e, _ := l.players.lookup(p.ID)
		e.entry.Clicks = p.Clicks
	}
	if startedAt.IsZero() {
		startedAt = entries[0].JoinedAt
	}
	l.pot = pot
	l.status = models.RoundStatusActive
	l.startedAt = startedAt
	return nil
}

// checkPot verifies the pot against the registry before a payout is staged.
func (l *roundLedger) checkPot() error {
	total, ok := l.players.stakeTotal()
	if !ok {
		return ErrArithmeticOverflow
	}
	if total != l.pot {
		return fmt.Errorf("%w: pot %s, stakes %s", ErrPotMismatch, l.pot, total)
	}
	return nil
}

// advance discards the live round and opens round number+1 in Waiting.
func (l *roundLedger) advance(now time.Time) {
	l.number++
	l.status = models.RoundStatusWaiting
	l.createdAt = now
	l.startedAt = time.Time{}
	l.pot = 0
	l.unsettled = nil
	l.players.reset(l.number)
}

func (l *roundLedger) reportedStatus() models.RoundStatus {
	if l.pending != nil {
		return models.RoundStatusPayoutPending
	}
	return l.status
}

func (l *roundLedger) info(now time.Time) models.RoundInfo {
	info := models.RoundInfo{
		RoundNumber:   l.number,
		Status:        l.reportedStatus(),
		Active:        l.started(),
		CreatedAt:     l.createdAt,
		Duration:      l.duration,
		TimeRemaining: l.timeRemaining(now),
		Pot:           l.pot,
		PlayerCount:   l.players.len(),
		LastWinner:    l.lastWinner,
	}
	if l.started() {
		startedAt := l.startedAt
		info.StartedAt = &startedAt
	}
	return info
}
