// Package game implements the round-based staking ledger: admission, click
// tracking, winner resolution and the two-phase pot payout.
package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ArowuTest/fastest-finger-pot/internal/models"
	"golang.org/x/exp/slog"
)

// Config holds the fixed round timings.
type Config struct {
	RoundDuration       time.Duration
	InactivityThreshold time.Duration
}

// DefaultConfig matches the deployed game: 15 second rounds, 5 minute inactivity window.
func DefaultConfig() Config {
	return Config{
		RoundDuration:       15 * time.Second,
		InactivityThreshold: 5 * time.Minute,
	}
}

func (c Config) validate() error {
	if c.RoundDuration <= 0 {
		return errors.New("round duration must be positive")
	}
	if c.InactivityThreshold <= c.RoundDuration {
		return fmt.Errorf("inactivity threshold %s must exceed round duration %s", c.InactivityThreshold, c.RoundDuration)
	}
	return nil
}

// EventSink receives every event in commit order. Publish is called with the
// engine's write lock held and must not block.
type EventSink interface {
	Publish(ev models.GameEvent)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(ev models.GameEvent)

func (f EventSinkFunc) Publish(ev models.GameEvent) { f(ev) }

type discardSink struct{}

func (discardSink) Publish(models.GameEvent) {}

// ResumeState continues a previous run's numbering and winner history.
// Live holds NextRound's players in join order when that round had already
// started; its clock continues from StartedAt.
type ResumeState struct {
	NextRound  uint64
	LastWinner *models.WinnerRecord
	Live       []models.ParticipantEntry
	StartedAt  time.Time
}

type Option func(*Engine)

func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

func WithEventSink(s EventSink) Option {
	return func(e *Engine) { e.sink = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// Engine is the single authority over round state. Mutations are serialized
// by mu; the payment rail is called without mu held, guarded instead by the
// ledger's pending payout.
type Engine struct {
	mu      sync.RWMutex
	cfg     Config
	clock   Clock
	sink    EventSink
	log     *slog.Logger
	payouts payoutEngine
	state   *roundLedger
	seq     uint64
	mutated bool
}

// New creates an engine positioned at round 1, waiting for its first player.
func New(cfg Config, rail PaymentRail, opts ...Option) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if rail == nil {
		return nil, errors.New("payment rail is required")
	}
	e := &Engine{
		cfg:   cfg,
		clock: SystemClock{},
		sink:  discardSink{},
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.payouts = payoutEngine{rail: rail, log: e.log}
	e.state = newRoundLedger(cfg, e.clock.Now())
	return e, nil
}

// Resume positions a fresh engine after previously archived rounds.
func (e *Engine) Resume(rs ResumeState) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mutated {
		return ErrAlreadyResumed
	}
	if rs.NextRound > 1 {
		e.state.number = rs.NextRound
		e.state.players.reset(rs.NextRound)
		e.state.createdAt = e.clock.Now()
	}
	if rs.LastWinner != nil {
		rec := *rs.LastWinner
		e.state.lastWinner = rec.WinnerID
		e.state.lastRecord = &rec
	}
	if len(rs.Live) > 0 {
		if err := e.state.restoreLive(rs.Live, rs.StartedAt); err != nil {
			return err
		}
	}
	e.log.Info("Engine resumed", "round", e.state.number, "lastWinner", e.state.lastWinner,
		"players", e.state.players.len(), "pot", e.state.pot)
	return nil
}

// Config returns the engine's timings.
func (e *Engine) Config() Config {
	return e.cfg
}

// emit must be called with mu held.
func (e *Engine) emit(ev models.GameEvent, now time.Time) {
	e.seq++
	ev.Seq = e.seq
	if ev.RoundNumber == 0 {
		ev.RoundNumber = e.state.number
	}
	ev.OccurredAt = now
	e.sink.Publish(ev)
}

// Join admits id into the current round with stake. The first join starts the round clock.
func (e *Engine) Join(id models.ParticipantID, stake models.Amount) (models.ParticipantEntry, error) {
	if id == "" {
		return models.ParticipantEntry{}, ErrInvalidParticipant
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.pending != nil {
		return models.ParticipantEntry{}, ErrPayoutInProgress
	}
	now := e.clock.Now()
	started, err := e.state.join(id, stake, now)
	if err != nil {
		return models.ParticipantEntry{}, err
	}
	e.mutated = true

	p, _ := e.state.players.lookup(id)
	e.emit(models.GameEvent{Type: models.EventPlayerJoined, Participant: id, Amount: stake}, now)
	if started {
		e.emit(models.GameEvent{Type: models.EventRoundStarted, Participant: id}, now)
		e.log.Info("Round started", "round", e.state.number, "firstPlayer", id)
	}
	e.log.Debug("Player joined", "round", e.state.number, "participant", id, "stake", stake, "pot", e.state.pot)
	return p.entry, nil
}

// RegisterClick adds one click for id and returns the new count.
func (e *Engine) RegisterClick(id models.ParticipantID) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.pending != nil {
		return 0, ErrPayoutInProgress
	}
	now := e.clock.Now()
	clicks, err := e.state.click(id, now)
	if err != nil {
		return 0, err
	}
	e.mutated = true
	e.emit(models.GameEvent{Type: models.EventPlayerClicked, Participant: id, Clicks: clicks}, now)
	return clicks, nil
}

// EndRound closes an expired round: the highest score takes the whole pot.
// If the transfer fails the round stays Active with its pot and the call may be retried.
func (e *Engine) EndRound(ctx context.Context) (*models.RoundResult, error) {
	staged, err := e.stageRoundEnd()
	if err != nil {
		return nil, err
	}
	receipt, err := e.payouts.execute(ctx, staged)
	return e.settle(staged, receipt, err)
}

// ClaimInactivityPayout force-closes a round nobody joined within the
// inactivity window. Its pot goes to the last winner, or is discarded if
// there is none.
func (e *Engine) ClaimInactivityPayout(ctx context.Context) (*models.RoundResult, error) {
	staged, err := e.stageInactivity()
	if err != nil {
		return nil, err
	}
	receipt, err := e.payouts.execute(ctx, staged)
	return e.settle(staged, receipt, err)
}

func (e *Engine) stageRoundEnd() (*stagedPayout, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.pending != nil {
		return nil, ErrPayoutInProgress
	}
	now := e.clock.Now()
	if !e.state.started() {
		return nil, ErrRoundNotStarted
	}
	if !e.state.isExpired(now) {
		return nil, ErrRoundStillActive
	}
	if err := e.state.checkPot(); err != nil {
		e.log.Error("Round end aborted", "round", e.state.number, "error", err)
		return nil, err
	}

	s := newStagedPayout(models.PayoutReasonRoundWin, e.state)
	winner, score, err := Resolve(s.participants)
	if err != nil {
		return nil, err
	}
	s.recipient = winner.ID
	s.assignKey(e.state)
	s.winner = &models.WinnerRecord{
		RoundNumber:  s.round,
		WinnerID:     winner.ID,
		WinningScore: score,
		Payout:       s.amount,
	}
	e.state.pending = s
	e.mutated = true
	e.log.Info("Round payout staged", "round", s.round, "winner", winner.ID, "score", score.String(), "pot", s.amount)
	return s, nil
}

func (e *Engine) stageInactivity() (*stagedPayout, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.pending != nil {
		return nil, ErrPayoutInProgress
	}
	now := e.clock.Now()
	if !e.state.canClaimInactivity(now) {
		return nil, ErrInactivityWindowNotReached
	}
	if err := e.state.checkPot(); err != nil {
		e.log.Error("Inactivity claim aborted", "round", e.state.number, "error", err)
		return nil, err
	}
	s := newStagedPayout(models.PayoutReasonInactivity, e.state)
	if s.amount > 0 {
		s.recipient = e.state.lastWinner
	}
	s.assignKey(e.state)
	e.state.pending = s
	e.mutated = true
	e.log.Info("Inactivity payout staged", "round", s.round, "recipient", s.recipient, "pot", s.amount)
	return s, nil
}

// settle commits or rolls back a staged payout depending on the rail outcome.
func (e *Engine) settle(s *stagedPayout, receipt models.TransferReceipt, payErr error) (*models.RoundResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.clock.Now()
	e.state.pending = nil

	if payErr != nil {
		if declined(payErr) {
			e.state.unsettled = nil
		} else {
			e.state.unsettled = &unsettledTransfer{reason: s.reason, recipient: s.recipient, amount: s.amount, key: s.key}
		}
		e.log.Warn("Payout failed, round rolled back", "round", s.round, "recipient", s.recipient, "amount", s.amount, "key", s.key, "error", payErr)
		e.emit(models.GameEvent{
			Type:        models.EventPayoutFailed,
			RoundNumber: s.round,
			Participant: s.recipient,
			Amount:      s.amount,
			Message:     payErr.Error(),
		}, now)
		return nil, payErr
	}

	result := &models.RoundResult{
		RoundNumber:  s.round,
		Recipient:    s.recipient,
		Payout:       s.amount,
		TransferRef:  receipt.Reference,
		Participants: s.participants,
		EndedAt:      now,
	}
	if !s.startedAt.IsZero() {
		startedAt := s.startedAt
		result.StartedAt = &startedAt
	}

	switch s.reason {
	case models.PayoutReasonRoundWin:
		s.winner.DecidedAt = now
		rec := *s.winner
		result.Outcome = models.RoundOutcomeWon
		result.Winner = &rec
		e.state.lastWinner = rec.WinnerID
		e.state.lastRecord = &rec
		score := rec.WinningScore
		e.emit(models.GameEvent{
			Type:        models.EventRoundEnded,
			RoundNumber: s.round,
			Participant: rec.WinnerID,
			Amount:      s.amount,
			Score:       &score,
		}, now)
		e.log.Info("Round ended", "round", s.round, "winner", rec.WinnerID, "score", score.String(), "payout", s.amount, "ref", receipt.Reference)
	case models.PayoutReasonInactivity:
		result.Outcome = models.RoundOutcomeInactive
		e.emit(models.GameEvent{
			Type:        models.EventInactivityPayoutClaimed,
			RoundNumber: s.round,
			Participant: s.recipient,
			Amount:      s.amount,
		}, now)
		e.log.Info("Inactivity payout claimed", "round", s.round, "recipient", s.recipient, "payout", s.amount)
	}

	e.state.advance(now)
	return result, nil
}

// --- Reads ---

func (e *Engine) PotSize() models.Amount {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.pot
}

func (e *Engine) CurrentRoundNumber() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.number
}

// RoundActive is true from the first join until the round is closed, including after expiry.
func (e *Engine) RoundActive() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.started()
}

// CurrentWinner returns the winner of the most recently won round, if any.
func (e *Engine) CurrentWinner() (models.ParticipantID, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.lastWinner, e.state.lastWinner != ""
}

// LastWinnerRecord returns a copy of the most recent WinnerRecord.
func (e *Engine) LastWinnerRecord() (models.WinnerRecord, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state.lastRecord == nil {
		return models.WinnerRecord{}, false
	}
	return *e.state.lastRecord, true
}

func (e *Engine) PlayerData(id models.ParticipantID) models.PlayerData {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.state.players.lookup(id)
	if !ok {
		return models.PlayerData{}
	}
	return models.PlayerData{HasJoined: true, Stake: p.entry.Stake, Clicks: p.entry.Clicks}
}

// PlayerScore is zero for a participant who has not joined the current round.
func (e *Engine) PlayerScore(id models.ParticipantID) models.Score {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.state.players.lookup(id)
	if !ok {
		return models.Score{}
	}
	return ScoreOf(p.entry)
}

// CurrentRoundPlayers lists the current round's entries in join order.
func (e *Engine) CurrentRoundPlayers() []models.ParticipantEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.players.snapshot()
}

func (e *Engine) TimeRemaining() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.timeRemaining(e.clock.Now())
}

// IsExpired reports whether the Active round's duration has elapsed.
func (e *Engine) IsExpired() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.isExpired(e.clock.Now())
}

func (e *Engine) CanClaimInactivityPayout() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.canClaimInactivity(e.clock.Now())
}

func (e *Engine) TimeUntilInactivityPayout() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.timeUntilInactivity(e.clock.Now())
}

// RoundInfo returns one consistent view of the live round.
func (e *Engine) RoundInfo() models.RoundInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.info(e.clock.Now())
}

// Leaderboard ranks the current round; limit <= 0 returns every entry.
func (e *Engine) Leaderboard(limit int) []models.LeaderboardEntry {
	e.mu.RLock()
	entries := e.state.players.snapshot()
	e.mu.RUnlock()

	ranked := Rank(entries)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
