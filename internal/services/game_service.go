package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ArowuTest/fastest-finger-pot/internal/config"
	"github.com/ArowuTest/fastest-finger-pot/internal/game"
	"github.com/ArowuTest/fastest-finger-pot/internal/models"
	"github.com/ArowuTest/fastest-finger-pot/internal/repositories"
	"github.com/ArowuTest/fastest-finger-pot/internal/utils"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure GameServiceImpl implements GameService
var _ GameService = (*GameServiceImpl)(nil)

const archiveTimeout = 5 * time.Second

// GameServiceImpl adapts the engine to request-shaped input and archives every closed round
type GameServiceImpl struct {
	engine  *game.Engine
	rounds  repositories.RoundRepository
	events  repositories.EventRepository
	payouts repositories.PayoutRepository
	cfg     config.GameConfig
	log     *slog.Logger
}

// NewGameService creates a new GameServiceImpl
func NewGameService(engine *game.Engine, store *repositories.Store, cfg config.GameConfig, log *slog.Logger) *GameServiceImpl {
	return &GameServiceImpl{
		engine:  engine,
		rounds:  store.Rounds,
		events:  store.Events,
		payouts: store.Payouts,
		cfg:     cfg,
		log:     log,
	}
}

// Restore positions the engine after the last committed round and replays
// the players of a round that was still open. A round counts as committed
// when it is archived, when its pot settled on the rail, or when its closing
// event was logged; the archive alone can lag if a write failed.
// It must run before the service takes traffic.
func (s *GameServiceImpl) Restore(ctx context.Context) error {
	var state game.ResumeState

	var committed uint64
	latest, err := s.rounds.FindLatest(ctx)
	switch {
	case err == nil:
		committed = latest.RoundNumber
	case !errors.Is(err, repositories.ErrNotFound):
		return fmt.Errorf("failed to load latest round: %w", err)
	}
	won, err := s.rounds.FindLatestWon(ctx)
	switch {
	case err == nil:
		state.LastWinner = won.Winner
	case !errors.Is(err, repositories.ErrNotFound):
		return fmt.Errorf("failed to load last winner: %w", err)
	}

	settled, err := s.payouts.MaxSettledRound(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settled payouts: %w", err)
	}
	if settled > committed {
		s.log.Warn("Settled payout missing from archive", "round", settled, "archived", committed)
		committed = settled
	}

	logged, err := s.events.MaxRound(ctx)
	if err != nil {
		return fmt.Errorf("failed to load event log: %w", err)
	}
	var live []*models.GameEvent
	if logged > committed {
		events, err := s.events.FindByRound(ctx, logged)
		if err != nil {
			return fmt.Errorf("failed to load events of round %d: %w", logged, err)
		}
		if closing := closingEvent(events); closing != nil {
			s.log.Warn("Closed round missing from archive", "round", logged, "archived", committed)
			committed = logged
			if closing.Type == models.EventRoundEnded && closing.Score != nil {
				state.LastWinner = &models.WinnerRecord{
					RoundNumber:  logged,
					WinnerID:     closing.Participant,
					WinningScore: *closing.Score,
					Payout:       closing.Amount,
					DecidedAt:    closing.OccurredAt,
				}
			}
		} else {
			// rounds only advance on commit, so every earlier round closed
			committed = logged - 1
			live = events
		}
	}

	state.NextRound = committed + 1
	if len(live) > 0 {
		state.Live, state.StartedAt = replayLive(live)
	}
	if err := s.engine.Resume(state); err != nil {
		return err
	}
	if committed == 0 && len(state.Live) == 0 {
		s.log.Info("No archived rounds, starting at round 1")
	}
	return nil
}

// closingEvent returns the event that committed a round, if any.
func closingEvent(events []*models.GameEvent) *models.GameEvent {
	for _, ev := range events {
		if ev.Type == models.EventRoundEnded || ev.Type == models.EventInactivityPayoutClaimed {
			return ev
		}
	}
	return nil
}

// replayLive rebuilds an open round's players from its events, oldest first.
func replayLive(events []*models.GameEvent) ([]models.ParticipantEntry, time.Time) {
	var (
		entries   []models.ParticipantEntry
		index     = map[models.ParticipantID]int{}
		startedAt time.Time
	)
	for _, ev := range events {
		switch ev.Type {
		case models.EventPlayerJoined:
			if _, ok := index[ev.Participant]; ok {
				continue
			}
			index[ev.Participant] = len(entries)
			entries = append(entries, models.ParticipantEntry{ID: ev.Participant, Stake: ev.Amount, JoinedAt: ev.OccurredAt})
		case models.EventRoundStarted:
			startedAt = ev.OccurredAt
		case models.EventPlayerClicked:
			if i, ok := index[ev.Participant]; ok && ev.Clicks > entries[i].Clicks {
				entries[i].Clicks = ev.Clicks
			}
		}
	}
	return entries, startedAt
}

// NormalizeParticipant validates raw according to game.require_address_ids
func (s *GameServiceImpl) NormalizeParticipant(raw string) (models.ParticipantID, error) {
	id, err := utils.NormalizeParticipantID(raw, s.cfg.RequireAddressIDs)
	if err != nil {
		return "", game.ErrInvalidParticipant
	}
	return models.ParticipantID(id), nil
}

// Join parses the stake and admits id into the current round
func (s *GameServiceImpl) Join(ctx context.Context, id models.ParticipantID, stake string) (models.ParticipantEntry, error) {
	amount, err := models.ParseAmount(stake, s.cfg.TokenDecimals)
	if err != nil {
		return models.ParticipantEntry{}, fmt.Errorf("%w: %v", game.ErrInvalidAmount, err)
	}
	return s.engine.Join(id, amount)
}

// Click registers a click for id
func (s *GameServiceImpl) Click(ctx context.Context, id models.ParticipantID) (uint64, error) {
	return s.engine.RegisterClick(id)
}

// EndRound closes an expired round and archives the result
func (s *GameServiceImpl) EndRound(ctx context.Context) (*models.RoundResult, error) {
	result, err := s.engine.EndRound(ctx)
	if err != nil {
		return nil, err
	}
	s.archive(ctx, result)
	return result, nil
}

// ClaimInactivityPayout closes an abandoned round and archives the result
func (s *GameServiceImpl) ClaimInactivityPayout(ctx context.Context) (*models.RoundResult, error) {
	result, err := s.engine.ClaimInactivityPayout(ctx)
	if err != nil {
		return nil, err
	}
	s.archive(ctx, result)
	return result, nil
}

// archive persists a committed round. The ledger has already moved on and
// money has moved, so a failure here is logged rather than returned.
func (s *GameServiceImpl) archive(ctx context.Context, result *models.RoundResult) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()
	if err := s.rounds.Create(ctx, result); err != nil {
		s.log.Error("CRITICAL: round committed but not archived",
			"error", err,
			"round", result.RoundNumber,
			"outcome", result.Outcome,
			"recipient", result.Recipient,
			"payout", result.Payout,
			"transferRef", result.TransferRef,
		)
	}
}

func (s *GameServiceImpl) RoundInfo() models.RoundInfo                 { return s.engine.RoundInfo() }
func (s *GameServiceImpl) PotSize() models.Amount                      { return s.engine.PotSize() }
func (s *GameServiceImpl) CurrentRoundNumber() uint64                  { return s.engine.CurrentRoundNumber() }
func (s *GameServiceImpl) RoundActive() bool                           { return s.engine.RoundActive() }
func (s *GameServiceImpl) IsExpired() bool                             { return s.engine.IsExpired() }
func (s *GameServiceImpl) CurrentWinner() (models.ParticipantID, bool) { return s.engine.CurrentWinner() }
func (s *GameServiceImpl) LastWinnerRecord() (models.WinnerRecord, bool) {
	return s.engine.LastWinnerRecord()
}
func (s *GameServiceImpl) TimeRemaining() time.Duration { return s.engine.TimeRemaining() }
func (s *GameServiceImpl) PlayerData(id models.ParticipantID) models.PlayerData {
	return s.engine.PlayerData(id)
}
func (s *GameServiceImpl) PlayerScore(id models.ParticipantID) models.Score {
	return s.engine.PlayerScore(id)
}
func (s *GameServiceImpl) CurrentRoundPlayers() []models.ParticipantEntry {
	return s.engine.CurrentRoundPlayers()
}
func (s *GameServiceImpl) CanClaimInactivityPayout() bool { return s.engine.CanClaimInactivityPayout() }
func (s *GameServiceImpl) TimeUntilInactivityPayout() time.Duration {
	return s.engine.TimeUntilInactivityPayout()
}

// Leaderboard ranks the current round; limit <= 0 uses game.leaderboard_size
func (s *GameServiceImpl) Leaderboard(limit int) []models.LeaderboardEntry {
	if limit <= 0 {
		limit = s.cfg.LeaderboardSize
	}
	return s.engine.Leaderboard(limit)
}

func (s *GameServiceImpl) Token() TokenInfo {
	return TokenInfo{Symbol: s.cfg.TokenSymbol, Decimals: s.cfg.TokenDecimals}
}
