package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/ArowuTest/fastest-finger-pot/internal/config"
	"github.com/ArowuTest/fastest-finger-pot/internal/game"
	"github.com/ArowuTest/fastest-finger-pot/internal/models"
	"golang.org/x/exp/slog"
)

// RoundCloser is the part of services.GameService the worker drives
type RoundCloser interface {
	RoundActive() bool
	IsExpired() bool
	CanClaimInactivityPayout() bool
	EndRound(ctx context.Context) (*models.RoundResult, error)
	ClaimInactivityPayout(ctx context.Context) (*models.RoundResult, error)
}

// RoundWorker closes expired rounds and claims abandoned pots on a ticker.
// Anyone may still close a round by hand; losing that race is not an error.
type RoundWorker struct {
	game      RoundCloser
	interval  time.Duration
	autoEnd   bool
	autoClaim bool
	log       *slog.Logger
	running   atomic.Bool
}

func NewRoundWorker(game RoundCloser, cfg config.WorkersConfig, log *slog.Logger) *RoundWorker {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	return &RoundWorker{
		game:      game,
		interval:  interval,
		autoEnd:   cfg.AutoEndRounds,
		autoClaim: cfg.AutoClaimInactivity,
		log:       log,
	}
}

// Run ticks until ctx is done
func (w *RoundWorker) Run(ctx context.Context) error {
	if !w.running.CompareAndSwap(false, true) {
		return errors.New("round worker is already running")
	}
	defer w.running.Store(false)

	if !w.autoEnd && !w.autoClaim {
		w.log.Info("Round worker disabled")
		<-ctx.Done()
		return nil
	}

	w.log.Info("Round worker started", "interval", w.interval, "autoEnd", w.autoEnd, "autoClaim", w.autoClaim)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-ctx.Done():
			w.log.Info("Round worker stopped")
			return nil
		}
	}
}

// IsRunning reports whether Run is active
func (w *RoundWorker) IsRunning() bool {
	return w.running.Load()
}

func (w *RoundWorker) tick(ctx context.Context) {
	if w.autoEnd && w.game.RoundActive() && w.game.IsExpired() {
		result, err := w.game.EndRound(ctx)
		if w.report("end round", err) {
			w.log.Info("Round auto-ended", "round", result.RoundNumber, "recipient", result.Recipient, "payout", result.Payout)
		}
		return
	}
	if w.autoClaim && w.game.CanClaimInactivityPayout() {
		result, err := w.game.ClaimInactivityPayout(ctx)
		if w.report("claim inactivity", err) {
			w.log.Info("Inactivity payout auto-claimed", "round", result.RoundNumber, "recipient", result.Recipient, "payout", result.Payout)
		}
	}
}

// report logs unexpected errors and returns whether the action succeeded
func (w *RoundWorker) report(action string, err error) bool {
	if err == nil {
		return true
	}
	kind, _ := game.KindOf(err)
	switch kind {
	case game.KindTemporal, game.KindConcurrency:
		w.log.Debug("Round worker skipped", "action", action, "reason", err)
	case game.KindPayoutFailure:
		w.log.Warn("Round worker payout failed, retrying next tick", "action", action, "error", err)
	default:
		w.log.Error("Round worker failed", "action", action, "error", err)
	}
	return false
}
