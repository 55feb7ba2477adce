package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ArowuTest/fastest-finger-pot/internal/models"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

// PaymentRail is the external value-transfer capability. A call may block
// on the network; it is only retried after it has definitively failed.
type PaymentRail interface {
	Transfer(ctx context.Context, req models.TransferRequest) (models.TransferReceipt, error)
}

// PaymentRailFunc adapts a function to PaymentRail.
type PaymentRailFunc func(ctx context.Context, req models.TransferRequest) (models.TransferReceipt, error)

func (f PaymentRailFunc) Transfer(ctx context.Context, req models.TransferRequest) (models.TransferReceipt, error) {
	return f(ctx, req)
}

// stagedPayout is phase one of a pot transfer: everything needed to commit
// the round close, computed under the write lock but not yet applied.
type stagedPayout struct {
	reason       models.PayoutReason
	round        uint64
	recipient    models.ParticipantID // empty: pot is discarded
	amount       models.Amount
	winner       *models.WinnerRecord
	participants []models.ParticipantEntry
	startedAt    time.Time
	key          string
}

func (s *stagedPayout) needsTransfer() bool {
	return s.amount > 0 && s.recipient != ""
}

func (s *stagedPayout) request() models.TransferRequest {
	return models.TransferRequest{
		RoundNumber:    s.round,
		To:             s.recipient,
		Amount:         s.amount,
		Reason:         s.reason,
		IdempotencyKey: s.key,
	}
}

// payoutEngine runs phase two: the rail call. It never touches ledger state.
type payoutEngine struct {
	rail PaymentRail
	log  *slog.Logger
}

// unsettledTransfer is a failed transfer the rail may still have executed.
type unsettledTransfer struct {
	reason    models.PayoutReason
	recipient models.ParticipantID
	amount    models.Amount
	key       string
}

func (u *unsettledTransfer) matches(s *stagedPayout) bool {
	return u != nil && u.reason == s.reason && u.recipient == s.recipient && u.amount == s.amount
}

func newStagedPayout(reason models.PayoutReason, l *roundLedger) *stagedPayout {
	return &stagedPayout{
		reason:       reason,
		round:        l.number,
		amount:       l.pot,
		participants: l.players.snapshot(),
		startedAt:    l.startedAt,
	}
}

// assignKey reuses the key of an unsettled transfer for the same payout so
// the rail can deduplicate it. Must be called once the recipient is known.
func (s *stagedPayout) assignKey(l *roundLedger) {
	if l.unsettled.matches(s) {
		s.key = l.unsettled.key
		return
	}
	s.key = uuid.NewString()
}

// declined reports whether err is a definitive refusal by the rail.
func declined(err error) bool {
	return errors.Is(err, models.ErrTransferDeclined)
}

// execute transfers the staged pot. The caller's cancellation is not passed
// to the rail; its own timeout bounds the call. A panicking rail is reported
// as a failed payout.
func (p payoutEngine) execute(ctx context.Context, s *stagedPayout) (receipt models.TransferReceipt, err error) {
	if !s.needsTransfer() {
		return models.TransferReceipt{}, nil
	}
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("Payment rail panicked", "round", s.round, "recipient", s.recipient, "panic", r)
			receipt, err = models.TransferReceipt{}, fmt.Errorf("%w: rail panic: %v", ErrPayoutFailed, r)
		}
	}()

	receipt, err = p.rail.Transfer(context.WithoutCancel(ctx), s.request())
	if err != nil {
		return models.TransferReceipt{}, fmt.Errorf("%w: %w", ErrPayoutFailed, err)
	}
	return receipt, nil
}
