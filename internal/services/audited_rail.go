package services

import (
	"context"
	"time"

	"github.com/ArowuTest/fastest-finger-pot/internal/game"
	"github.com/ArowuTest/fastest-finger-pot/internal/models"
	"github.com/ArowuTest/fastest-finger-pot/internal/repositories"
	"golang.org/x/exp/slog"
)

var _ game.PaymentRail = (*AuditedRail)(nil)

// AuditedRail records a PayoutAttempt for every call to the wrapped rail.
// Audit failures are logged and never change the transfer outcome.
type AuditedRail struct {
	rail    game.PaymentRail
	payouts repositories.PayoutRepository
	log     *slog.Logger
	now     func() time.Time
}

func NewAuditedRail(rail game.PaymentRail, payouts repositories.PayoutRepository, log *slog.Logger) *AuditedRail {
	return &AuditedRail{
		rail:    rail,
		payouts: payouts,
		log:     log,
		now:     time.Now,
	}
}

// Transfer calls the wrapped rail and audits the result
func (r *AuditedRail) Transfer(ctx context.Context, req models.TransferRequest) (models.TransferReceipt, error) {
	attemptedAt := r.now()
	receipt, err := r.rail.Transfer(ctx, req)

	attempt := &models.PayoutAttempt{
		RoundNumber:    req.RoundNumber,
		Recipient:      req.To,
		Amount:         req.Amount,
		Reason:         req.Reason,
		IdempotencyKey: req.IdempotencyKey,
		AttemptedAt:    attemptedAt,
	}
	if err != nil {
		attempt.Status = models.PayoutStatusFailed
		attempt.ErrorMessage = err.Error()
	} else {
		attempt.Status = models.PayoutStatusSucceeded
		attempt.Reference = receipt.Reference
	}

	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if perr := r.payouts.Create(actx, attempt); perr != nil {
		r.log.Error("Failed to record payout attempt",
			"error", perr,
			"round", req.RoundNumber,
			"key", req.IdempotencyKey,
			"status", attempt.Status,
		)
	}
	return receipt, err
}
