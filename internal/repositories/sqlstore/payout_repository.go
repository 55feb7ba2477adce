package sqlstore

import (
	"context"

	"github.com/ArowuTest/fastest-finger-pot/internal/models"
	"github.com/ArowuTest/fastest-finger-pot/internal/repositories"
	"github.com/google/uuid"
)

var _ repositories.PayoutRepository = (*PayoutRepository)(nil)

type PayoutRepository struct {
	db *DB
}

func NewPayoutRepository(db *DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

func (r *PayoutRepository) Create(ctx context.Context, a *models.PayoutAttempt) error {
	// Retries of one payout share an idempotency key, so each attempt gets its own id.
	return r.db.exec(ctx, `INSERT INTO payout_attempts
		(attempt_id, idempotency_key, round_number, recipient, amount, reason, status, reference, error_message, attempted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), a.IdempotencyKey, int64(a.RoundNumber), string(a.Recipient), a.Amount.String(),
		string(a.Reason), string(a.Status), a.Reference, a.ErrorMessage, unixNano(a.AttemptedAt),
	)
}

func (r *PayoutRepository) FindByRound(ctx context.Context, round uint64) ([]*models.PayoutAttempt, error) {
	rows, err := r.db.query(ctx, `SELECT idempotency_key, recipient, amount, reason, status, reference, error_message, attempted_at
		FROM payout_attempts WHERE round_number = ? ORDER BY attempted_at ASC`, int64(round))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attempts := []*models.PayoutAttempt{}
	for rows.Next() {
		var (
			key, recipient, reason, status, ref, msg string
			amount                                   models.Amount
			attemptedAt                              int64
		)
		if err := rows.Scan(&key, &recipient, &amount, &reason, &status, &ref, &msg, &attemptedAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, &models.PayoutAttempt{
			RoundNumber:    round,
			Recipient:      models.ParticipantID(recipient),
			Amount:         amount,
			Reason:         models.PayoutReason(reason),
			IdempotencyKey: key,
			Status:         models.PayoutStatus(status),
			Reference:      ref,
			ErrorMessage:   msg,
			AttemptedAt:    fromUnixNano(attemptedAt),
		})
	}
	return attempts, rows.Err()
}

func (r *PayoutRepository) MaxSettledRound(ctx context.Context) (uint64, error) {
	var max int64
	err := r.db.queryRow(ctx, `SELECT COALESCE(MAX(round_number), 0) FROM payout_attempts WHERE status = ?`,
		string(models.PayoutStatusSucceeded)).Scan(&max)
	if err != nil {
		return 0, err
	}
	return uint64(max), nil
}
