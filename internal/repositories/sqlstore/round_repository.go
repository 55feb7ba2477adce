package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ArowuTest/fastest-finger-pot/internal/models"
	"github.com/ArowuTest/fastest-finger-pot/internal/repositories"
)

var _ repositories.RoundRepository = (*RoundRepository)(nil)

// RoundRepository stores archived rounds in the rounds table.
type RoundRepository struct {
	db *DB
}

func NewRoundRepository(db *DB) *RoundRepository {
	return &RoundRepository{db: db}
}

const roundColumns = `round_number, outcome, winner_id, winning_score, decided_at, recipient,
	payout, transfer_ref, participants_json, started_at, ended_at, created_at`

func (r *RoundRepository) Create(ctx context.Context, round *models.RoundResult) error {
	round.CreatedAt = time.Now().UTC()

	participants, err := json.Marshal(round.Participants)
	if err != nil {
		return fmt.Errorf("failed to encode participants: %w", err)
	}

	var winnerID, score sql.NullString
	var decidedAt, startedAt sql.NullInt64
	if round.Winner != nil {
		winnerID = sql.NullString{String: string(round.Winner.WinnerID), Valid: true}
		score = sql.NullString{String: round.Winner.WinningScore.String(), Valid: true}
		decidedAt = sql.NullInt64{Int64: unixNano(round.Winner.DecidedAt), Valid: true}
	}
	if round.StartedAt != nil {
		startedAt = sql.NullInt64{Int64: unixNano(*round.StartedAt), Valid: true}
	}

	return r.db.exec(ctx, `INSERT INTO rounds (`+roundColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		int64(round.RoundNumber), string(round.Outcome), winnerID, score, decidedAt,
		string(round.Recipient), round.Payout.String(), round.TransferRef, string(participants),
		startedAt, unixNano(round.EndedAt), unixNano(round.CreatedAt),
	)
}

func (r *RoundRepository) FindByNumber(ctx context.Context, number uint64) (*models.RoundResult, error) {
	row := r.db.queryRow(ctx, `SELECT `+roundColumns+` FROM rounds WHERE round_number = ?`, int64(number))
	return scanRoundRow(row)
}

func (r *RoundRepository) FindLatest(ctx context.Context) (*models.RoundResult, error) {
	row := r.db.queryRow(ctx, `SELECT `+roundColumns+` FROM rounds ORDER BY round_number DESC LIMIT 1`)
	return scanRoundRow(row)
}

func (r *RoundRepository) FindLatestWon(ctx context.Context) (*models.RoundResult, error) {
	row := r.db.queryRow(ctx, `SELECT `+roundColumns+` FROM rounds WHERE outcome = ? ORDER BY round_number DESC LIMIT 1`,
		string(models.RoundOutcomeWon))
	return scanRoundRow(row)
}

func (r *RoundRepository) FindRecent(ctx context.Context, page, limit int) ([]*models.RoundResult, error) {
	rows, err := r.db.query(ctx, `SELECT `+roundColumns+` FROM rounds ORDER BY round_number DESC LIMIT ? OFFSET ?`,
		limit, offset(page, limit))
	if err != nil {
		return nil, err
	}
	return scanRounds(rows)
}

func (r *RoundRepository) FindByWinner(ctx context.Context, id models.ParticipantID, page, limit int) ([]*models.RoundResult, error) {
	rows, err := r.db.query(ctx, `SELECT `+roundColumns+` FROM rounds WHERE winner_id = ? ORDER BY round_number DESC LIMIT ? OFFSET ?`,
		string(id), limit, offset(page, limit))
	if err != nil {
		return nil, err
	}
	return scanRounds(rows)
}

func (r *RoundRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.queryRow(ctx, `SELECT COUNT(*) FROM rounds`).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRoundRow(row *sql.Row) (*models.RoundResult, error) {
	round, err := scanRound(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repositories.ErrNotFound
	}
	return round, err
}

func scanRounds(rows *sql.Rows) ([]*models.RoundResult, error) {
	defer rows.Close()
	rounds := []*models.RoundResult{}
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, round)
	}
	return rounds, rows.Err()
}

func scanRound(s rowScanner) (*models.RoundResult, error) {
	var (
		number                int64
		outcome, recipient    string
		winnerID, score       sql.NullString
		decidedAt, startedAt  sql.NullInt64
		payout                models.Amount
		ref, participantsJSON string
		endedAt, createdAt    int64
	)
	if err := s.Scan(&number, &outcome, &winnerID, &score, &decidedAt, &recipient,
		&payout, &ref, &participantsJSON, &startedAt, &endedAt, &createdAt); err != nil {
		return nil, err
	}

	round := &models.RoundResult{
		RoundNumber: uint64(number),
		Outcome:     models.RoundOutcome(outcome),
		Recipient:   models.ParticipantID(recipient),
		Payout:      payout,
		TransferRef: ref,
		EndedAt:     fromUnixNano(endedAt),
		CreatedAt:   fromUnixNano(createdAt),
	}
	if err := json.Unmarshal([]byte(participantsJSON), &round.Participants); err != nil {
		return nil, fmt.Errorf("round %d: bad participants: %w", number, err)
	}
	if startedAt.Valid {
		t := fromUnixNano(startedAt.Int64)
		round.StartedAt = &t
	}
	if winnerID.Valid {
		winningScore, err := models.ParseScore(score.String)
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", number, err)
		}
		round.Winner = &models.WinnerRecord{
			RoundNumber:  round.RoundNumber,
			WinnerID:     models.ParticipantID(winnerID.String),
			WinningScore: winningScore,
			Payout:       payout,
			DecidedAt:    fromUnixNano(decidedAt.Int64),
		}
	}
	return round, nil
}
