package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ArowuTest/fastest-finger-pot/internal/models"
	"github.com/ArowuTest/fastest-finger-pot/internal/repositories"
	"github.com/google/uuid"
)

var _ repositories.EventRepository = (*EventRepository)(nil)

type EventRepository struct {
	db *DB
}

func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `seq, type, round_number, participant, amount, clicks, score, message, occurred_at`

func (r *EventRepository) Create(ctx context.Context, event *models.GameEvent) error {
	var score sql.NullString
	if event.Score != nil {
		score = sql.NullString{String: event.Score.String(), Valid: true}
	}
	return r.db.exec(ctx, `INSERT INTO game_events (event_key, `+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), int64(event.Seq), string(event.Type), int64(event.RoundNumber),
		string(event.Participant), event.Amount.String(), int64(event.Clicks), score,
		event.Message, unixNano(event.OccurredAt),
	)
}

func (r *EventRepository) FindByRound(ctx context.Context, round uint64) ([]*models.GameEvent, error) {
	rows, err := r.db.query(ctx, `SELECT `+eventColumns+` FROM game_events WHERE round_number = ? ORDER BY occurred_at ASC, seq ASC`,
		int64(round))
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

func (r *EventRepository) FindRecent(ctx context.Context, limit int) ([]*models.GameEvent, error) {
	rows, err := r.db.query(ctx, `SELECT `+eventColumns+` FROM game_events ORDER BY occurred_at DESC, seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

func (r *EventRepository) MaxRound(ctx context.Context) (uint64, error) {
	var max int64
	if err := r.db.queryRow(ctx, `SELECT COALESCE(MAX(round_number), 0) FROM game_events`).Scan(&max); err != nil {
		return 0, err
	}
	return uint64(max), nil
}

func scanEvents(rows *sql.Rows) ([]*models.GameEvent, error) {
	defer rows.Close()
	events := []*models.GameEvent{}
	for rows.Next() {
		var (
			seq, round, clicks, occurredAt int64
			typ, participant, message      string
			amount                         models.Amount
			score                          sql.NullString
		)
		if err := rows.Scan(&seq, &typ, &round, &participant, &amount, &clicks, &score, &message, &occurredAt); err != nil {
			return nil, err
		}
		ev := &models.GameEvent{
			Seq:         uint64(seq),
			Type:        models.EventType(typ),
			RoundNumber: uint64(round),
			Participant: models.ParticipantID(participant),
			Amount:      amount,
			Clicks:      uint64(clicks),
			Message:     message,
			OccurredAt:  fromUnixNano(occurredAt),
		}
		if score.Valid {
			s, err := models.ParseScore(score.String)
			if err != nil {
				return nil, fmt.Errorf("event %d: %w", seq, err)
			}
			ev.Score = &s
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
