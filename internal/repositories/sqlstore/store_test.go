package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ArowuTest/fastest-finger-pot/internal/models"
	"github.com/ArowuTest/fastest-finger-pot/internal/repositories"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), SQLite, filepath.Join(t.TempDir(), "rounds.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRebind(t *testing.T) {
	pg := &DB{dialect: Postgres}
	if got := pg.rebind("SELECT a FROM t WHERE x = ? AND y = ? LIMIT ?"); got != "SELECT a FROM t WHERE x = $1 AND y = $2 LIMIT $3" {
		t.Errorf("rebind = %q", got)
	}
	lite := &DB{dialect: SQLite}
	if got := lite.rebind("x = ?"); got != "x = ?" {
		t.Errorf("sqlite rebind = %q", got)
	}
}

func TestOpenRejectsUnknownDialect(t *testing.T) {
	if _, err := Open(context.Background(), Dialect("oracle"), "x"); err == nil {
		t.Fatal("Open succeeded for unknown dialect")
	}
}

func wonRound(number uint64, winner models.ParticipantID, at time.Time) *models.RoundResult {
	started := at.Add(-15 * time.Second)
	big := models.Amount(^uint64(0))
	return &models.RoundResult{
		RoundNumber: number,
		Outcome:     models.RoundOutcomeWon,
		Winner: &models.WinnerRecord{
			RoundNumber:  number,
			WinnerID:     winner,
			WinningScore: models.MulScore(big, 3),
			Payout:       big,
			DecidedAt:    at,
		},
		Recipient:   winner,
		Payout:      big,
		TransferRef: "ref",
		Participants: []models.ParticipantEntry{
			{ID: winner, Stake: big, Clicks: 3, JoinedAt: started},
		},
		StartedAt: &started,
		EndedAt:   at,
	}
}

func TestRoundRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewRoundRepository(openTestDB(t))
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	if _, err := repo.FindLatest(ctx); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("FindLatest on empty store error = %v", err)
	}

	for i, winner := range []models.ParticipantID{"alice", "bob", "alice"} {
		if err := repo.Create(ctx, wonRound(uint64(i+1), winner, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	inactive := &models.RoundResult{RoundNumber: 4, Outcome: models.RoundOutcomeInactive, EndedAt: base.Add(10 * time.Minute)}
	if err := repo.Create(ctx, inactive); err != nil {
		t.Fatalf("Create inactive: %v", err)
	}
	if err := repo.Create(ctx, wonRound(2, "carol", base)); err == nil {
		t.Error("duplicate round number accepted")
	}

	latest, err := repo.FindLatest(ctx)
	if err != nil || latest.RoundNumber != 4 || latest.Winner != nil || latest.StartedAt != nil {
		t.Fatalf("FindLatest = %+v, %v", latest, err)
	}
	won, err := repo.FindLatestWon(ctx)
	if err != nil || won.RoundNumber != 3 || won.Winner.WinnerID != "alice" {
		t.Fatalf("FindLatestWon = %+v, %v", won, err)
	}

	got, err := repo.FindByNumber(ctx, 2)
	if err != nil {
		t.Fatalf("FindByNumber: %v", err)
	}
	want := wonRound(2, "bob", base.Add(time.Minute))
	if got.Payout != want.Payout || got.Winner.WinningScore != want.Winner.WinningScore {
		t.Errorf("amounts lost precision: %+v", got)
	}
	if !got.EndedAt.Equal(want.EndedAt) || !got.StartedAt.Equal(*want.StartedAt) || !got.Winner.DecidedAt.Equal(want.Winner.DecidedAt) {
		t.Errorf("times = %v %v %v", got.EndedAt, got.StartedAt, got.Winner.DecidedAt)
	}
	if len(got.Participants) != 1 || got.Participants[0].Clicks != 3 || got.Participants[0].Stake != want.Payout {
		t.Errorf("participants = %+v", got.Participants)
	}

	if _, err := repo.FindByNumber(ctx, 99); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("FindByNumber(99) error = %v", err)
	}

	page, err := repo.FindRecent(ctx, 1, 2)
	if err != nil || len(page) != 2 || page[0].RoundNumber != 4 || page[1].RoundNumber != 3 {
		t.Errorf("FindRecent page 1 = %v, %v", page, err)
	}
	page, err = repo.FindRecent(ctx, 2, 2)
	if err != nil || len(page) != 2 || page[0].RoundNumber != 2 {
		t.Errorf("FindRecent page 2 = %v, %v", page, err)
	}

	alice, err := repo.FindByWinner(ctx, "alice", 1, 10)
	if err != nil || len(alice) != 2 || alice[0].RoundNumber != 3 {
		t.Errorf("FindByWinner = %v, %v", alice, err)
	}
	none, err := repo.FindByWinner(ctx, "nobody", 1, 10)
	if err != nil || none == nil || len(none) != 0 {
		t.Errorf("FindByWinner(nobody) = %v, %v", none, err)
	}

	if n, err := repo.Count(ctx); err != nil || n != 4 {
		t.Errorf("Count = %d, %v", n, err)
	}
}

func TestEventRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepository(openTestDB(t))
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	score := models.MulScore(7, 3)

	events := []*models.GameEvent{
		{Seq: 1, Type: models.EventPlayerJoined, RoundNumber: 1, Participant: "a", Amount: 7, OccurredAt: base},
		{Seq: 2, Type: models.EventPlayerClicked, RoundNumber: 1, Participant: "a", Clicks: 1, OccurredAt: base.Add(time.Second)},
		{Seq: 3, Type: models.EventRoundEnded, RoundNumber: 1, Participant: "a", Amount: 7, Score: &score, OccurredAt: base.Add(20 * time.Second)},
		{Seq: 4, Type: models.EventPlayerJoined, RoundNumber: 2, Participant: "b", Amount: 1, OccurredAt: base.Add(30 * time.Second)},
	}
	for _, ev := range events {
		if err := repo.Create(ctx, ev); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	round1, err := repo.FindByRound(ctx, 1)
	if err != nil || len(round1) != 3 {
		t.Fatalf("FindByRound = %v, %v", round1, err)
	}
	if round1[0].Type != models.EventPlayerJoined || round1[2].Score == nil || *round1[2].Score != score {
		t.Errorf("round 1 events = %+v", round1)
	}
	if round1[1].Score != nil {
		t.Error("click event gained a score")
	}

	recent, err := repo.FindRecent(ctx, 2)
	if err != nil || len(recent) != 2 || recent[0].Seq != 4 || recent[1].Seq != 3 {
		t.Errorf("FindRecent = %v, %v", recent, err)
	}

	if max, err := repo.MaxRound(ctx); err != nil || max != 2 {
		t.Errorf("MaxRound = %d, %v", max, err)
	}
	empty := NewEventRepository(openTestDB(t))
	if max, err := empty.MaxRound(ctx); err != nil || max != 0 {
		t.Errorf("empty MaxRound = %d, %v", max, err)
	}
}

func TestPayoutRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewPayoutRepository(openTestDB(t))
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	attempts := []*models.PayoutAttempt{
		{RoundNumber: 3, Recipient: "a", Amount: 10, Reason: models.PayoutReasonRoundWin, IdempotencyKey: "k1",
			Status: models.PayoutStatusFailed, ErrorMessage: "timeout", AttemptedAt: base},
		{RoundNumber: 3, Recipient: "a", Amount: 10, Reason: models.PayoutReasonRoundWin, IdempotencyKey: "k1",
			Status: models.PayoutStatusSucceeded, Reference: "tx", AttemptedAt: base.Add(time.Second)},
		{RoundNumber: 4, Recipient: "a", Amount: 5, Reason: models.PayoutReasonRoundWin, IdempotencyKey: "k2",
			Status: models.PayoutStatusFailed, ErrorMessage: "declined", AttemptedAt: base.Add(time.Minute)},
	}
	for _, a := range attempts {
		if err := repo.Create(ctx, a); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := repo.FindByRound(ctx, 3)
	if err != nil || len(got) != 2 {
		t.Fatalf("FindByRound = %v, %v", got, err)
	}
	if got[0].Status != models.PayoutStatusFailed || got[0].ErrorMessage != "timeout" {
		t.Errorf("first attempt = %+v", got[0])
	}
	if got[1].IdempotencyKey != "k1" || got[1].Reference != "tx" || got[1].Amount != 10 {
		t.Errorf("second attempt = %+v", got[1])
	}

	if max, err := repo.MaxSettledRound(ctx); err != nil || max != 3 {
		t.Errorf("MaxSettledRound = %d, %v", max, err)
	}
}
