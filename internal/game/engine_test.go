package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ArowuTest/fastest-finger-pot/internal/models"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// eth is a tenth-of-ether helper: eth(1) == 0.1 ether in wei.
func eth(tenths uint64) models.Amount {
	return models.Amount(tenths * 100_000_000_000_000_000)
}

type recordingRail struct {
	mu        sync.Mutex
	calls     []models.TransferRequest
	failNext  int
	block     chan struct{}
	entered   chan struct{}
	panicNext bool
}

func (r *recordingRail) Transfer(ctx context.Context, req models.TransferRequest) (models.TransferReceipt, error) {
	if r.entered != nil {
		r.entered <- struct{}{}
	}
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.panicNext {
		r.panicNext = false
		panic("rail exploded")
	}
	if r.failNext > 0 {
		r.failNext--
		return models.TransferReceipt{}, errors.New("insufficient liquidity")
	}
	r.calls = append(r.calls, req)
	return models.TransferReceipt{Reference: "tx-" + req.IdempotencyKey, SettledAt: epoch}, nil
}

func (r *recordingRail) transfers() []models.TransferRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.TransferRequest(nil), r.calls...)
}

type eventLog struct {
	mu     sync.Mutex
	events []models.GameEvent
}

func (l *eventLog) Publish(ev models.GameEvent) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

func (l *eventLog) types() []models.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.EventType, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.Type
	}
	return out
}

func newTestEngine(t *testing.T, rail PaymentRail) (*Engine, *ManualClock, *eventLog) {
	t.Helper()
	clock := NewManualClock(epoch)
	events := &eventLog{}
	e, err := New(DefaultConfig(), rail, WithClock(clock), WithEventSink(events))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e, clock, events
}

func mustJoin(t *testing.T, e *Engine, id models.ParticipantID, stake models.Amount) {
	t.Helper()
	if _, err := e.Join(id, stake); err != nil {
		t.Fatalf("Join(%s) error = %v", id, err)
	}
}

func mustClick(t *testing.T, e *Engine, id models.ParticipantID, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := e.RegisterClick(id); err != nil {
			t.Fatalf("RegisterClick(%s) error = %v", id, err)
		}
	}
}

func assertPotInvariant(t *testing.T, e *Engine) {
	t.Helper()
	e.mu.RLock()
	defer e.mu.RUnlock()
	total, ok := e.state.players.stakeTotal()
	if !ok {
		t.Fatal("stake total overflowed")
	}
	if total != e.state.pot {
		t.Fatalf("pot = %s, stake total = %s", e.state.pot, total)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	rail := &recordingRail{}
	cases := []Config{
		{RoundDuration: 0, InactivityThreshold: time.Minute},
		{RoundDuration: time.Minute, InactivityThreshold: time.Minute},
	}
	for _, cfg := range cases {
		if _, err := New(cfg, rail); err == nil {
			t.Errorf("New(%+v) succeeded", cfg)
		}
	}
	if _, err := New(DefaultConfig(), nil); err == nil {
		t.Error("New() without rail succeeded")
	}
}

func TestInitialState(t *testing.T) {
	e, _, _ := newTestEngine(t, &recordingRail{})
	if got := e.CurrentRoundNumber(); got != 1 {
		t.Errorf("CurrentRoundNumber() = %d, want 1", got)
	}
	if e.RoundActive() {
		t.Error("fresh round is active before any join")
	}
	if got := e.TimeRemaining(); got != 0 {
		t.Errorf("TimeRemaining() = %s, want 0 while waiting", got)
	}
	if _, ok := e.CurrentWinner(); ok {
		t.Error("CurrentWinner() reported a winner on a fresh engine")
	}
	if got := e.RoundInfo().Status; got != models.RoundStatusWaiting {
		t.Errorf("status = %s, want WAITING", got)
	}
}

func TestScenarioSinglePlayerWins(t *testing.T) {
	rail := &recordingRail{}
	e, clock, events := newTestEngine(t, rail)

	mustJoin(t, e, "p1", eth(1))
	mustClick(t, e, "p1", 5)

	if got := e.PlayerScore("p1").Format(18); got != "0.5" {
		t.Errorf("score = %s, want 0.5", got)
	}

	clock.Advance(15 * time.Second)
	res, err := e.EndRound(context.Background())
	if err != nil {
		t.Fatalf("EndRound() error = %v", err)
	}
	if res.Winner == nil || res.Winner.WinnerID != "p1" {
		t.Fatalf("winner = %+v, want p1", res.Winner)
	}
	if res.Payout != eth(1) {
		t.Errorf("payout = %s, want %s", res.Payout, eth(1))
	}
	if res.Outcome != models.RoundOutcomeWon {
		t.Errorf("outcome = %s", res.Outcome)
	}

	calls := rail.transfers()
	if len(calls) != 1 || calls[0].To != "p1" || calls[0].Amount != eth(1) {
		t.Fatalf("rail calls = %+v", calls)
	}
	if res.TransferRef != "tx-"+calls[0].IdempotencyKey {
		t.Errorf("transfer ref = %q", res.TransferRef)
	}
	if e.PotSize() != 0 {
		t.Errorf("pot = %s after payout", e.PotSize())
	}
	if got := e.CurrentRoundNumber(); got != 2 {
		t.Errorf("round = %d, want 2", got)
	}
	if w, _ := e.CurrentWinner(); w != "p1" {
		t.Errorf("CurrentWinner() = %q", w)
	}
	if e.PlayerData("p1").HasJoined {
		t.Error("p1 carried over into the next round")
	}

	want := []models.EventType{
		models.EventPlayerJoined, models.EventRoundStarted,
		models.EventPlayerClicked, models.EventPlayerClicked, models.EventPlayerClicked,
		models.EventPlayerClicked, models.EventPlayerClicked,
		models.EventRoundEnded,
	}
	got := events.types()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d = %s, want %s", i, got[i], want[i])
		}
	}
	for i, ev := range events.events {
		if ev.Seq != uint64(i+1) {
			t.Errorf("event %d seq = %d", i, ev.Seq)
		}
	}
}

func TestScenarioHigherScoreTakesWholePot(t *testing.T) {
	rail := &recordingRail{}
	e, clock, _ := newTestEngine(t, rail)

	mustJoin(t, e, "p1", eth(1))
	mustJoin(t, e, "p2", eth(3))
	mustClick(t, e, "p1", 10)
	mustClick(t, e, "p2", 5)

	if got := e.PlayerScore("p1").Format(18); got != "1" {
		t.Errorf("p1 score = %s, want 1", got)
	}
	if got := e.PlayerScore("p2").Format(18); got != "1.5" {
		t.Errorf("p2 score = %s, want 1.5", got)
	}

	board := e.Leaderboard(0)
	if len(board) != 2 || board[0].ID != "p2" || board[0].Rank != 1 || board[1].ID != "p1" {
		t.Errorf("leaderboard = %+v", board)
	}

	clock.Advance(16 * time.Second)
	res, err := e.EndRound(context.Background())
	if err != nil {
		t.Fatalf("EndRound() error = %v", err)
	}
	if res.Winner.WinnerID != "p2" {
		t.Errorf("winner = %s, want p2", res.Winner.WinnerID)
	}
	if res.Payout != eth(4) {
		t.Errorf("payout = %s, want %s", res.Payout, eth(4))
	}
	if len(res.Participants) != 2 {
		t.Errorf("participants = %d", len(res.Participants))
	}
}

func TestScenarioDoubleJoinRejected(t *testing.T) {
	e, _, _ := newTestEngine(t, &recordingRail{})
	mustJoin(t, e, "p1", eth(1))

	_, err := e.Join("p1", eth(2))
	if !errors.Is(err, ErrAlreadyJoined) {
		t.Fatalf("second Join() error = %v, want ErrAlreadyJoined", err)
	}
	if e.PotSize() != eth(1) {
		t.Errorf("pot = %s, want %s", e.PotSize(), eth(1))
	}
	assertPotInvariant(t, e)
}

func TestScenarioClickWithoutJoin(t *testing.T) {
	e, _, _ := newTestEngine(t, &recordingRail{})
	mustJoin(t, e, "p1", eth(1))

	if _, err := e.RegisterClick("p2"); !errors.Is(err, ErrNotJoined) {
		t.Fatalf("RegisterClick() error = %v, want ErrNotJoined", err)
	}
}

func TestScenarioEndRoundTooEarly(t *testing.T) {
	rail := &recordingRail{}
	e, clock, _ := newTestEngine(t, rail)
	mustJoin(t, e, "p1", eth(1))
	clock.Advance(time.Second)

	before := e.RoundInfo()
	if _, err := e.EndRound(context.Background()); !errors.Is(err, ErrRoundStillActive) {
		t.Fatalf("EndRound() error = %v, want ErrRoundStillActive", err)
	}
	after := e.RoundInfo()
	if before.RoundNumber != after.RoundNumber || before.Pot != after.Pot || after.Status != models.RoundStatusActive {
		t.Errorf("state changed: before %+v after %+v", before, after)
	}
	if len(rail.transfers()) != 0 {
		t.Error("rail was called")
	}
	if got := e.TimeRemaining(); got != 14*time.Second {
		t.Errorf("TimeRemaining() = %s, want 14s", got)
	}
}

func TestScenarioInactivityClaimWithEmptyPot(t *testing.T) {
	rail := &recordingRail{}
	e, clock, events := newTestEngine(t, rail)

	if e.CanClaimInactivityPayout() {
		t.Fatal("claim available immediately")
	}
	if got := e.TimeUntilInactivityPayout(); got != 5*time.Minute {
		t.Errorf("TimeUntilInactivityPayout() = %s", got)
	}
	if _, err := e.ClaimInactivityPayout(context.Background()); !errors.Is(err, ErrInactivityWindowNotReached) {
		t.Fatalf("early claim error = %v", err)
	}

	clock.Advance(5 * time.Minute)
	if e.CanClaimInactivityPayout() {
		t.Fatal("claim available exactly at the threshold")
	}
	clock.Advance(time.Second)
	if !e.CanClaimInactivityPayout() {
		t.Fatal("claim not available after threshold")
	}
	if got := e.TimeUntilInactivityPayout(); got != 0 {
		t.Errorf("TimeUntilInactivityPayout() = %s, want 0", got)
	}

	res, err := e.ClaimInactivityPayout(context.Background())
	if err != nil {
		t.Fatalf("ClaimInactivityPayout() error = %v", err)
	}
	if res.Outcome != models.RoundOutcomeInactive || res.Payout != 0 || res.Recipient != "" {
		t.Errorf("result = %+v", res)
	}
	if got := e.CurrentRoundNumber(); got != 2 {
		t.Errorf("round = %d, want 2", got)
	}
	if len(rail.transfers()) != 0 {
		t.Error("rail called for an empty pot")
	}
	if got := events.types(); len(got) != 1 || got[0] != models.EventInactivityPayoutClaimed {
		t.Errorf("events = %v", got)
	}
}

func TestInactivityUnavailableWithPlayers(t *testing.T) {
	e, clock, _ := newTestEngine(t, &recordingRail{})
	mustJoin(t, e, "p1", eth(1))
	clock.Advance(10 * time.Minute)

	if e.CanClaimInactivityPayout() {
		t.Error("claim available with a participant")
	}
	if got := e.TimeUntilInactivityPayout(); got != 0 {
		t.Errorf("TimeUntilInactivityPayout() = %s, want 0", got)
	}
	if _, err := e.ClaimInactivityPayout(context.Background()); !errors.Is(err, ErrInactivityWindowNotReached) {
		t.Errorf("claim error = %v", err)
	}
}

func TestEndRoundTwiceDoesNotDoublePay(t *testing.T) {
	rail := &recordingRail{}
	e, clock, _ := newTestEngine(t, rail)
	mustJoin(t, e, "p1", eth(1))
	mustClick(t, e, "p1", 1)
	clock.Advance(15 * time.Second)

	if _, err := e.EndRound(context.Background()); err != nil {
		t.Fatalf("first EndRound() error = %v", err)
	}
	_, err := e.EndRound(context.Background())
	if !errors.Is(err, ErrRoundNotStarted) {
		t.Fatalf("second EndRound() error = %v, want ErrRoundNotStarted", err)
	}
	if k, _ := KindOf(err); k != KindTemporal {
		t.Errorf("kind = %s, want temporal", k)
	}
	if n := len(rail.transfers()); n != 1 {
		t.Errorf("rail calls = %d, want 1", n)
	}
}

func TestTieGoesToEarliestJoiner(t *testing.T) {
	e, clock, _ := newTestEngine(t, &recordingRail{})
	mustJoin(t, e, "early", eth(2))
	mustJoin(t, e, "late", eth(1))
	mustClick(t, e, "late", 4)
	mustClick(t, e, "early", 2)
	clock.Advance(15 * time.Second)

	res, err := e.EndRound(context.Background())
	if err != nil {
		t.Fatalf("EndRound() error = %v", err)
	}
	if res.Winner.WinnerID != "early" {
		t.Errorf("winner = %s, want early", res.Winner.WinnerID)
	}
}

func TestZeroClicksStillResolves(t *testing.T) {
	rail := &recordingRail{}
	e, clock, _ := newTestEngine(t, rail)
	mustJoin(t, e, "p1", eth(1))
	mustJoin(t, e, "p2", eth(5))
	clock.Advance(20 * time.Second)

	res, err := e.EndRound(context.Background())
	if err != nil {
		t.Fatalf("EndRound() error = %v", err)
	}
	if res.Winner.WinnerID != "p1" || !res.Winner.WinningScore.IsZero() {
		t.Errorf("winner = %+v", res.Winner)
	}
	if res.Payout != eth(6) {
		t.Errorf("payout = %s", res.Payout)
	}
}

func TestExpiredRoundRejectsJoinAndClick(t *testing.T) {
	e, clock, _ := newTestEngine(t, &recordingRail{})
	mustJoin(t, e, "p1", eth(1))
	clock.Advance(15 * time.Second)

	if !e.IsExpired() {
		t.Fatal("round not expired")
	}
	if !e.RoundActive() {
		t.Error("expired round no longer reported active before EndRound")
	}
	if _, err := e.Join("p2", eth(1)); !errors.Is(err, ErrRoundNotJoinable) {
		t.Errorf("Join() error = %v, want ErrRoundNotJoinable", err)
	}
	if _, err := e.RegisterClick("p1"); !errors.Is(err, ErrRoundEnded) {
		t.Errorf("RegisterClick() error = %v, want ErrRoundEnded", err)
	}
	assertPotInvariant(t, e)
}

func TestJoinValidation(t *testing.T) {
	e, _, _ := newTestEngine(t, &recordingRail{})
	if _, err := e.Join("p1", 0); !errors.Is(err, ErrZeroStake) {
		t.Errorf("zero stake error = %v", err)
	}
	if _, err := e.Join("", eth(1)); !errors.Is(err, ErrInvalidParticipant) {
		t.Errorf("empty id error = %v", err)
	}
	if e.RoundActive() {
		t.Error("rejected join started the round")
	}
}

func TestPotOverflowAbortsJoin(t *testing.T) {
	e, _, _ := newTestEngine(t, &recordingRail{})
	mustJoin(t, e, "whale", models.Amount(^uint64(0)))

	_, err := e.Join("p2", 1)
	if !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("Join() error = %v, want ErrArithmeticOverflow", err)
	}
	if k, _ := KindOf(err); k != KindInvariant {
		t.Errorf("kind = %s", k)
	}
	if e.PlayerData("p2").HasJoined {
		t.Error("p2 inserted despite overflow")
	}
	assertPotInvariant(t, e)
}

func TestPayoutFailureRollsBackAndRetries(t *testing.T) {
	rail := &recordingRail{failNext: 1}
	e, clock, events := newTestEngine(t, rail)
	mustJoin(t, e, "p1", eth(2))
	mustClick(t, e, "p1", 3)
	clock.Advance(15 * time.Second)

	_, err := e.EndRound(context.Background())
	if !errors.Is(err, ErrPayoutFailed) {
		t.Fatalf("EndRound() error = %v, want ErrPayoutFailed", err)
	}
	info := e.RoundInfo()
	if info.Status != models.RoundStatusActive || info.Pot != eth(2) || info.RoundNumber != 1 {
		t.Fatalf("state after failure = %+v", info)
	}
	if _, ok := e.CurrentWinner(); ok {
		t.Error("winner recorded despite failed payout")
	}
	if got := e.PlayerData("p1"); got.Clicks != 3 {
		t.Errorf("clicks = %d after rollback", got.Clicks)
	}
	assertPotInvariant(t, e)

	last := events.types()[len(events.types())-1]
	if last != models.EventPayoutFailed {
		t.Errorf("last event = %s, want PayoutFailed", last)
	}

	res, err := e.EndRound(context.Background())
	if err != nil {
		t.Fatalf("retry EndRound() error = %v", err)
	}
	if res.Winner.WinnerID != "p1" || res.Payout != eth(2) {
		t.Errorf("retry result = %+v", res)
	}
	if e.CurrentRoundNumber() != 2 {
		t.Errorf("round = %d", e.CurrentRoundNumber())
	}
}

func TestPanickingRailIsPayoutFailure(t *testing.T) {
	rail := &recordingRail{panicNext: true}
	e, clock, _ := newTestEngine(t, rail)
	mustJoin(t, e, "p1", eth(1))
	clock.Advance(15 * time.Second)

	if _, err := e.EndRound(context.Background()); !errors.Is(err, ErrPayoutFailed) {
		t.Fatalf("EndRound() error = %v", err)
	}
	if e.RoundInfo().Status != models.RoundStatusActive {
		t.Error("round not rolled back after panic")
	}
	if _, err := e.EndRound(context.Background()); err != nil {
		t.Fatalf("retry error = %v", err)
	}
}

func TestMutationsRejectedWhilePayoutPending(t *testing.T) {
	rail := &recordingRail{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	e, clock, _ := newTestEngine(t, rail)
	mustJoin(t, e, "p1", eth(1))
	mustClick(t, e, "p1", 1)
	clock.Advance(15 * time.Second)

	done := make(chan error, 1)
	go func() {
		_, err := e.EndRound(context.Background())
		done <- err
	}()
	<-rail.entered

	info := e.RoundInfo()
	if info.Status != models.RoundStatusPayoutPending {
		t.Errorf("status = %s, want PAYOUT_PENDING", info.Status)
	}
	if info.Pot != eth(1) || info.RoundNumber != 1 {
		t.Errorf("pending view = %+v", info)
	}
	assertPotInvariant(t, e)

	if _, err := e.EndRound(context.Background()); !errors.Is(err, ErrPayoutInProgress) {
		t.Errorf("re-entrant EndRound() error = %v", err)
	}
	if _, err := e.Join("p2", eth(1)); !errors.Is(err, ErrPayoutInProgress) {
		t.Errorf("Join() error = %v", err)
	}
	if _, err := e.RegisterClick("p1"); !errors.Is(err, ErrPayoutInProgress) {
		t.Errorf("RegisterClick() error = %v", err)
	}
	if _, err := e.ClaimInactivityPayout(context.Background()); !errors.Is(err, ErrPayoutInProgress) {
		t.Errorf("ClaimInactivityPayout() error = %v", err)
	}
	if k, _ := KindOf(ErrPayoutInProgress); k != KindConcurrency {
		t.Errorf("kind = %s", k)
	}

	close(rail.block)
	if err := <-done; err != nil {
		t.Fatalf("EndRound() error = %v", err)
	}
	if n := len(rail.transfers()); n != 1 {
		t.Errorf("rail calls = %d", n)
	}
	if e.PotSize() != 0 || e.CurrentRoundNumber() != 2 {
		t.Errorf("after settle: pot %s round %d", e.PotSize(), e.CurrentRoundNumber())
	}
}

func TestInactivityPotGoesToLastWinner(t *testing.T) {
	rail := &recordingRail{}
	e, clock, _ := newTestEngine(t, rail)

	mustJoin(t, e, "champ", eth(1))
	mustClick(t, e, "champ", 1)
	clock.Advance(15 * time.Second)
	if _, err := e.EndRound(context.Background()); err != nil {
		t.Fatalf("EndRound() error = %v", err)
	}

	// Simulate a pot left on an empty round, as restored from storage.
	e.mu.Lock()
	e.state.pot = eth(3)
	e.mu.Unlock()

	clock.Advance(6 * time.Minute)
	res, err := e.ClaimInactivityPayout(context.Background())
	if err != nil {
		t.Fatalf("ClaimInactivityPayout() error = %v", err)
	}
	if res.Recipient != "champ" || res.Payout != eth(3) {
		t.Errorf("result = %+v", res)
	}
	calls := rail.transfers()
	if len(calls) != 2 || calls[1].Reason != models.PayoutReasonInactivity || calls[1].To != "champ" {
		t.Errorf("rail calls = %+v", calls)
	}
	if w, _ := e.CurrentWinner(); w != "champ" {
		t.Errorf("inactivity claim changed last winner to %q", w)
	}
}

func TestRejoinAfterRoundAdvances(t *testing.T) {
	e, clock, _ := newTestEngine(t, &recordingRail{})
	mustJoin(t, e, "p1", eth(1))
	mustClick(t, e, "p1", 7)
	clock.Advance(15 * time.Second)
	if _, err := e.EndRound(context.Background()); err != nil {
		t.Fatal(err)
	}

	mustJoin(t, e, "p1", eth(2))
	got := e.PlayerData("p1")
	if got.Stake != eth(2) || got.Clicks != 0 {
		t.Errorf("player data = %+v, want fresh entry", got)
	}
	if players := e.CurrentRoundPlayers(); len(players) != 1 {
		t.Errorf("players = %d", len(players))
	}
	assertPotInvariant(t, e)
}

func TestResume(t *testing.T) {
	e, _, _ := newTestEngine(t, &recordingRail{})
	rec := &models.WinnerRecord{RoundNumber: 41, WinnerID: "old", Payout: eth(1)}
	if err := e.Resume(ResumeState{NextRound: 42, LastWinner: rec}); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if e.CurrentRoundNumber() != 42 {
		t.Errorf("round = %d", e.CurrentRoundNumber())
	}
	if w, _ := e.CurrentWinner(); w != "old" {
		t.Errorf("winner = %q", w)
	}

	mustJoin(t, e, "p1", eth(1))
	if err := e.Resume(ResumeState{NextRound: 7}); !errors.Is(err, ErrAlreadyResumed) {
		t.Errorf("Resume() after mutation error = %v", err)
	}
}

func TestResumeLiveRound(t *testing.T) {
	live := []models.ParticipantEntry{
		{ID: "p1", Stake: eth(1), Clicks: 4, JoinedAt: epoch},
		{ID: "p2", Stake: eth(2), JoinedAt: epoch.Add(time.Second)},
	}

	t.Run("restores players and clock", func(t *testing.T) {
		e, clock, _ := newTestEngine(t, &recordingRail{})
		if err := e.Resume(ResumeState{NextRound: 5, Live: live, StartedAt: epoch}); err != nil {
			t.Fatalf("Resume() error = %v", err)
		}
		info := e.RoundInfo()
		if info.RoundNumber != 5 || info.Status != models.RoundStatusActive || info.Pot != eth(3) || info.PlayerCount != 2 {
			t.Fatalf("info = %+v", info)
		}
		assertPotInvariant(t, e)
		if got := e.PlayerData("p1"); got.Clicks != 4 {
			t.Errorf("p1 clicks = %d", got.Clicks)
		}

		clock.Advance(15 * time.Second)
		res, err := e.EndRound(context.Background())
		if err != nil {
			t.Fatalf("EndRound() error = %v", err)
		}
		if res.Winner.WinnerID != "p1" || res.Payout != eth(3) {
			t.Errorf("result = %+v", res)
		}
	})

	t.Run("rejects duplicate entries", func(t *testing.T) {
		e, _, _ := newTestEngine(t, &recordingRail{})
		dup := append(append([]models.ParticipantEntry(nil), live...), live[0])
		if err := e.Resume(ResumeState{NextRound: 5, Live: dup}); !errors.Is(err, ErrAlreadyJoined) {
			t.Fatalf("Resume() error = %v, want ErrAlreadyJoined", err)
		}
		if e.PotSize() != 0 || e.RoundActive() {
			t.Errorf("partial restore applied: %+v", e.RoundInfo())
		}
	})
}

func TestConcurrentJoinsKeepInvariant(t *testing.T) {
	e, _, _ := newTestEngine(t, &recordingRail{})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := models.ParticipantID(fmt.Sprintf("p%02d", i))
			if _, err := e.Join(id, eth(1)); err != nil {
				t.Errorf("Join(%s) error = %v", id, err)
				return
			}
			_, _ = e.RegisterClick(id)
			_ = e.Leaderboard(3)
		}(i)
	}
	wg.Wait()

	if e.PotSize() != eth(50) {
		t.Errorf("pot = %s, want %s", e.PotSize(), eth(50))
	}
	assertPotInvariant(t, e)
}
