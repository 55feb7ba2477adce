package handlers

import (
	"time"

	"github.com/ArowuTest/fastest-finger-pot/internal/models"
	"github.com/ArowuTest/fastest-finger-pot/internal/services"
)

// AmountView pairs the base-unit amount with its whole-token rendering
type AmountView struct {
	Raw     models.Amount `json:"raw"`
	Display string        `json:"display"`
	Symbol  string        `json:"symbol"`
}

func amountView(a models.Amount, token services.TokenInfo) AmountView {
	return AmountView{Raw: a, Display: a.Format(token.Decimals), Symbol: token.Symbol}
}

// RoundView is the response of GET /round
type RoundView struct {
	RoundNumber          uint64               `json:"roundNumber"`
	Status               models.RoundStatus   `json:"status"`
	Active               bool                 `json:"active"`
	CreatedAt            time.Time            `json:"createdAt"`
	StartedAt            *time.Time           `json:"startedAt,omitempty"`
	DurationSeconds      float64              `json:"durationSeconds"`
	TimeRemainingSeconds float64              `json:"timeRemainingSeconds"`
	Pot                  AmountView           `json:"pot"`
	PlayerCount          int                  `json:"playerCount"`
	LastWinner           models.ParticipantID `json:"lastWinner,omitempty"`
}

func roundView(info models.RoundInfo, token services.TokenInfo) RoundView {
	return RoundView{
		RoundNumber:          info.RoundNumber,
		Status:               info.Status,
		Active:               info.Active,
		CreatedAt:            info.CreatedAt,
		StartedAt:            info.StartedAt,
		DurationSeconds:      info.Duration.Seconds(),
		TimeRemainingSeconds: info.TimeRemaining.Seconds(),
		Pot:                  amountView(info.Pot, token),
		PlayerCount:          info.PlayerCount,
		LastWinner:           info.LastWinner,
	}
}

// EntryView is a participant row with a formatted stake
type EntryView struct {
	Rank     int                  `json:"rank,omitempty"`
	ID       models.ParticipantID `json:"id"`
	Stake    AmountView           `json:"stake"`
	Clicks   uint64               `json:"clicks"`
	Score    *models.Score        `json:"score,omitempty"`
	JoinedAt time.Time            `json:"joinedAt"`
}

func entryView(e models.ParticipantEntry, token services.TokenInfo) EntryView {
	return EntryView{ID: e.ID, Stake: amountView(e.Stake, token), Clicks: e.Clicks, JoinedAt: e.JoinedAt}
}

func leaderboardView(board []models.LeaderboardEntry, token services.TokenInfo) []EntryView {
	out := make([]EntryView, 0, len(board))
	for _, le := range board {
		v := entryView(le.ParticipantEntry, token)
		score := le.Score
		v.Rank = le.Rank
		v.Score = &score
		out = append(out, v)
	}
	return out
}

// PlayerView is the response of GET /players/:id and GET /me
type PlayerView struct {
	ID        models.ParticipantID `json:"id"`
	Round     uint64               `json:"round"`
	HasJoined bool                 `json:"hasJoined"`
	Stake     AmountView           `json:"stake"`
	Clicks    uint64               `json:"clicks"`
	Score     models.Score         `json:"score"`
}

// WinnerView is the response of GET /round/winner
type WinnerView struct {
	CurrentWinner models.ParticipantID `json:"currentWinner,omitempty"` // winner of the last won round
	LastWinner    *models.WinnerRecord `json:"lastWinner,omitempty"`
	LastPayout    *AmountView          `json:"lastPayout,omitempty"`
	Leader        *EntryView           `json:"leader,omitempty"` // top of the live round
}

// InactivityView is the response of GET /round/inactivity
type InactivityView struct {
	CanClaim     bool                 `json:"canClaim"`
	SecondsUntil float64              `json:"secondsUntil"`
	Pot          AmountView           `json:"pot"`
	Beneficiary  models.ParticipantID `json:"beneficiary,omitempty"` // empty means the pot is discarded
}
