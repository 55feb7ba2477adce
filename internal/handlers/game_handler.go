package handlers

import (
	"net/http"
	"strconv"

	"github.com/ArowuTest/fastest-finger-pot/internal/middleware"
	"github.com/ArowuTest/fastest-finger-pot/internal/models"
	"github.com/ArowuTest/fastest-finger-pot/internal/services"
	"github.com/gin-gonic/gin"
)

// GameHandler handles live round HTTP requests
type GameHandler struct {
	game services.GameService
}

// NewGameHandler creates a new GameHandler
func NewGameHandler(game services.GameService) *GameHandler {
	return &GameHandler{game: game}
}

// GetRound handles GET /round
func (h *GameHandler) GetRound(c *gin.Context) {
	c.JSON(http.StatusOK, roundView(h.game.RoundInfo(), h.game.Token()))
}

// GetPot handles GET /round/pot
func (h *GameHandler) GetPot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"pot": amountView(h.game.PotSize(), h.game.Token())})
}

// GetRoundNumber handles GET /round/number
func (h *GameHandler) GetRoundNumber(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"roundNumber": h.game.CurrentRoundNumber()})
}

// GetRoundActive handles GET /round/active
func (h *GameHandler) GetRoundActive(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"active":  h.game.RoundActive(),
		"expired": h.game.IsExpired(),
	})
}

// GetWinner handles GET /round/winner
func (h *GameHandler) GetWinner(c *gin.Context) {
	token := h.game.Token()
	var resp WinnerView
	if winner, ok := h.game.CurrentWinner(); ok {
		resp.CurrentWinner = winner
	}
	if rec, ok := h.game.LastWinnerRecord(); ok {
		payout := amountView(rec.Payout, token)
		resp.LastWinner = &rec
		resp.LastPayout = &payout
	}
	if top := leaderboardView(h.game.Leaderboard(1), token); len(top) > 0 {
		resp.Leader = &top[0]
	}
	c.JSON(http.StatusOK, resp)
}

// GetTimeRemaining handles GET /round/time-remaining
func (h *GameHandler) GetTimeRemaining(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"seconds": h.game.TimeRemaining().Seconds()})
}

// GetPlayers handles GET /round/players
func (h *GameHandler) GetPlayers(c *gin.Context) {
	token := h.game.Token()
	players := h.game.CurrentRoundPlayers()
	out := make([]EntryView, 0, len(players))
	for _, p := range players {
		out = append(out, entryView(p, token))
	}
	c.JSON(http.StatusOK, gin.H{"round": h.game.CurrentRoundNumber(), "players": out})
}

// GetLeaderboard handles GET /round/leaderboard?limit=
func (h *GameHandler) GetLeaderboard(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil {
		badRequest(c, "limit must be an integer")
		return
	}
	board := h.game.Leaderboard(limit)
	c.JSON(http.StatusOK, gin.H{
		"round":       h.game.CurrentRoundNumber(),
		"leaderboard": leaderboardView(board, h.game.Token()),
	})
}

// GetInactivity handles GET /round/inactivity
func (h *GameHandler) GetInactivity(c *gin.Context) {
	info := h.game.RoundInfo()
	c.JSON(http.StatusOK, InactivityView{
		CanClaim:     h.game.CanClaimInactivityPayout(),
		SecondsUntil: h.game.TimeUntilInactivityPayout().Seconds(),
		Pot:          amountView(info.Pot, h.game.Token()),
		Beneficiary:  info.LastWinner,
	})
}

// GetPlayer handles GET /players/:id
func (h *GameHandler) GetPlayer(c *gin.Context) {
	id, err := h.game.NormalizeParticipant(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.playerView(id))
}

// GetPlayerScore handles GET /players/:id/score
func (h *GameHandler) GetPlayerScore(c *gin.Context) {
	id, err := h.game.NormalizeParticipant(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "round": h.game.CurrentRoundNumber(), "score": h.game.PlayerScore(id)})
}

// Join handles POST /round/join
func (h *GameHandler) Join(c *gin.Context) {
	id, ok := h.participant(c)
	if !ok {
		return
	}
	var req models.JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	entry, err := h.game.Join(c.Request.Context(), id, req.Stake)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"round": h.game.CurrentRoundNumber(),
		"entry": entryView(entry, h.game.Token()),
	})
}

// Click handles POST /round/click
func (h *GameHandler) Click(c *gin.Context) {
	id, ok := h.participant(c)
	if !ok {
		return
	}
	clicks, err := h.game.Click(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clicks": clicks, "score": h.game.PlayerScore(id)})
}

// Me handles GET /me
func (h *GameHandler) Me(c *gin.Context) {
	id, ok := h.participant(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.playerView(id))
}

// EndRound handles POST /round/end
func (h *GameHandler) EndRound(c *gin.Context) {
	result, err := h.game.EndRound(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ClaimInactivity handles POST /round/claim-inactivity
func (h *GameHandler) ClaimInactivity(c *gin.Context) {
	result, err := h.game.ClaimInactivityPayout(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// participant resolves the authenticated caller, writing the error response itself
func (h *GameHandler) participant(c *gin.Context) (models.ParticipantID, bool) {
	raw, ok := middleware.Participant(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated", "code": "UNAUTHORIZED"})
		return "", false
	}
	id, err := h.game.NormalizeParticipant(string(raw))
	if err != nil {
		respondError(c, err)
		return "", false
	}
	return id, true
}

func (h *GameHandler) playerView(id models.ParticipantID) PlayerView {
	data := h.game.PlayerData(id)
	return PlayerView{
		ID:        id,
		Round:     h.game.CurrentRoundNumber(),
		HasJoined: data.HasJoined,
		Stake:     amountView(data.Stake, h.game.Token()),
		Clicks:    data.Clicks,
		Score:     h.game.PlayerScore(id),
	}
}
