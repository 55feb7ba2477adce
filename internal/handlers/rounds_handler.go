package handlers

import (
	"net/http"
	"strconv"

	"github.com/ArowuTest/fastest-finger-pot/internal/services"
	"github.com/gin-gonic/gin"
)

// RoundsHandler handles round history requests
type RoundsHandler struct {
	history services.HistoryService
	game    services.GameService
}

// NewRoundsHandler creates a new RoundsHandler
func NewRoundsHandler(history services.HistoryService, game services.GameService) *RoundsHandler {
	return &RoundsHandler{history: history, game: game}
}

func pagination(c *gin.Context) (int, int, bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		badRequest(c, "Invalid page number")
		return 0, 0, false
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		badRequest(c, "Invalid limit")
		return 0, 0, false
	}
	return page, limit, true
}

func roundNumber(c *gin.Context) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param("number"), 10, 64)
	if err != nil || n == 0 {
		badRequest(c, "Invalid round number")
		return 0, false
	}
	return n, true
}

// GetRounds handles GET /rounds?page=&limit=
func (h *RoundsHandler) GetRounds(c *gin.Context) {
	page, limit, ok := pagination(c)
	if !ok {
		return
	}
	rounds, total, err := h.history.GetRounds(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"rounds": rounds,
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}

// GetRound handles GET /rounds/:number
func (h *RoundsHandler) GetRound(c *gin.Context) {
	n, ok := roundNumber(c)
	if !ok {
		return
	}
	round, err := h.history.GetRound(c.Request.Context(), n)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, round)
}

// GetRoundEvents handles GET /rounds/:number/events
func (h *RoundsHandler) GetRoundEvents(c *gin.Context) {
	n, ok := roundNumber(c)
	if !ok {
		return
	}
	events, err := h.history.GetRoundEvents(c.Request.Context(), n)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"round": n, "events": events})
}

// GetRoundPayouts handles GET /rounds/:number/payouts
func (h *RoundsHandler) GetRoundPayouts(c *gin.Context) {
	n, ok := roundNumber(c)
	if !ok {
		return
	}
	attempts, err := h.history.GetRoundPayouts(c.Request.Context(), n)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"round": n, "payouts": attempts})
}

// GetPlayerWins handles GET /players/:id/wins
func (h *RoundsHandler) GetPlayerWins(c *gin.Context) {
	id, err := h.game.NormalizeParticipant(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	page, limit, ok := pagination(c)
	if !ok {
		return
	}
	wins, err := h.history.GetWins(c.Request.Context(), id, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "wins": wins})
}

// GetRecentEvents handles GET /events?limit=
func (h *RoundsHandler) GetRecentEvents(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil {
		badRequest(c, "Invalid limit")
		return
	}
	events, err := h.history.RecentEvents(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
