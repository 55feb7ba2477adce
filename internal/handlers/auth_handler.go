package handlers

import (
	"net/http"

	"github.com/ArowuTest/fastest-finger-pot/internal/models"
	"github.com/ArowuTest/fastest-finger-pot/internal/services"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication related HTTP requests
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// IssueToken handles POST /auth/token
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req models.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	resp, err := h.authService.IssueToken(c.Request.Context(), req.ParticipantID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
