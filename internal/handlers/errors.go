package handlers

import (
	"errors"
	"net/http"

	"github.com/ArowuTest/fastest-finger-pot/internal/game"
	"github.com/ArowuTest/fastest-finger-pot/internal/repositories"
	"github.com/ArowuTest/fastest-finger-pot/internal/services"
	"github.com/gin-gonic/gin"
)

// statusFor maps an error to its HTTP status and response code
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, game.ErrAlreadyJoined):
		return http.StatusConflict, game.ErrAlreadyJoined.Code
	case errors.Is(err, repositories.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, services.ErrDevTokensDisabled):
		return http.StatusForbidden, "DEV_TOKENS_DISABLED"
	}

	kind, ok := game.KindOf(err)
	if !ok {
		return http.StatusInternalServerError, "INTERNAL"
	}
	switch kind {
	case game.KindValidation:
		return http.StatusBadRequest, game.CodeOf(err)
	case game.KindTemporal, game.KindConcurrency:
		return http.StatusConflict, game.CodeOf(err)
	case game.KindPayoutFailure:
		return http.StatusBadGateway, game.CodeOf(err)
	default:
		return http.StatusInternalServerError, game.CodeOf(err)
	}
}

// respondError writes {"error", "code"}. Unclassified errors are not echoed.
func respondError(c *gin.Context, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if code == "INTERNAL" {
		msg = "internal server error"
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": msg, "code": code})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": "BAD_REQUEST"})
}
