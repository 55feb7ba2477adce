package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ArowuTest/fastest-finger-pot/internal/models"
	"github.com/ArowuTest/fastest-finger-pot/pkg/jwt"
	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slog"
)

// ParticipantKey is the gin context key holding the authenticated participant.
const ParticipantKey = "participantID"

// TokenParser verifies a bearer token and returns the participant id it carries.
type TokenParser interface {
	Parse(token string) (string, error)
}

// JWTAuthMiddleware attributes the request to the participant in the token's sub claim.
func JWTAuthMiddleware(tokens TokenParser, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const BearerSchema = "Bearer "
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required", "code": "UNAUTHORIZED"})
			return
		}
		if !strings.HasPrefix(authHeader, BearerSchema) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must start with Bearer ", "code": "UNAUTHORIZED"})
			return
		}

		participant, err := tokens.Parse(strings.TrimSpace(authHeader[len(BearerSchema):]))
		if err != nil {
			log.Warn("Token validation failed", "error", err, "requestId", c.GetString(RequestIDKey))
			// Handle specific errors like expiration
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has expired", "code": "TOKEN_EXPIRED"})
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token", "code": "UNAUTHORIZED"})
			}
			return
		}

		c.Set(ParticipantKey, models.ParticipantID(participant))
		c.Next()
	}
}

// Participant returns the participant set by JWTAuthMiddleware.
func Participant(c *gin.Context) (models.ParticipantID, bool) {
	v, ok := c.Get(ParticipantKey)
	if !ok {
		return "", false
	}
	id, ok := v.(models.ParticipantID)
	return id, ok && id != ""
}
