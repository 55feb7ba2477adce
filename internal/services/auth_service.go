package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ArowuTest/fastest-finger-pot/internal/models"
	"github.com/ArowuTest/fastest-finger-pot/pkg/jwt"
)

// ErrDevTokensDisabled is returned when token issuance is switched off
var ErrDevTokensDisabled = errors.New("token issuance is disabled")

var _ AuthService = (*AuthServiceImpl)(nil)

// AuthServiceImpl issues participant tokens for development deployments.
// Production tokens come from an external identity provider signed with the same secret.
type AuthServiceImpl struct {
	tokens    *jwt.TokenService
	game      GameService
	devTokens bool
}

func NewAuthService(tokens *jwt.TokenService, game GameService, devTokens bool) *AuthServiceImpl {
	return &AuthServiceImpl{
		tokens:    tokens,
		game:      game,
		devTokens: devTokens,
	}
}

// IssueToken normalizes participantID and signs a token for it
func (s *AuthServiceImpl) IssueToken(ctx context.Context, participantID string) (*models.TokenResponse, error) {
	if !s.devTokens {
		return nil, ErrDevTokensDisabled
	}
	id, err := s.game.NormalizeParticipant(participantID)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.tokens.Issue(string(id))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &models.TokenResponse{
		Token:         token,
		ParticipantID: id,
		ExpiresAt:     expiresAt,
	}, nil
}
