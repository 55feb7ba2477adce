package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ArowuTest/fastest-finger-pot/internal/game"
	"github.com/ArowuTest/fastest-finger-pot/pkg/jwt"
)

func TestAuthServiceIssueToken(t *testing.T) {
	f := newFixture(t, nil)
	tokens := jwt.NewTokenService("test-secret", "ffp-test", time.Hour)

	disabled := NewAuthService(tokens, f.svc, false)
	if _, err := disabled.IssueToken(context.Background(), string(alice)); !errors.Is(err, ErrDevTokensDisabled) {
		t.Fatalf("expected ErrDevTokensDisabled, got %v", err)
	}

	auth := NewAuthService(tokens, f.svc, true)
	resp, err := auth.IssueToken(context.Background(), "0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if resp.ParticipantID != alice {
		t.Errorf("expected checksummed id %s, got %s", alice, resp.ParticipantID)
	}
	sub, err := tokens.Parse(resp.Token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sub != string(alice) {
		t.Errorf("expected subject %s, got %s", alice, sub)
	}

	if _, err := auth.IssueToken(context.Background(), "nope"); !errors.Is(err, game.ErrInvalidParticipant) {
		t.Errorf("expected ErrInvalidParticipant, got %v", err)
	}
}
