package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ArowuTest/fastest-finger-pot/internal/config"
	"github.com/ArowuTest/fastest-finger-pot/internal/game"
	"github.com/ArowuTest/fastest-finger-pot/internal/repositories/memory"
	"github.com/ArowuTest/fastest-finger-pot/internal/services"
	"github.com/ArowuTest/fastest-finger-pot/pkg/jwt"
	"github.com/ArowuTest/fastest-finger-pot/pkg/payrail"
	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slog"
)

func newRouter(t *testing.T, devTokens bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server: config.ServerConfig{AllowedOrigins: []string{"*"}},
		Game: config.GameConfig{
			RoundDuration:       15 * time.Second,
			InactivityThreshold: 5 * time.Minute,
			TokenDecimals:       18,
			TokenSymbol:         "MON",
			RequireAddressIDs:   true,
			LeaderboardSize:     10,
		},
		Auth: config.AuthConfig{JWTSecret: "secret", Issuer: "ffp", TokenTTL: time.Hour, DevTokens: devTokens},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	events := services.NewNotificationService(store.Events, log, 0)
	engine, err := game.New(game.DefaultConfig(), payrail.NewClient(payrail.Config{MockAPI: true}), game.WithEventSink(events))
	if err != nil {
		t.Fatalf("game.New: %v", err)
	}
	gameService := services.NewGameService(engine, store, cfg.Game, log)
	tokens := jwt.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)

	return SetupRouter(cfg, Dependencies{
		Game:    gameService,
		History: services.NewHistoryService(store),
		Auth:    services.NewAuthService(tokens, gameService, devTokens),
		Events:  events,
		Tokens:  tokens,
		Log:     log,
	})
}

func serve(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTokenJoinClickFlow(t *testing.T) {
	r := newRouter(t, true)

	w := serve(r, http.MethodPost, "/api/v1/auth/token", "", `{"participantId":"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("token: expected 200, got %d %s", w.Code, w.Body.String())
	}
	var tok struct {
		Token         string `json:"token"`
		ParticipantID string `json:"participantId"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &tok); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	if tok.ParticipantID != "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed" {
		t.Errorf("expected checksummed participant, got %s", tok.ParticipantID)
	}

	if w := serve(r, http.MethodPost, "/api/v1/round/join", "", `{"stake":"0.1"}`); w.Code != http.StatusUnauthorized {
		t.Errorf("join without token: expected 401, got %d", w.Code)
	}
	if w := serve(r, http.MethodPost, "/api/v1/round/join", tok.Token, `{"stake":"0.1"}`); w.Code != http.StatusCreated {
		t.Fatalf("join: expected 201, got %d %s", w.Code, w.Body.String())
	}
	if w := serve(r, http.MethodPost, "/api/v1/round/click", tok.Token, ""); w.Code != http.StatusOK {
		t.Errorf("click: expected 200, got %d %s", w.Code, w.Body.String())
	}

	w = serve(r, http.MethodGet, "/api/v1/me", tok.Token, "")
	var me map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &me)
	if w.Code != http.StatusOK || me["clicks"] != float64(1) {
		t.Errorf("me: unexpected %d %v", w.Code, me)
	}
}

func TestPublicRoutes(t *testing.T) {
	r := newRouter(t, false)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/api/v1/health", http.StatusOK},
		{http.MethodGet, "/api/v1/round", http.StatusOK},
		{http.MethodGet, "/api/v1/round/pot", http.StatusOK},
		{http.MethodGet, "/api/v1/round/number", http.StatusOK},
		{http.MethodGet, "/api/v1/round/active", http.StatusOK},
		{http.MethodGet, "/api/v1/round/winner", http.StatusOK},
		{http.MethodGet, "/api/v1/round/time-remaining", http.StatusOK},
		{http.MethodGet, "/api/v1/round/players", http.StatusOK},
		{http.MethodGet, "/api/v1/round/leaderboard", http.StatusOK},
		{http.MethodGet, "/api/v1/round/inactivity", http.StatusOK},
		{http.MethodGet, "/api/v1/rounds", http.StatusOK},
		{http.MethodGet, "/api/v1/events", http.StatusOK},
		{http.MethodGet, "/api/v1/rounds/1/events", http.StatusOK},
		{http.MethodPost, "/api/v1/round/end", http.StatusConflict},
		{http.MethodPost, "/api/v1/auth/token", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			if w := serve(r, tt.method, tt.path, "", ""); w.Code != tt.status {
				t.Errorf("expected %d, got %d %s", tt.status, w.Code, w.Body.String())
			}
		})
	}
}
