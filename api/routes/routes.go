package routes

import (
	"net/http"

	"github.com/ArowuTest/fastest-finger-pot/internal/config"
	"github.com/ArowuTest/fastest-finger-pot/internal/handlers"
	"github.com/ArowuTest/fastest-finger-pot/internal/middleware"
	"github.com/ArowuTest/fastest-finger-pot/internal/services"
	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slog"
)

// Dependencies are the services the HTTP surface is built from
type Dependencies struct {
	Game    services.GameService
	History services.HistoryService
	Auth    services.AuthService
	Events  handlers.EventSubscriber
	Tokens  middleware.TokenParser
	Log     *slog.Logger
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	// Create router
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(deps.Log))
	router.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins))

	// Create handlers
	gameHandler := handlers.NewGameHandler(deps.Game)
	roundsHandler := handlers.NewRoundsHandler(deps.History, deps.Game)
	authHandler := handlers.NewAuthHandler(deps.Auth)
	streamHandler := handlers.NewStreamHandler(deps.Game, deps.Events, deps.Log, originChecker(cfg.Server.AllowedOrigins))

	// Public routes
	public := router.Group("/api/v1")
	{
		// Health check
		public.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
				"round":  deps.Game.CurrentRoundNumber(),
			})
		})

		// Auth routes
		if cfg.Auth.DevTokens {
			auth := public.Group("/auth")
			{
				auth.POST("/token", authHandler.IssueToken)
			}
		}

		round := public.Group("/round")
		{
			round.GET("", gameHandler.GetRound)
			round.GET("/pot", gameHandler.GetPot)
			round.GET("/number", gameHandler.GetRoundNumber)
			round.GET("/active", gameHandler.GetRoundActive)
			round.GET("/winner", gameHandler.GetWinner)
			round.GET("/time-remaining", gameHandler.GetTimeRemaining)
			round.GET("/players", gameHandler.GetPlayers)
			round.GET("/leaderboard", gameHandler.GetLeaderboard)
			round.GET("/inactivity", gameHandler.GetInactivity)
			round.POST("/end", gameHandler.EndRound)
			round.POST("/claim-inactivity", gameHandler.ClaimInactivity)
		}

		players := public.Group("/players")
		{
			players.GET("/:id", gameHandler.GetPlayer)
			players.GET("/:id/score", gameHandler.GetPlayerScore)
			players.GET("/:id/wins", roundsHandler.GetPlayerWins)
		}

		rounds := public.Group("/rounds")
		{
			rounds.GET("", roundsHandler.GetRounds)
			rounds.GET("/:number", roundsHandler.GetRound)
			rounds.GET("/:number/events", roundsHandler.GetRoundEvents)
			rounds.GET("/:number/payouts", roundsHandler.GetRoundPayouts)
		}

		public.GET("/events", roundsHandler.GetRecentEvents)
		public.GET("/stream", streamHandler.Stream)
	}

	// Protected routes
	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuthMiddleware(deps.Tokens, deps.Log))
	{
		protected.POST("/round/join", gameHandler.Join)
		protected.POST("/round/click", gameHandler.Click)
		protected.GET("/me", gameHandler.Me)
	}

	return router
}

// originChecker applies the CORS allow-list to websocket upgrades
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return nil
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}
