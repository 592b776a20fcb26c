package main

import (
	"context"
	"math/rand"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"betwise-backend/internal/config"
	"betwise-backend/internal/database"
	"betwise-backend/internal/handlers"
	"betwise-backend/internal/ledger"
	"betwise-backend/internal/middleware"
	"betwise-backend/internal/rounds"
	"betwise-backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	if cfg.Env == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	if err := database.MigrateUp(cfg.DatabaseURL); err != nil {
		logrus.WithError(err).Fatal("failed to run migrations")
	}

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	coordinator, err := rounds.NewCoordinator(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to redis")
	}
	defer coordinator.Close()

	store := ledger.NewStore(db, cfg.TopUpMax, cfg.TopUpDailyCap)
	jwtService := services.NewJWTService(cfg)

	wsHandler := handlers.NewWebSocketHandler(store)

	slots := services.NewSlotsEngine(store, wsHandler, rand.New(rand.NewSource(time.Now().UnixNano())))
	blackjack := services.NewBlackjackEngine(store, coordinator, wsHandler, rand.New(rand.NewSource(time.Now().UnixNano())))
	mines := services.NewMinesEngine(store, coordinator, wsHandler, rand.New(rand.NewSource(time.Now().UnixNano())))

	authHandler := handlers.NewAuthHandler(store, jwtService, cfg)
	gameHandler := handlers.NewGameHandler(slots, blackjack, mines)
	walletHandler := handlers.NewWalletHandler(store, cfg.WalletPageSize)

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.POST("/register", authHandler.Register)
	router.POST("/login", authHandler.Login)

	protected := router.Group("/")
	protected.Use(middleware.AuthMiddleware(jwtService))
	protected.Use(middleware.RateLimitMiddleware(coordinator))
	{
		protected.POST("/slots/spin", gameHandler.SpinSlots)

		protected.POST("/blackjack/start", gameHandler.StartBlackjack)
		protected.POST("/blackjack/hit", gameHandler.HitBlackjack)
		protected.POST("/blackjack/double", gameHandler.DoubleBlackjack)
		protected.POST("/blackjack/settle", gameHandler.SettleBlackjack)

		protected.POST("/mines/start", gameHandler.StartMines)
		protected.POST("/mines/reveal", gameHandler.RevealMines)
		protected.POST("/mines/tile", gameHandler.TileMines)
		protected.POST("/mines/cashout", gameHandler.CashoutMines)

		protected.GET("/wallet", walletHandler.GetWallet)
		protected.POST("/wallet/add", walletHandler.AddCredits)

		protected.GET("/ws", wsHandler.HandleWebSocket)
	}

	logrus.WithField("port", cfg.Port).Info("server starting")
	if err := router.Run(":" + cfg.Port); err != nil {
		logrus.WithError(err).Fatal("server exited")
	}
}
