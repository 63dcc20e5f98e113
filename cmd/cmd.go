package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"place-swipe-backend/internal/config"
	"place-swipe-backend/internal/graph"
	"place-swipe-backend/internal/handlers"
	"place-swipe-backend/internal/middleware"
	"place-swipe-backend/internal/repository"
	"place-swipe-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	// Connect to the follow graph
	graphClient, err := graph.NewNeo4jClient(context.Background(), graph.Options{
		URI:            cfg.Graph.URI,
		Database:       cfg.Graph.Database,
		Username:       cfg.Graph.Username,
		Password:       cfg.Graph.Password,
		MaxConnections: cfg.Graph.MaxConnections,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to follow graph")
	}
	defer graphClient.Close(context.Background())
	log.Info().Msg("Follow graph connection established")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	swipeRepo := repository.NewSwipeRepository(db)
	savedRepo := repository.NewSavedLocationRepository(db)
	locationRepo := repository.NewLocationRepository(db)

	// Initialize services
	userService := services.NewUserService(userRepo, cfg.JWT.Secret)

	photoStore, err := services.NewPhotoStore(
		cfg.AWS.Region,
		cfg.AWS.S3Bucket,
		cfg.AWS.AccessKey,
		cfg.AWS.SecretKey,
		cfg.AWS.Endpoint,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create photo store")
	}

	var pusher services.Pusher
	if cfg.APNS.CertPath != "" {
		pushService, err := services.NewPushService(
			cfg.APNS.CertPath, cfg.APNS.CertPass, cfg.APNS.Topic, cfg.APNS.Production,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create push service")
		}
		pusher = pushService
	}

	pipeline := services.NewPipeline(
		graphClient, swipeRepo, savedRepo, locationRepo, photoStore,
		cfg.Feed.PageSize, cfg.Feed.SavedFetchLimit,
	)
	wsHub := services.NewWSHub()
	commitService := services.NewCommitService(swipeRepo, savedRepo, userRepo, graphClient, wsHub, pusher)

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService)
	feedHandler := handlers.NewFeedHandler(pipeline)
	swipeHandler := handlers.NewSwipeHandler(commitService)
	followHandler := handlers.NewFollowHandler(graphClient, userService)
	gestureCfg := services.DefaultGestureConfig()
	gestureCfg.SwipeThreshold = cfg.Feed.SwipeThreshold
	gestureCfg.VerticalThreshold = cfg.Feed.VerticalThreshold
	wsHandler := handlers.NewWebSocketHandler(wsHub, userService, pipeline, commitService, cfg.Feed.LowWater, gestureCfg)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/users", userHandler.CreateUser)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(userService))
			r.Post("/users/push-token", userHandler.UpdatePushToken)
			r.Get("/feed", feedHandler.GetFeed)
			r.Get("/digests", feedHandler.GetDigests)
			r.Post("/swipes", swipeHandler.CreateSwipe)
			r.Get("/follows", followHandler.ListFollowing)
			r.Post("/follows", followHandler.CreateFollow)
			r.Delete("/follows/{user_id}", followHandler.DeleteFollow)
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
