package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"mysft/internal/config"
	"mysft/internal/handlers"
	"mysft/internal/middleware"
	"mysft/internal/routes"
	"mysft/internal/services"
	"mysft/internal/storage"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	var logger *zap.Logger
	var err error
	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	var store storage.Store
	switch cfg.StoreBackend {
	case config.BackendMemory:
		logger.Warn("using in-memory store; data will not survive restarts")
		store = storage.NewMemStore()
	default:
		logger.Info("connecting to redis")
		rs, err := storage.ConnectRedis(cfg.RedisURI)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rs.Close()
		store = rs
	}

	// One-time reconciliation of data written by earlier app versions.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := storage.Migrate(ctx, store, logger); err != nil {
		cancel()
		logger.Fatal("startup migration failed", zap.Error(err))
	}
	cancel()

	sessions := services.NewSessions(store, logger)
	audit := services.NewAudit(store, sessions, logger)
	identity := services.NewIdentity(store, sessions, audit, logger)
	profiles := services.NewProfiles(store, sessions, audit, logger)
	health := services.NewHealth(store, sessions, logger)
	training := services.NewTraining(store, sessions, health, logger)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestLogger(logger))
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity() {
			r.Use(mw)
		}
		logger.Info("production security enabled")
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	routes.Setup(r,
		handlers.NewAuthHandler(identity, sessions),
		handlers.NewProfileHandler(profiles, sessions),
		handlers.NewHealthDeclHandler(health),
		handlers.NewTrainingHandler(training),
		handlers.NewAdminHandler(profiles, audit, health),
	)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown initiated")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info("server stopped")
}
