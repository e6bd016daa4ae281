package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Dosada05/tournament-registration/config"
	"github.com/Dosada05/tournament-registration/db"
	"github.com/Dosada05/tournament-registration/handlers"
	"github.com/Dosada05/tournament-registration/metrics"
	"github.com/Dosada05/tournament-registration/realtime"
	"github.com/Dosada05/tournament-registration/repositories"
	api "github.com/Dosada05/tournament-registration/routes"
	"github.com/Dosada05/tournament-registration/services"
	"github.com/Dosada05/tournament-registration/spreadsheet"
	"github.com/Dosada05/tournament-registration/storage"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Отчёты об ошибках импорта (Cloudflare R2) - необязательны
	var uploader storage.FileUploader
	if cfg.R2Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Info("Cloudflare R2 is not configured, error reports disabled")
	}

	var sheets handlers.SheetLoader
	if cfg.GoogleServiceAccountJSON != "" {
		source, err := spreadsheet.NewGoogleSheetsSource(ctx, cfg.GoogleServiceAccountJSON)
		if err != nil {
			logger.Error("failed to initialize Google Sheets client", slog.Any("error", err))
			os.Exit(1)
		}
		sheets = source
		logger.Info("Google Sheets import enabled")
	}

	// Инициализация WebSocket Hub
	wsHub := realtime.NewHub(logger)
	go wsHub.Run(ctx)
	logger.Info("WebSocket Hub started")

	importMetrics := metrics.New(prometheus.DefaultRegisterer)

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	entryRepo := repositories.NewPostgresEntryRepository(dbConn)
	scoreRepo := repositories.NewPostgresScoreRepository(dbConn)
	txRunner := repositories.NewPostgresTxRunner(dbConn, logger)
	logger.Info("Repositories initialized")

	resolvers := services.NewResolvers(userRepo, teamRepo)

	// Инициализация сервисов
	importService := services.NewImportService(services.ImportServiceDeps{
		Tournaments:   tournamentRepo,
		Entries:       entryRepo,
		Tx:            txRunner,
		Resolvers:     resolvers,
		Ratings:       services.NewRatingResolver(scoreRepo),
		Uploader:      uploader,
		Notifier:      wsHub,
		Metrics:       importMetrics,
		Logger:        logger,
		DefaultRating: cfg.ImportDefaultRating,
	})
	teamImportService := services.NewTeamImportService(services.TeamImportServiceDeps{
		Tournaments: tournamentRepo,
		Teams:       teamRepo,
		Users:       userRepo,
		Tx:          txRunner,
		Resolvers:   resolvers,
		Uploader:    uploader,
		Notifier:    wsHub,
		Metrics:     importMetrics,
		Logger:      logger,
	})
	logger.Info("Services initialized")

	// Инициализация обработчиков HTTP
	importHandler := handlers.NewImportHandler(importService, teamImportService, sheets, cfg.ImportMaxUploadBytes)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, cfg.CORSAllowedOrigins, logger)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, importHandler, webSocketHandler, api.Options{
		JWTSecret:      []byte(cfg.JWTSecretKey),
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
