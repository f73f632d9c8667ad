package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bookhive/library-backend/config"
	"github.com/bookhive/library-backend/internal/catalog"
	"github.com/bookhive/library-backend/internal/health"
	"github.com/bookhive/library-backend/internal/infrastructure/postgres"
	ctxlog "github.com/bookhive/library-backend/internal/log"
	"github.com/bookhive/library-backend/internal/metrics"
	httptransport "github.com/bookhive/library-backend/internal/transport/http"
	"github.com/bookhive/library-backend/internal/transport/http/handler"
	"github.com/bookhive/library-backend/internal/upload"
	"github.com/bookhive/library-backend/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	// Phase one: acquire the database before accepting any traffic.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	userRepo := postgres.NewUserRepository(pool)
	bookRepo := postgres.NewBookRepository(pool)
	loanRepo := postgres.NewLoanRepository(pool)

	authUsecase := usecase.NewAuthUsecase(userRepo, loanRepo, []byte(cfg.JWTSecret))
	bookUsecase := usecase.NewBookUsecase(bookRepo, loanRepo)
	loanUsecase := usecase.NewLoanUsecase(bookRepo, loanRepo, logger)

	uploadStore, err := upload.NewStore(cfg.UploadDir)
	if err != nil {
		stop()
		log.Fatalf("upload store: %v", err)
	}

	authHandler := handler.NewAuthHandler(authUsecase, logger)
	bookHandler := handler.NewBookHandler(bookUsecase, loanUsecase, logger)
	catalogHandler := handler.NewCatalogHandler(catalog.NewClient(cfg.GoogleBooksAPIKey), logger)
	uploadHandler := handler.NewUploadHandler(uploadStore, logger)

	metrics.Register()
	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)

	srv := http.Server{
		Addr: ":" + cfg.Port,
		Handler: httptransport.NewRouter(httptransport.RouterDeps{
			Logger:         logger,
			AuthHandler:    authHandler,
			BookHandler:    bookHandler,
			CatalogHandler: catalogHandler,
			UploadHandler:  uploadHandler,
			UploadDir:      cfg.UploadDir,
			JWTKey:         []byte(cfg.JWTSecret),
		}),
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	// Phase two: listen.
	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
