package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/octobees/leads-extractor/internal/app"
	"github.com/octobees/leads-extractor/internal/auth"
	"github.com/octobees/leads-extractor/internal/config"
	"github.com/octobees/leads-extractor/internal/handler"
	"github.com/octobees/leads-extractor/internal/logger"
	middlewarepkg "github.com/octobees/leads-extractor/internal/middleware"
	"github.com/octobees/leads-extractor/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zl.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stack, err := app.Build(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("api: failed to build extraction stack", zap.Error(err))
	}
	defer stack.Close()

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	handlers := router.Handlers{
		Search: handler.NewSearchHandler(stack.Service, zl.Named("http")),
	}
	if stack.Service.PersistenceEnabled() {
		handlers.Leads = handler.NewLeadsHandler(stack.Service)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging(zl.Named("http")))
	e.Use(echoMiddleware.Recover())

	router.Register(e, cfg, jwtManager, handlers)

	serverErr := make(chan error, 1)
	go func() {
		zl.Info("api: listening",
			zap.String("port", cfg.Port),
			zap.Int("browser_pool", stack.Pool.Size()),
			zap.Bool("persistence", stack.Service.PersistenceEnabled()),
			zap.Bool("auth_required", cfg.AuthRequired),
		)
		serverErr <- e.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		zl.Info("api: received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Error("api: server error", zap.Error(err))
		}
		return
	}

	// sessions in flight keep their browser until they finish or the
	// shutdown deadline cancels them
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Warn("api: graceful shutdown failed", zap.Error(err))
	}
}
