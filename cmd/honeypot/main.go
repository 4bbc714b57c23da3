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

	"github.com/BradenHooton/honeypot/internal/config"
	"github.com/BradenHooton/honeypot/internal/handlers"
	"github.com/BradenHooton/honeypot/internal/middleware"
	"github.com/BradenHooton/honeypot/internal/repositories"
	"github.com/BradenHooton/honeypot/internal/routes"
	"github.com/BradenHooton/honeypot/internal/services"
	pkghttp "github.com/BradenHooton/honeypot/pkg/http"
	pkglogger "github.com/BradenHooton/honeypot/pkg/logger"
)

func main() {
	bootLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLogger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger, logCloser, err := pkglogger.New(pkglogger.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		bootLogger.Error("failed to initialize logger", slog.Any("error", err))
		os.Exit(1)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", slog.Any("error", err))
		logCloser.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	// Persistence
	attemptRepo := repositories.NewAttemptRepository(cfg.Capture.LogDir, cfg.Capture.TextLogFile, cfg.Capture.JSONLogFile, logger)

	// Services
	captureLogger := pkglogger.NewCaptureLogger(logger, cfg.Server.Env)
	captureService := services.NewCaptureService(attemptRepo, captureLogger, logger)

	// Handlers
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Capture.TrustedProxies}
	captureHandler := handlers.NewCaptureHandler(captureService, captureLogger, ipConfig, cfg.Capture.MaxBodyBytes)

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.Server.CORSOrigins
	corsConfig.MaxAge = cfg.Server.CORSMaxAge

	router := routes.NewRouter(captureHandler, routes.Options{
		Logger:            logger,
		WebRoot:           cfg.Server.WebRoot,
		DecoyServerHeader: cfg.Server.DecoyServerHeader,
		CORS:              corsConfig,
	})

	if _, err := os.Stat(cfg.Server.WebRoot); err != nil {
		logger.Warn("decoy web root is not readable, only the capture endpoint will answer",
			slog.String("web_root", cfg.Server.WebRoot),
			slog.Any("error", err),
		)
	}

	listener, port, err := pkghttp.ListenFirstAvailable(cfg.Server.Host, cfg.Server.Port, cfg.Server.PortAttempts)
	if err != nil {
		return fmt.Errorf("could not find an available port starting from %d: %w", cfg.Server.Port, err)
	}
	if port != cfg.Server.Port {
		logger.Warn("configured port is in use, using another",
			slog.Int("configured_port", cfg.Server.Port),
			slog.Int("port", port),
		)
	}

	logger.Info("starting honeypot server",
		slog.String("addr", listener.Addr().String()),
		slog.String("url", fmt.Sprintf("http://localhost:%d", port)),
		slog.String("log_dir", cfg.Capture.LogDir),
		slog.String("web_root", cfg.Server.WebRoot),
	)
	logger.Warn("educational use only, run this honeypot responsibly")

	server := &http.Server{
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-serveErr:
		return err
	case <-sigChan:
	}

	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped gracefully",
		slog.String("text_log", attemptRepo.TextPath()),
		slog.String("json_log", attemptRepo.JSONPath()),
	)
	return nil
}
