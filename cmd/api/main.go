package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fantadynasty/transfer-market/internal/app"
	"github.com/fantadynasty/transfer-market/internal/config"
	"github.com/fantadynasty/transfer-market/internal/observability"
	"github.com/fantadynasty/transfer-market/internal/platform/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	baseLogger := logging.NewJSON(cfg.LogLevel)
	zapLogger, stopLogShipping, err := observability.InitBetterStackLogger(cfg, baseLogger)
	if err != nil {
		baseLogger.Error("init log shipping", "error", err)
		os.Exit(1)
	}
	logging.SetDefault(zapLogger)
	logger := logging.NewSlog(zapLogger)

	stopUptrace, err := observability.InitUptrace(cfg, zapLogger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		os.Exit(1)
	}

	stopPyroscope, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Error("init pyroscope", "error", err)
		os.Exit(1)
	}

	pprofSrv, err := observability.StartPprofServer(cfg, logger)
	if err != nil {
		logger.Error("start pprof server", "error", err)
		os.Exit(1)
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runErr := application.Run(ctx)

	if err := observability.StopPprofServer(pprofSrv, logger, 5*time.Second); err != nil {
		logger.Error("stop pprof server", "error", err)
	}
	if err := stopPyroscope(); err != nil {
		logger.Error("stop pyroscope", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := stopUptrace(shutdownCtx); err != nil {
		logger.Error("stop uptrace", "error", err)
	}
	if err := stopLogShipping(shutdownCtx); err != nil {
		logger.Error("stop log shipping", "error", err)
	}

	if runErr != nil {
		logger.Error("run app", "error", runErr)
		os.Exit(1)
	}
}
