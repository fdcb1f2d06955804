package main // Entry point package

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/iliyamo/winery-visit-booking/internal/app"
	"github.com/iliyamo/winery-visit-booking/internal/config"
	"github.com/iliyamo/winery-visit-booking/internal/logging"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, closer, err := logging.New(cfg.Logging, logging.AppInfo{Name: "winery-visit-booking", Env: cfg.Env, Version: cfg.Version})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := config.NewRedisClient(ctx)
	if rdb == nil {
		logger.Warn().Msg("redis unavailable: no response cache, per-instance rate limits")
	}

	a, err := app.New(ctx, cfg, logger, rdb)
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error().Err(err).Msg("close")
		}
	}()
	return a.Run(ctx)
}
