package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ClipFinance/quest-lib/api"
	"github.com/ClipFinance/quest-lib/chainmanager"
	"github.com/ClipFinance/quest-lib/chains"
	"github.com/ClipFinance/quest-lib/config"
	"github.com/ClipFinance/quest-lib/dbconfig"
	"github.com/ClipFinance/quest-lib/questsync"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	bootstrap := logrus.New()
	if err := godotenv.Load(); err != nil {
		bootstrap.Info("No .env file found, reading environment variables directly")
	}

	cfg, err := config.Load()
	if err != nil {
		bootstrap.WithError(err).Fatal("Invalid configuration")
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		bootstrap.WithError(err).Fatal("Invalid logger configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	options := questsync.DefaultOptions()
	if cfg.DatabaseURL != "" {
		db, err := dbconfig.NewDBConfig(cfg.DatabaseURL)
		if err != nil {
			logger.WithError(err).Fatal("Invalid database configuration")
		}
		if err := db.Resolve(ctx, cfg.Chain); err != nil {
			logger.WithError(err).Fatal("Failed to resolve deployment")
		}
		options.Recorder = db
	}

	registry := chainmanager.NewChainRegistry(chains.NewChainFactory(), logger)
	if err := registry.Add(ctx, cfg.Chain); err != nil {
		logger.WithError(err).Fatal("Failed to connect to the network")
	}
	chain := registry.Get(cfg.Chain.Network)

	service, err := questsync.New(chain, logger, options)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create sync service")
	}
	if cfg.Chain.PrivateKey != "" {
		if _, err := service.Actions().VerifyExchangeRate(ctx); err != nil {
			logger.WithError(err).Warn("Exchange rate check failed")
		}
	}
	service.Start(ctx)

	app := api.NewApp(api.NewHandler(service, logger))
	go func() {
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			logger.WithError(err).Error("Server error")
			stop()
		}
	}()

	logger.WithFields(logrus.Fields{
		"network": cfg.Chain.Network,
		"addr":    cfg.HTTPAddr,
		"signer":  service.Signer(),
	}).Info("Quest service running")

	<-ctx.Done()
	logger.Info("Shutting down")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.WithError(err).Warn("Server shutdown failed")
	}
	if err := service.Stop(); err != nil {
		logger.WithError(err).Warn("Sync service shutdown failed")
	}
	registry.Remove(cfg.Chain.Network)
}
