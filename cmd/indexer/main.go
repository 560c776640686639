package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/6529-Collections/marketview/internal/config"
	"github.com/6529-Collections/marketview/internal/db"
	"github.com/6529-Collections/marketview/internal/eth"
	"github.com/6529-Collections/marketview/internal/market"
	"github.com/6529-Collections/marketview/internal/rpc"
	"github.com/6529-Collections/marketview/internal/store"
	marketlistener "github.com/6529-Collections/marketview/pkg/market"
	"go.uber.org/zap"
)

var Version = "dev" // Overridden by release build script

func init() {
	logger := zap.Must(zap.NewProduction())
	if config.Get().LogZapMode == "development" {
		logger = zap.Must(zap.NewDevelopment())
	}
	zap.ReplaceGlobals(logger)
}

func openBackend(cfg config.Config) (store.Backend, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendSqlite, "":
		sqlite, err := db.OpenSqlite(cfg.SqlitePath)
		if err != nil {
			return nil, err
		}
		return store.NewSQLiteBackend(sqlite), nil
	case config.StoreBackendBadger:
		kv, err := db.OpenBadger(cfg.BadgerPath)
		if err != nil {
			return nil, err
		}
		return store.NewBadgerBackend(kv), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func main() {
	zap.L().Info("Starting 6529-Collections/marketview...",
		zap.String("Version", Version))

	cfg := config.Get()

	// Main context: canceled when we want to stop normal operation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, err := openBackend(cfg)
	if err != nil {
		zap.L().Fatal("Failed to open store", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}

	ethClient, err := eth.CreateEthClient()
	if err != nil {
		zap.L().Fatal("Failed to create Ethereum client", zap.Error(err))
	}

	engine := market.NewEngine(backend, eth.NewContractReader(ethClient), market.Config{
		MarketContracts:   []string{cfg.MarketContract},
		TransferScanDepth: cfg.HistoryTransferScanDepth,
	})

	closeRpcServer := rpc.StartRPCServer(cfg.RPCPort, backend, ctx)

	if err := marketlistener.BlockUntilOnTipAndKeepListeningAsync(ctx, ethClient, engine); err != nil {
		zap.L().Error("Failed to listen on market contracts", zap.Error(err))
		cancel() // Cancel main context if critical startup failed
	} else {
		zap.L().Info("Market view caught up with chain tip")
	}

	// Catch up to two signals: first for graceful, second to force
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	doneCh := make(chan struct{})

	go func() {
		<-sigCh
		zap.L().Info("Received shutdown signal, initiating graceful shutdown...")

		closeRpcServer()
		cancel()
		ethClient.Close()

		if err := backend.Close(); err != nil {
			zap.L().Warn("Error closing store", zap.Error(err))
		}

		close(doneCh)

		// If a second signal arrives, force an immediate exit
		<-sigCh
		zap.L().Error("Received second signal, forcing shutdown")
		os.Exit(1)
	}()

	// Wait for either normal context cancellation or graceful shutdown completion
	select {
	case <-ctx.Done():
	case <-doneCh:
	}

	zap.L().Info("Shutdown complete")
	_ = zap.L().Sync()
}
