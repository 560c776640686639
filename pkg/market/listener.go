// Package market keeps the materialized marketplace view in step with the
// chain: it feeds watched events to the engine and records scan progress.
package market

import (
	"context"
	"errors"
	"time"

	"github.com/6529-Collections/marketview/internal/config"
	"github.com/6529-Collections/marketview/internal/eth"
	"github.com/6529-Collections/marketview/internal/market/entity"
	"github.com/6529-Collections/marketview/pkg/market/events"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

var errWatcherStopped = errors.New("market events watcher stopped")

// Progress is the part of the engine the listener resumes from and advances.
type Progress interface {
	Checkpoint(ctx context.Context) (entity.Checkpoint, bool, error)
	AdvanceTo(ctx context.Context, blockNumber uint64) error
}

type Engine interface {
	eth.EventHandler
	Progress
}

type MarketContractsListener struct {
	newWatcher     func(ctx context.Context) eth.MarketEventsWatcher
	receivedAction func(ctx context.Context) eth.MarketEventsReceivedAction
	progress       Progress
	contracts      []string
	epochBlock     uint64
	restartBackOff func() backoff.BackOff
}

func (l *MarketContractsListener) resumeBlock(ctx context.Context) (uint64, error) {
	checkpoint, found, err := l.progress.Checkpoint(ctx)
	if err != nil {
		return 0, err
	}
	// The checkpoint block may be partially applied; redelivered events
	// of it are skipped by the engine.
	if !found || checkpoint.BlockNumber < l.epochBlock {
		return l.epochBlock, nil
	}
	return checkpoint.BlockNumber, nil
}

// listen runs one watcher from the checkpoint until it stops or an event
// cannot be applied.
func (l *MarketContractsListener) listen(ctx context.Context, tipReachedChan chan<- bool) error {
	startBlock, err := l.resumeBlock(ctx)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	batchesChan := make(chan events.EventBatch)
	latestBlockChan := make(chan uint64)
	watchErr := make(chan error, 1)
	watcher := l.newWatcher(runCtx)
	action := l.receivedAction(runCtx)

	zap.L().Info("Market listener resuming", zap.Uint64("startBlock", startBlock))
	go func() {
		watchErr <- watcher.WatchEvents(l.contracts, startBlock, batchesChan, latestBlockChan, tipReachedChan)
	}()

	for {
		select {
		case batch := <-batchesChan:
			if err := action.Handle(batch); err != nil {
				return err
			}
		case block := <-latestBlockChan:
			if err := l.progress.AdvanceTo(runCtx, block); err != nil {
				return err
			}
		case err := <-watchErr:
			if err == nil {
				err = errWatcherStopped
			}
			return err
		case <-ctx.Done():
			return nil
		}
	}
}

// run keeps listening, restarting from the checkpoint after every failure,
// until ctx is canceled.
func (l *MarketContractsListener) run(ctx context.Context, tipReachedChan chan<- bool) error {
	attempt := 0
	notify := func(err error, next time.Duration) {
		attempt++
		zap.L().Error("Market listener failed, restarting from checkpoint",
			zap.Int("attempt", attempt),
			zap.Duration("next", next),
			zap.Error(err),
		)
	}
	operation := func() error {
		err := l.listen(ctx, tipReachedChan)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}
	err := backoff.RetryNotify(operation, backoff.WithContext(l.restartBackOff(), ctx), notify)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func restartBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 1 * time.Second
	b.MaxInterval = 1 * time.Minute
	b.MaxElapsedTime = 0
	return b
}

func contractsToWatch(cfg config.Config) []string {
	var contracts []string
	if cfg.MarketContract != "" {
		contracts = append(contracts, cfg.MarketContract)
	}
	return append(contracts, cfg.AssetContractList()...)
}

// BlockUntilOnTipAndKeepListeningAsync returns once the view has caught up
// with the chain tip and keeps applying new blocks in the background.
func BlockUntilOnTipAndKeepListeningAsync(ctx context.Context, client eth.EthClient, engine Engine) error {
	cfg := config.Get()
	contracts := contractsToWatch(cfg)
	if len(contracts) == 0 {
		return errors.New("no market or asset contracts configured")
	}

	listener := &MarketContractsListener{
		newWatcher: func(runCtx context.Context) eth.MarketEventsWatcher {
			return eth.NewMarketEventsWatcher(runCtx, client)
		},
		receivedAction: func(runCtx context.Context) eth.MarketEventsReceivedAction {
			return eth.NewDefaultMarketEventsReceivedAction(runCtx, engine)
		},
		progress:       engine,
		contracts:      contracts,
		epochBlock:     cfg.MarketStartBlock,
		restartBackOff: restartBackOff,
	}

	fatalErrors := make(chan error, 1)
	tipReachedChan := make(chan bool, 10)
	go func() {
		if err := listener.run(ctx, tipReachedChan); err != nil {
			fatalErrors <- err
		}
	}()

	select {
	case <-tipReachedChan:
		go func() {
			for err := range fatalErrors {
				zap.L().Fatal("Fatal error listening on market contracts", zap.Error(err))
			}
		}()
		return nil
	case err := <-fatalErrors:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
