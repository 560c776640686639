package eth

import (
	"context"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/6529-Collections/marketview/internal/config"
	"github.com/6529-Collections/marketview/pkg/market/events"
	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

type MarketEventsWatcher interface {
	WatchEvents(
		contracts []string,
		startBlock uint64,
		batchesChan chan<- events.EventBatch,
		latestBlockChan chan<- uint64,
		tipReachedChan chan<- bool,
	) error
}

type DefaultMarketEventsWatcher struct {
	ctx          context.Context
	client       EthClient
	decoder      EthTransactionLogsDecoder
	maxChunkSize uint64
	newBackOff   func() backoff.BackOff
}

func NewMarketEventsWatcher(ctx context.Context, client EthClient) *DefaultMarketEventsWatcher {
	maxChunkSize := config.Get().MarketWatcherMaxChunkSize
	if maxChunkSize == 0 {
		maxChunkSize = 2000
	}
	return &DefaultMarketEventsWatcher{
		ctx:          ctx,
		client:       client,
		decoder:      NewDefaultEthTransactionLogsDecoder(),
		maxChunkSize: maxChunkSize,
		newBackOff:   defaultBackOff,
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 5 * time.Minute
	b.Multiplier = 2
	b.RandomizationFactor = 0.2
	return b
}

func (w *DefaultMarketEventsWatcher) WatchEvents(
	contracts []string,
	startBlock uint64,
	batchesChan chan<- events.EventBatch,
	latestBlockChan chan<- uint64,
	tipReachedChan chan<- bool,
) error {
	contractAddrs := make([]common.Address, len(contracts))
	for i, addr := range contracts {
		contractAddrs[i] = common.HexToAddress(addr)
	}

	zap.L().Info("Starting watch on market contracts",
		zap.Strings("contracts", contracts),
		zap.Uint64("startBlock", startBlock),
	)

	currentBlock := startBlock
	for {
		tipBlock, err := latestBlockNumber(w.ctx, w.client)
		if err != nil {
			if sleepInterrupted(w.ctx, 1*time.Second) {
				return nil
			}
			continue
		}

		if currentBlock <= tipBlock {
			endBlock := currentBlock + w.maxChunkSize - 1
			if endBlock > tipBlock {
				endBlock = tipBlock
			}
			err = w.processRange(contractAddrs, currentBlock, endBlock, batchesChan, latestBlockChan)
			if err != nil {
				if w.ctx.Err() != nil {
					return nil
				}
				zap.L().Warn("Failed processing blocks range", zap.Error(err))
				if sleepInterrupted(w.ctx, 1*time.Second) {
					return nil
				}
				continue
			}
			currentBlock = endBlock + 1
			continue
		}

		zap.L().Info("Market watcher reached chain tip", zap.Uint64("block", tipBlock))
		select {
		case tipReachedChan <- true:
		default:
		}

		newHeads := make(chan *types.Header, 16)
		sub, err := w.client.SubscribeNewHead(w.ctx, newHeads)
		if err != nil {
			zap.L().Warn("Falling back to polling", zap.Error(err))
			return w.pollForNewBlocks(contractAddrs, &currentBlock, batchesChan, latestBlockChan)
		}
		return w.subscribeAndProcessHeads(sub, newHeads, contractAddrs, &currentBlock, batchesChan, latestBlockChan)
	}
}

func (w *DefaultMarketEventsWatcher) pollForNewBlocks(
	contractAddrs []common.Address,
	currentBlock *uint64,
	batchesChan chan<- events.EventBatch,
	latestBlockChan chan<- uint64,
) error {
	for {
		if w.ctx.Err() != nil {
			return nil
		}
		tipBlock, err := latestBlockNumber(w.ctx, w.client)
		if err != nil {
			if sleepInterrupted(w.ctx, 3*time.Second) {
				return nil
			}
			continue
		}

		if *currentBlock <= tipBlock {
			endBlock := *currentBlock + w.maxChunkSize - 1
			if endBlock > tipBlock {
				endBlock = tipBlock
			}
			err := w.processRange(contractAddrs, *currentBlock, endBlock, batchesChan, latestBlockChan)
			if err != nil {
				zap.L().Error("Failed processing blocks range (polling)", zap.Error(err))
				if sleepInterrupted(w.ctx, 3*time.Second) {
					return nil
				}
				continue
			}
			*currentBlock = endBlock + 1
			continue
		}

		zap.L().Debug("No new block yet (polling)",
			zap.Uint64("current", *currentBlock),
			zap.Uint64("tip", tipBlock),
		)
		if sleepInterrupted(w.ctx, 100*time.Millisecond) {
			return nil
		}
	}
}

func (w *DefaultMarketEventsWatcher) subscribeAndProcessHeads(
	sub ethereum.Subscription,
	newHeads <-chan *types.Header,
	contractAddrs []common.Address,
	currentBlock *uint64,
	batchesChan chan<- events.EventBatch,
	latestBlockChan chan<- uint64,
) error {
	defer sub.Unsubscribe()

	for {
		select {
		case err := <-sub.Err():
			return err

		case header := <-newHeads:
			if header == nil {
				return nil
			}
			blockNum := header.Number.Uint64()
			for *currentBlock <= blockNum {
				endBlock := *currentBlock + w.maxChunkSize - 1
				if endBlock > blockNum {
					endBlock = blockNum
				}
				err := w.processRange(contractAddrs, *currentBlock, endBlock, batchesChan, latestBlockChan)
				if err != nil {
					if w.ctx.Err() != nil {
						return nil
					}
					zap.L().Error("Failed processing blocks range (subscription)", zap.Error(err))
					return err
				}
				*currentBlock = endBlock + 1
			}

		case <-w.ctx.Done():
			return nil
		}
	}
}

// processRange delivers every decoded event of [startBlock, endBlock] in
// chain order, one batch per block, and then reports endBlock as scanned.
func (w *DefaultMarketEventsWatcher) processRange(
	contractAddrs []common.Address,
	startBlock, endBlock uint64,
	batchesChan chan<- events.EventBatch,
	latestBlockChan chan<- uint64,
) error {
	var logs []types.Log
	err := w.retry("FilterLogs", func() error {
		var err error
		logs, err = fetchLogsInRange(w.ctx, w.client, contractAddrs, startBlock, endBlock)
		return err
	})
	if err != nil {
		zap.L().Error("Failed fetching logs",
			zap.Uint64("start", startBlock),
			zap.Uint64("end", endBlock),
			zap.Error(err),
		)
		return err
	}

	sortLogs(logs)
	blockGroups := groupLogsByBlock(logs)

	var blocksWithLogs []uint64
	for b := range blockGroups {
		blocksWithLogs = append(blocksWithLogs, b)
	}
	sort.Slice(blocksWithLogs, func(i, j int) bool {
		return blocksWithLogs[i] < blocksWithLogs[j]
	})

	var lastLogTime time.Time
	senders := make(map[common.Hash]string)

	for _, b := range blocksWithLogs {
		blockTime, err := w.blockTime(b)
		if err != nil {
			return err
		}

		if time.Since(lastLogTime) >= 10*time.Second {
			zap.L().Info("Market listener progress", zap.Uint64("currentlyOnBlock", b))
			lastLogTime = time.Now()
		}

		batch := events.EventBatch{BlockNumber: b}
		for _, lg := range blockGroups[b] {
			meta := events.Meta{
				BlockTime: blockTime,
				Sender:    w.sender(senders, lg),
			}
			ev, err := w.decoder.Decode(lg, meta)
			if err != nil {
				zap.L().Error("Skipping undecodable log", zap.Error(err))
				continue
			}
			if ev == nil {
				continue
			}
			batch.Events = append(batch.Events, ev)
		}
		if len(batch.Events) == 0 {
			continue
		}

		select {
		case batchesChan <- batch:
		case <-w.ctx.Done():
			return w.ctx.Err()
		}
	}

	select {
	case latestBlockChan <- endBlock:
	case <-w.ctx.Done():
		return w.ctx.Err()
	}
	return nil
}

func (w *DefaultMarketEventsWatcher) blockTime(block uint64) (uint64, error) {
	var header *types.Header
	err := w.retry("HeaderByNumber", func() error {
		var err error
		header, err = w.client.HeaderByNumber(w.ctx, new(big.Int).SetUint64(block))
		return err
	})
	if err != nil {
		zap.L().Error("Could not fetch block header", zap.Uint64("block", block), zap.Error(err))
		return 0, err
	}
	return header.Time, nil
}

// sender resolves the signer of the log's transaction. A failed lookup
// yields an empty sender so the event is still delivered.
func (w *DefaultMarketEventsWatcher) sender(cache map[common.Hash]string, lg types.Log) string {
	if s, ok := cache[lg.TxHash]; ok {
		return s
	}
	tx, err := w.client.TransactionInBlock(w.ctx, lg.BlockHash, lg.TxIndex)
	if err != nil {
		zap.L().Warn("Could not fetch transaction", zap.String("tx", lg.TxHash.Hex()), zap.Error(err))
		return ""
	}
	from, err := w.client.TransactionSender(w.ctx, tx, lg.BlockHash, lg.TxIndex)
	if err != nil {
		zap.L().Warn("Could not resolve transaction sender", zap.String("tx", lg.TxHash.Hex()), zap.Error(err))
		return ""
	}
	s := strings.ToLower(from.Hex())
	cache[lg.TxHash] = s
	return s
}

func (w *DefaultMarketEventsWatcher) retry(call string, operation func() error) error {
	attempt := 0
	notify := func(err error, next time.Duration) {
		attempt++
		zap.L().Warn("Ethereum node call failed, retrying",
			zap.String("call", call),
			zap.Int("attempt", attempt),
			zap.Duration("next", next),
			zap.Error(err),
		)
	}
	return backoff.RetryNotify(operation, backoff.WithContext(w.newBackOff(), w.ctx), notify)
}

func latestBlockNumber(ctx context.Context, client EthClient) (uint64, error) {
	header, err := client.HeaderByNumber(ctx, nil)
	if err != nil {
		zap.L().Error("Could not get latest block header", zap.Error(err))
		return 0, err
	}
	return header.Number.Uint64(), nil
}

func fetchLogsInRange(
	ctx context.Context,
	client EthClient,
	addresses []common.Address,
	startBlock, endBlock uint64,
) ([]types.Log, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(startBlock),
		ToBlock:   new(big.Int).SetUint64(endBlock),
		Addresses: addresses,
	}
	return client.FilterLogs(ctx, query)
}

func sortLogs(logs []types.Log) {
	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		if logs[i].TxIndex != logs[j].TxIndex {
			return logs[i].TxIndex < logs[j].TxIndex
		}
		return logs[i].Index < logs[j].Index
	})
}

func groupLogsByBlock(logs []types.Log) map[uint64][]types.Log {
	groups := make(map[uint64][]types.Log)
	for _, lg := range logs {
		if lg.Removed {
			continue
		}
		groups[lg.BlockNumber] = append(groups[lg.BlockNumber], lg)
	}
	return groups
}

func sleepInterrupted(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return true
	case <-timer.C:
		return false
	}
}
