// Package market turns the ordered stream of marketplace and token events
// into the materialized view: listings and their state machines, the revenue
// ledger and the asset history.
package market

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/6529-Collections/marketview/internal/market/entity"
	"github.com/6529-Collections/marketview/internal/market/ids"
	"github.com/6529-Collections/marketview/internal/metrics"
	"github.com/6529-Collections/marketview/internal/store"
	"github.com/6529-Collections/marketview/pkg/market/events"
	"go.uber.org/zap"
)

// ContractReader answers read-only questions the event payloads leave open.
// Both calls may revert.
type ContractReader interface {
	GetFees(ctx context.Context, blockNumber uint64, market string, nftContract string, tokenID *big.Int, price *big.Int) (events.RevenueSplit, error)
	BalanceOf(ctx context.Context, blockNumber uint64, contract string, owner string) (*big.Int, error)
}

type Config struct {
	// MarketContracts hold assets in escrow while they are listed.
	MarketContracts []string
	// TransferScanDepth bounds RemovePreviousTransferEvent; 0 scans to log index 0.
	TransferScanDepth uint64
}

type Engine struct {
	backend store.Backend
	reader  ContractReader
	cfg     Config
	metrics *metrics.EngineMetrics
	markets map[string]bool
}

func NewEngine(backend store.Backend, reader ContractReader, cfg Config) *Engine {
	markets := make(map[string]bool, len(cfg.MarketContracts))
	for _, m := range cfg.MarketContracts {
		markets[strings.ToLower(m)] = true
	}
	return &Engine{
		backend: backend,
		reader:  reader,
		cfg:     cfg,
		metrics: metrics.Engine(),
		markets: markets,
	}
}

func (e *Engine) isMarket(address string) bool {
	return e.markets[strings.ToLower(address)]
}

// Handle applies one event. Every write of the event, the processed marker
// and the checkpoint are flushed together, so a redelivered event is skipped
// and a failed one leaves no trace. Only storage errors are returned.
func (e *Engine) Handle(ctx context.Context, event events.Event) error {
	meta := event.EventMeta()
	name := event.EventName()
	s := store.NewSession(ctx, e.backend)

	markerID := ids.ProcessedEvent(meta.TxHash, meta.LogIndex)
	marker, err := store.Load[entity.ProcessedEvent](s, markerID)
	if err != nil {
		return err
	}
	if marker != nil {
		zap.L().Debug("Skipping already processed event",
			zap.String("event", name),
			zap.String("tx", meta.TxHash),
			zap.Uint64("logIndex", meta.LogIndex),
		)
		e.metrics.ObserveDuplicateEvent()
		return nil
	}

	known, err := e.route(s, event)
	if err != nil {
		return fmt.Errorf("failed to handle %s at block %d tx %s log %d: %w",
			name, meta.BlockNumber, meta.TxHash, meta.LogIndex, err)
	}
	if !known {
		zap.L().Warn("Ignoring unknown event", zap.String("event", name), zap.String("tx", meta.TxHash))
		return nil
	}

	s.Upsert(&entity.ProcessedEvent{ID: markerID, EventName: name, BlockNumber: meta.BlockNumber})
	if err := e.moveCheckpoint(s, meta); err != nil {
		return err
	}
	if err := s.Flush(); err != nil {
		return err
	}
	e.metrics.ObserveEventProcessed(name)
	return nil
}

func (e *Engine) route(s *store.Session, event events.Event) (bool, error) {
	switch ev := event.(type) {
	case events.Transfer:
		return true, e.onTransfer(s, ev)
	case events.Minted:
		return true, e.onMinted(s, ev)
	case events.ApprovalForAll:
		return true, e.onApprovalForAll(s, ev)
	case events.BuyPriceSet:
		return true, e.onBuyPriceSet(s, ev)
	case events.BuyPriceAccepted:
		return true, e.onBuyPriceAccepted(s, ev)
	case events.BuyPriceCanceled:
		return true, e.onBuyPriceCanceled(s, ev)
	case events.BuyPriceInvalidated:
		return true, e.onBuyPriceInvalidated(s, ev)
	case events.ReserveAuctionCreated:
		return true, e.onReserveAuctionCreated(s, ev)
	case events.ReserveAuctionBidPlaced:
		return true, e.onReserveAuctionBidPlaced(s, ev)
	case events.ReserveAuctionUpdated:
		return true, e.onReserveAuctionUpdated(s, ev)
	case events.ReserveAuctionCanceled:
		return true, e.onReserveAuctionCanceled(s, ev.Meta, ev.AuctionID, "")
	case events.ReserveAuctionCanceledByAdmin:
		return true, e.onReserveAuctionCanceled(s, ev.Meta, ev.AuctionID, ev.Reason)
	case events.ReserveAuctionFinalized:
		return true, e.onReserveAuctionFinalized(s, ev)
	case events.ReserveAuctionInvalidated:
		return true, e.onReserveAuctionInvalidated(s, ev)
	case events.OfferMade:
		return true, e.onOfferMade(s, ev)
	case events.OfferAccepted:
		return true, e.onOfferAccepted(s, ev)
	case events.OfferInvalidated:
		return true, e.onOfferInvalidated(s, ev)
	default:
		return false, nil
	}
}

func (e *Engine) moveCheckpoint(s *store.Session, meta events.Meta) error {
	checkpoint, err := store.Load[entity.Checkpoint](s, entity.CheckpointID)
	if err != nil {
		return err
	}
	if checkpoint == nil {
		checkpoint = &entity.Checkpoint{ID: entity.CheckpointID}
	}
	current := events.Meta{
		BlockNumber:      checkpoint.BlockNumber,
		TransactionIndex: checkpoint.TransactionIndex,
		LogIndex:         checkpoint.LogIndex,
	}
	if !current.Before(meta) {
		return nil
	}
	checkpoint.BlockNumber = meta.BlockNumber
	checkpoint.TransactionIndex = meta.TransactionIndex
	checkpoint.LogIndex = meta.LogIndex
	s.Upsert(checkpoint)
	return nil
}

// Checkpoint returns the position of the last applied event, and false when
// nothing was applied yet.
func (e *Engine) Checkpoint(ctx context.Context) (entity.Checkpoint, bool, error) {
	checkpoint, err := store.Get[entity.Checkpoint](ctx, e.backend, entity.CheckpointID)
	if errors.Is(err, store.ErrNotFound) {
		return entity.Checkpoint{}, false, nil
	}
	if err != nil {
		return entity.Checkpoint{}, false, err
	}
	return *checkpoint, true, nil
}

// AdvanceTo records that every block up to blockNumber was scanned, even when
// it carried no events.
func (e *Engine) AdvanceTo(ctx context.Context, blockNumber uint64) error {
	s := store.NewSession(ctx, e.backend)
	checkpoint, err := store.Load[entity.Checkpoint](s, entity.CheckpointID)
	if err != nil {
		return err
	}
	if checkpoint == nil {
		checkpoint = &entity.Checkpoint{ID: entity.CheckpointID}
	}
	if checkpoint.BlockNumber >= blockNumber {
		return nil
	}
	checkpoint.BlockNumber = blockNumber
	checkpoint.TransactionIndex = 0
	checkpoint.LogIndex = 0
	s.Upsert(checkpoint)
	return s.Flush()
}

// missingListing reports a closing event with nothing to close. These are
// expected: the event may belong to a listing that was already closed.
func (e *Engine) missingListing(s *store.Session, meta events.Meta, event string, assetID string) {
	zap.L().Debug("No open listing for closing event",
		zap.String("event", event),
		zap.String("asset", assetID),
		zap.String("tx", meta.TxHash),
		zap.Uint64("logIndex", meta.LogIndex),
	)
	s.AfterFlush(func() { e.metrics.ObserveMissingListing(event) })
}

// invariantViolation reports a drift between on-chain amounts and the view.
// The event is still considered processed.
func (e *Engine) invariantViolation(s *store.Session, meta events.Meta, kind string, err error, fields ...zap.Field) {
	fields = append(fields,
		zap.String("kind", kind),
		zap.String("tx", meta.TxHash),
		zap.Uint64("block", meta.BlockNumber),
		zap.Uint64("logIndex", meta.LogIndex),
		zap.Error(err),
	)
	zap.L().Error("Invariant violation in derived market state", fields...)
	s.AfterFlush(func() { e.metrics.ObserveInvariantViolation(kind) })
}

// checkSale records a sale and downgrades invariant errors to a report.
func (e *Engine) checkSale(s *store.Session, meta events.Meta, asset *entity.Asset, sellerID string, revenue events.RevenueSplit) error {
	err := RecordSale(s, asset, sellerID, revenue, meta.BlockTime)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrIncompleteRevenue):
		e.invariantViolation(s, meta, "incomplete_revenue", err, zap.String("asset", asset.ID))
		return nil
	case errors.Is(err, ErrMissingEntity):
		e.invariantViolation(s, meta, "missing_entity", err, zap.String("asset", asset.ID))
		return nil
	default:
		return err
	}
}

// feesFor asks the market how a bid of price would be split. A reverted call
// degrades to a zero split.
func (e *Engine) feesFor(s *store.Session, meta events.Meta, asset *entity.Asset, price *big.Int) entity.Split {
	if e.reader == nil {
		s.AfterFlush(func() { e.metrics.ObserveDegradedRead("getFees") })
		return zeroSplit()
	}
	revenue, err := e.reader.GetFees(s.Context(), meta.BlockNumber, meta.Contract, asset.Contract, assetTokenID(asset), price)
	if err == nil {
		var split entity.Split
		split, err = splitFromWei(revenue)
		if err == nil {
			return split
		}
	}
	zap.L().Warn("getFees reverted, using zero split",
		zap.String("asset", asset.ID),
		zap.String("price", price.String()),
		zap.Error(err),
	)
	s.AfterFlush(func() { e.metrics.ObserveDegradedRead("getFees") })
	return zeroSplit()
}
