package market

import (
	"fmt"

	"github.com/6529-Collections/marketview/internal/market/entity"
	"github.com/6529-Collections/marketview/internal/market/ids"
	"github.com/6529-Collections/marketview/internal/store"
	"github.com/6529-Collections/marketview/pkg/market/events"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// HistoryOptions describes one history record. Zero values are the defaults:
// no counterparty, no listing references, a zero amount, dated at the block
// time of the event and not speculative.
type HistoryOptions struct {
	ActorID   string
	TargetID  string
	AuctionID string
	OfferID   string
	BuyNowID  string
	Amount    decimal.Decimal
	// Date back-dates the record, e.g. a sale dated at its winning bid.
	Date        uint64
	Speculative bool
}

// historySequence orders records of different kinds written at the same log
// position. Unlisted kinds sort first.
var historySequence = map[entity.HistoryKind]int{
	entity.HistorySettled:      1,
	entity.HistoryOfferMade:    1,
	entity.HistoryOfferChanged: 1,
	entity.HistoryTransferred:  1,
}

func historyPosition(meta events.Meta, kind entity.HistoryKind) string {
	return fmt.Sprintf("%s:%d", ids.Position(meta.BlockNumber, meta.TransactionIndex, meta.LogIndex), historySequence[kind])
}

func recordHistory(s *store.Session, meta events.Meta, kind entity.HistoryKind, assetID string, opts HistoryOptions) *entity.HistoryRecord {
	date := opts.Date
	if date == 0 {
		date = meta.BlockTime
	}
	record := &entity.HistoryRecord{
		ID:          ids.History(string(kind), meta.TxHash, meta.LogIndex),
		Kind:        kind,
		AssetID:     assetID,
		ActorID:     opts.ActorID,
		TargetID:    opts.TargetID,
		AuctionID:   opts.AuctionID,
		OfferID:     opts.OfferID,
		BuyNowID:    opts.BuyNowID,
		AmountInETH: opts.Amount,
		Date:        date,
		Contract:    meta.Contract,
		TxHash:      meta.TxHash,
		BlockNumber: meta.BlockNumber,
		LogIndex:    meta.LogIndex,
		Position:    historyPosition(meta, kind),
		Speculative: opts.Speculative,
	}
	s.Upsert(record)
	return record
}

// RemovePreviousTransferEvent deletes the nearest speculative Transferred
// record of assetID written earlier in the same transaction. It looks back
// at most TransferScanDepth log positions and removes at most one record per
// event: a second call for the same event is a no-op.
func (e *Engine) RemovePreviousTransferEvent(s *store.Session, meta events.Meta, assetID string) (bool, error) {
	retractionID := ids.ProcessedEvent(meta.TxHash, meta.LogIndex)
	done, err := store.Load[entity.TransferRetraction](s, retractionID)
	if err != nil {
		return false, err
	}
	if done != nil {
		return false, nil
	}

	lowest := uint64(0)
	if depth := e.cfg.TransferScanDepth; depth > 0 && meta.LogIndex > depth {
		lowest = meta.LogIndex - depth
	}
	for logIndex := meta.LogIndex; logIndex > lowest; logIndex-- {
		id := ids.History(string(entity.HistoryTransferred), meta.TxHash, logIndex-1)
		record, err := store.Load[entity.HistoryRecord](s, id)
		if err != nil {
			return false, err
		}
		if record == nil || !record.Speculative || record.AssetID != assetID {
			continue
		}
		s.Remove(entity.KindHistory, id)
		s.Upsert(&entity.TransferRetraction{ID: retractionID, HistoryRecordID: id})
		s.AfterFlush(e.metrics.ObserveHistoryDedupRemoved)
		zap.L().Debug("Removed speculative transfer history",
			zap.String("asset", assetID),
			zap.String("tx", meta.TxHash),
			zap.Uint64("logIndex", logIndex-1),
		)
		return true, nil
	}
	return false, nil
}
