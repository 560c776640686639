package market

import (
	"strings"

	"github.com/6529-Collections/marketview/internal/market/entity"
	"github.com/6529-Collections/marketview/internal/market/ids"
	"github.com/6529-Collections/marketview/internal/store"
	"github.com/6529-Collections/marketview/pkg/market/events"
	"go.uber.org/zap"
)

const (
	zeroAddress = "0x0000000000000000000000000000000000000000"
	deadAddress = "0x000000000000000000000000000000000000dead"
)

func isZero(address string) bool {
	return address == "" || strings.EqualFold(address, zeroAddress)
}

func isBurnAddress(address string) bool {
	return isZero(address) || strings.EqualFold(address, deadAddress)
}

// onTransfer tracks mints, burns and ownership. A plain transfer is written
// as a speculative Transferred record: when it is the escrow leg of a market
// action, the market event later in the transaction retracts it.
func (e *Engine) onTransfer(s *store.Session, ev events.Transfer) error {
	asset, err := LoadOrCreateAsset(s, ev.Contract, ev.TokenID)
	if err != nil {
		return err
	}
	from := ids.Account(ev.From)
	to := ids.Account(ev.To)

	switch {
	case isZero(from):
		asset.DateMinted = ev.BlockTime
		asset.OwnerID = to
		asset.OwnedOrListedByID = to
		recordHistory(s, ev.Meta, entity.HistoryMinted, asset.ID, HistoryOptions{ActorID: to})
	case isBurnAddress(to):
		asset.Burned = true
		asset.DateBurned = ev.BlockTime
		asset.OwnerID = to
		asset.OwnedOrListedByID = ""
		recordHistory(s, ev.Meta, entity.HistoryBurned, asset.ID, HistoryOptions{ActorID: from})
	default:
		asset.OwnerID = to
		if e.isMarket(to) {
			asset.OwnedOrListedByID = from
		} else {
			asset.OwnedOrListedByID = to
		}
		recordHistory(s, ev.Meta, entity.HistoryTransferred, asset.ID, HistoryOptions{
			ActorID:     from,
			TargetID:    to,
			Speculative: true,
		})
	}
	s.Upsert(asset)

	if !isZero(from) {
		if err := e.updateBalance(s, ev.Meta, from, -1); err != nil {
			return err
		}
	}
	if !isBurnAddress(to) {
		if err := e.updateBalance(s, ev.Meta, to, 1); err != nil {
			return err
		}
	}
	return nil
}

// updateBalance refreshes how many tokens of the event's contract account
// holds. The chain is asked first; if balanceOf reverts the stored count is
// moved by delta instead.
func (e *Engine) updateBalance(s *store.Session, meta events.Meta, accountID string, delta int64) error {
	if _, err := LoadOrCreateAccount(s, accountID, meta.BlockTime); err != nil {
		return err
	}
	id := ids.AccountCollection(accountID, meta.Contract)
	collection, err := store.Load[entity.AccountCollection](s, id)
	if err != nil {
		return err
	}
	if collection == nil {
		collection = &entity.AccountCollection{
			ID:        id,
			AccountID: accountID,
			Contract:  strings.ToLower(meta.Contract),
		}
	}
	collection.DateUpdated = meta.BlockTime

	if e.reader != nil {
		balance, err := e.reader.BalanceOf(s.Context(), meta.BlockNumber, meta.Contract, accountID)
		if err == nil && balance != nil && balance.IsInt64() {
			collection.Balance = balance.Int64()
			collection.BalanceFromChain = true
			s.Upsert(collection)
			return nil
		}
		zap.L().Warn("balanceOf reverted, deriving balance locally",
			zap.String("account", accountID),
			zap.String("contract", meta.Contract),
			zap.Error(err),
		)
	}
	s.AfterFlush(func() { e.metrics.ObserveDegradedRead("balanceOf") })
	collection.Balance += delta
	if collection.Balance < 0 {
		collection.Balance = 0
	}
	collection.BalanceFromChain = false
	s.Upsert(collection)
	return nil
}

// onMinted links an asset to its creator and publication.
func (e *Engine) onMinted(s *store.Session, ev events.Minted) error {
	asset, err := LoadOrCreateAsset(s, ev.Contract, ev.TokenID)
	if err != nil {
		return err
	}
	creator, err := LoadOrCreateCreator(s, ev.Creator, ev.BlockTime)
	if err != nil {
		return err
	}
	previousCreatorID := ""
	if !isZero(ev.PreviousCreator) {
		previous, err := LoadOrCreateCreator(s, ev.PreviousCreator, ev.BlockTime)
		if err != nil {
			return err
		}
		previousCreatorID = previous.ID
	}

	if asset.CreatorID != creator.ID {
		asset.CreatorID = creator.ID
		creator.AssetCount++
		s.Upsert(creator)
	}

	if ev.PublicationID != nil {
		publication, err := LoadOrCreatePublication(s, ev.Contract, ev.PublicationID, creator.ID, previousCreatorID, ev.BlockTime)
		if err != nil {
			return err
		}
		if asset.PublicationID != publication.ID {
			asset.PublicationID = publication.ID
			publication.AssetCount++
			s.Upsert(publication)
		}
	}
	if asset.DateMinted == 0 {
		asset.DateMinted = ev.BlockTime
	}
	s.Upsert(asset)
	return nil
}

func (e *Engine) onApprovalForAll(s *store.Session, ev events.ApprovalForAll) error {
	id := ids.Approval(ev.Contract, ev.Owner, ev.Operator)
	if !ev.Approved {
		s.Remove(entity.KindApproval, id)
		return nil
	}
	if _, err := LoadOrCreateAccount(s, ev.Owner, ev.BlockTime); err != nil {
		return err
	}
	s.Upsert(&entity.Approval{
		ID:          id,
		Contract:    strings.ToLower(ev.Contract),
		OwnerID:     ids.Account(ev.Owner),
		OperatorID:  ids.Account(ev.Operator),
		DateGranted: ev.BlockTime,
		TxHash:      ev.TxHash,
	})
	return nil
}
