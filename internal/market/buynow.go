package market

import (
	"github.com/6529-Collections/marketview/internal/market/entity"
	"github.com/6529-Collections/marketview/internal/market/ids"
	"github.com/6529-Collections/marketview/internal/store"
	"github.com/6529-Collections/marketview/pkg/market/events"
)

// onBuyPriceSet opens a buy-now listing, or reprices the asset's open one.
func (e *Engine) onBuyPriceSet(s *store.Session, ev events.BuyPriceSet) error {
	asset, err := LoadOrCreateAsset(s, ev.NFTContract, ev.TokenID)
	if err != nil {
		return err
	}
	if _, err := e.RemovePreviousTransferEvent(s, ev.Meta, asset.ID); err != nil {
		return err
	}
	seller, err := LoadOrCreateAccount(s, ev.Seller, ev.BlockTime)
	if err != nil {
		return err
	}

	listing, err := store.FindOne[entity.BuyNow](s, asset.ID, string(entity.BuyNowOpen))
	if err != nil {
		return err
	}
	if listing == nil {
		listing = &entity.BuyNow{
			ID:                     ids.BuyNow(asset.ID, ev.TxHash, ev.LogIndex),
			AssetID:                asset.ID,
			Status:                 entity.BuyNowOpen,
			Split:                  zeroSplit(),
			Position:               ids.Position(ev.BlockNumber, ev.TransactionIndex, ev.LogIndex),
			DateCreated:            ev.BlockTime,
			TransactionHashCreated: ev.TxHash,
		}
	}
	listing.SellerID = seller.ID
	listing.AmountInETH = entity.ETH(ev.Price)
	listing.IsPrimarySale = asset.IsFirstSale
	s.Upsert(listing)

	asset.MostRecentBuyNowID = listing.ID
	asset.OwnedOrListedByID = seller.ID
	s.Upsert(asset)

	recordHistory(s, ev.Meta, entity.HistoryBuyPriceSet, asset.ID, HistoryOptions{
		ActorID:  seller.ID,
		BuyNowID: listing.ID,
		Amount:   listing.AmountInETH,
	})
	return nil
}

func (e *Engine) onBuyPriceAccepted(s *store.Session, ev events.BuyPriceAccepted) error {
	assetID := ids.Asset(ev.NFTContract, ev.TokenID)
	listing, err := store.FindOne[entity.BuyNow](s, assetID, string(entity.BuyNowOpen))
	if err != nil {
		return err
	}
	if listing == nil {
		e.missingListing(s, ev.Meta, ev.EventName(), assetID)
		return nil
	}
	asset, err := store.Load[entity.Asset](s, assetID)
	if err != nil {
		return err
	}
	if asset == nil {
		e.invariantViolation(s, ev.Meta, "missing_entity", ErrMissingEntity)
		return nil
	}
	if _, err := e.RemovePreviousTransferEvent(s, ev.Meta, asset.ID); err != nil {
		return err
	}
	seller, err := LoadOrCreateAccount(s, ev.Seller, ev.BlockTime)
	if err != nil {
		return err
	}
	buyer, err := LoadOrCreateAccount(s, ev.Buyer, ev.BlockTime)
	if err != nil {
		return err
	}

	listing.Status = entity.BuyNowAccepted
	listing.SellerID = seller.ID
	listing.BuyerID = buyer.ID
	listing.IsPrimarySale = asset.IsFirstSale
	listing.DateAccepted = ev.BlockTime
	listing.TransactionHashAccepted = ev.TxHash
	if split, err := splitFromWei(ev.RevenueSplit); err == nil {
		listing.Split = split
		listing.AmountInETH = split.Total()
	}
	s.Upsert(listing)

	if err := e.checkSale(s, ev.Meta, asset, seller.ID, ev.RevenueSplit); err != nil {
		return err
	}
	asset.OwnedOrListedByID = buyer.ID
	s.Upsert(asset)

	recordHistory(s, ev.Meta, entity.HistoryBuyPriceAccepted, asset.ID, HistoryOptions{
		ActorID:  buyer.ID,
		TargetID: seller.ID,
		BuyNowID: listing.ID,
		Amount:   listing.AmountInETH,
	})
	recordHistory(s, ev.Meta, entity.HistoryTransferred, asset.ID, HistoryOptions{
		ActorID:  seller.ID,
		TargetID: buyer.ID,
		BuyNowID: listing.ID,
	})
	return nil
}

func (e *Engine) onBuyPriceCanceled(s *store.Session, ev events.BuyPriceCanceled) error {
	assetID := ids.Asset(ev.NFTContract, ev.TokenID)
	listing, err := store.FindOne[entity.BuyNow](s, assetID, string(entity.BuyNowOpen))
	if err != nil {
		return err
	}
	if listing == nil {
		e.missingListing(s, ev.Meta, ev.EventName(), assetID)
		return nil
	}
	if _, err := e.RemovePreviousTransferEvent(s, ev.Meta, assetID); err != nil {
		return err
	}

	listing.Status = entity.BuyNowCanceled
	listing.DateCanceled = ev.BlockTime
	listing.TransactionHashCanceled = ev.TxHash
	s.Upsert(listing)

	recordHistory(s, ev.Meta, entity.HistoryBuyPriceCanceled, assetID, HistoryOptions{
		ActorID:  listing.SellerID,
		BuyNowID: listing.ID,
		Amount:   listing.AmountInETH,
	})
	return nil
}

func (e *Engine) onBuyPriceInvalidated(s *store.Session, ev events.BuyPriceInvalidated) error {
	assetID := ids.Asset(ev.NFTContract, ev.TokenID)
	listing, err := store.FindOne[entity.BuyNow](s, assetID, string(entity.BuyNowOpen))
	if err != nil {
		return err
	}
	if listing == nil {
		e.missingListing(s, ev.Meta, ev.EventName(), assetID)
		return nil
	}

	listing.Status = entity.BuyNowInvalidated
	listing.DateInvalidated = ev.BlockTime
	listing.TransactionHashInvalidated = ev.TxHash
	s.Upsert(listing)

	recordHistory(s, ev.Meta, entity.HistoryBuyPriceInvalidated, assetID, HistoryOptions{
		ActorID:  listing.SellerID,
		BuyNowID: listing.ID,
		Amount:   listing.AmountInETH,
	})
	return nil
}
