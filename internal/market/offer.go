package market

import (
	"github.com/6529-Collections/marketview/internal/market/entity"
	"github.com/6529-Collections/marketview/internal/market/ids"
	"github.com/6529-Collections/marketview/internal/store"
	"github.com/6529-Collections/marketview/pkg/market/events"
)

// supersedeOffer closes the asset's open offer before a new one is recorded.
// An offer past its expiry becomes Expired; otherwise it is Outbid by
// newOfferID. The result is true when the same buyer raised their own offer.
func (e *Engine) supersedeOffer(s *store.Session, meta events.Meta, prior *entity.Offer, newOfferID string, buyerID string) (bool, error) {
	if err := releaseEscrow(s, prior.BuyerID, prior.AmountInETH, meta.BlockTime); err != nil {
		return false, err
	}
	prior.DateLeftActive = meta.BlockTime

	if prior.DateExpires < meta.BlockTime {
		prior.Status = entity.OfferExpired
		s.Upsert(prior)
		recordHistory(s, meta, entity.HistoryOfferExpired, prior.AssetID, HistoryOptions{
			ActorID: prior.BuyerID,
			OfferID: prior.ID,
			Amount:  prior.AmountInETH,
		})
		return false, nil
	}

	prior.Status = entity.OfferOutbid
	prior.OutbidByID = newOfferID
	s.Upsert(prior)
	return prior.BuyerID == buyerID, nil
}

func (e *Engine) onOfferMade(s *store.Session, ev events.OfferMade) error {
	asset, err := LoadOrCreateAsset(s, ev.NFTContract, ev.TokenID)
	if err != nil {
		return err
	}
	buyer, err := LoadOrCreateAccount(s, ev.Buyer, ev.BlockTime)
	if err != nil {
		return err
	}

	offer := &entity.Offer{
		ID:                     ids.Offer(asset.ID, ev.TxHash, ev.LogIndex),
		AssetID:                asset.ID,
		Status:                 entity.OfferOpen,
		BuyerID:                buyer.ID,
		AmountInETH:            entity.ETH(ev.Amount),
		DateExpires:            uint64Of(ev.Expiration),
		IsPrimarySale:          asset.IsFirstSale,
		Split:                  zeroSplit(),
		Position:               ids.Position(ev.BlockNumber, ev.TransactionIndex, ev.LogIndex),
		DateCreated:            ev.BlockTime,
		TransactionHashCreated: ev.TxHash,
	}

	prior, err := store.FindOne[entity.Offer](s, asset.ID, string(entity.OfferOpen))
	if err != nil {
		return err
	}
	isIncrease := false
	if prior != nil && prior.ID != offer.ID {
		isIncrease, err = e.supersedeOffer(s, ev.Meta, prior, offer.ID, buyer.ID)
		if err != nil {
			return err
		}
		if prior.Status == entity.OfferOutbid {
			offer.OfferOutbidID = prior.ID
		}
	}

	if err := lockEscrow(s, buyer.ID, offer.AmountInETH, ev.BlockTime); err != nil {
		return err
	}
	s.Upsert(offer)

	asset.MostRecentOfferID = offer.ID
	s.Upsert(asset)

	kind := entity.HistoryOfferMade
	if isIncrease {
		kind = entity.HistoryOfferChanged
	}
	recordHistory(s, ev.Meta, kind, asset.ID, HistoryOptions{
		ActorID: buyer.ID,
		OfferID: offer.ID,
		Amount:  offer.AmountInETH,
	})
	return nil
}

func (e *Engine) onOfferAccepted(s *store.Session, ev events.OfferAccepted) error {
	assetID := ids.Asset(ev.NFTContract, ev.TokenID)
	offer, err := store.FindOne[entity.Offer](s, assetID, string(entity.OfferOpen))
	if err != nil {
		return err
	}
	if offer == nil {
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

	offer.Status = entity.OfferAccepted
	offer.SellerID = seller.ID
	offer.IsPrimarySale = asset.IsFirstSale
	offer.DateAccepted = ev.BlockTime
	offer.DateLeftActive = ev.BlockTime
	offer.TransactionHashAccepted = ev.TxHash
	if split, err := splitFromWei(ev.RevenueSplit); err == nil {
		offer.Split = split
	}
	if err := releaseEscrow(s, offer.BuyerID, offer.AmountInETH, ev.BlockTime); err != nil {
		return err
	}
	s.Upsert(offer)

	if err := e.checkSale(s, ev.Meta, asset, seller.ID, ev.RevenueSplit); err != nil {
		return err
	}
	asset.OwnedOrListedByID = offer.BuyerID
	s.Upsert(asset)

	recordHistory(s, ev.Meta, entity.HistoryOfferAccepted, asset.ID, HistoryOptions{
		ActorID:  seller.ID,
		TargetID: offer.BuyerID,
		OfferID:  offer.ID,
		Amount:   offer.AmountInETH,
	})
	recordHistory(s, ev.Meta, entity.HistoryTransferred, asset.ID, HistoryOptions{
		ActorID:  seller.ID,
		TargetID: offer.BuyerID,
		OfferID:  offer.ID,
	})
	return nil
}

func (e *Engine) onOfferInvalidated(s *store.Session, ev events.OfferInvalidated) error {
	assetID := ids.Asset(ev.NFTContract, ev.TokenID)
	offer, err := store.FindOne[entity.Offer](s, assetID, string(entity.OfferOpen))
	if err != nil {
		return err
	}
	if offer == nil {
		e.missingListing(s, ev.Meta, ev.EventName(), assetID)
		return nil
	}

	offer.Status = entity.OfferInvalidated
	offer.DateInvalidated = ev.BlockTime
	offer.DateLeftActive = ev.BlockTime
	offer.TransactionHashInvalidated = ev.TxHash
	if err := releaseEscrow(s, offer.BuyerID, offer.AmountInETH, ev.BlockTime); err != nil {
		return err
	}
	s.Upsert(offer)

	recordHistory(s, ev.Meta, entity.HistoryOfferInvalidated, assetID, HistoryOptions{
		ActorID: offer.BuyerID,
		OfferID: offer.ID,
		Amount:  offer.AmountInETH,
	})
	return nil
}
