package market

import (
	"math/big"

	"github.com/6529-Collections/marketview/internal/market/entity"
	"github.com/6529-Collections/marketview/internal/market/ids"
	"github.com/6529-Collections/marketview/internal/store"
	"github.com/6529-Collections/marketview/pkg/market/events"
	"go.uber.org/zap"
)

func uint64Of(n *big.Int) uint64 {
	if n == nil || !n.IsUint64() {
		return 0
	}
	return n.Uint64()
}

// loadOpenAuction returns the auction and its asset, or nils when the auction
// is unknown or no longer open.
func (e *Engine) loadOpenAuction(s *store.Session, meta events.Meta, event string, auctionID *big.Int) (*entity.Auction, *entity.Asset, error) {
	id := ids.Auction(meta.Contract, auctionID)
	auction, err := store.Load[entity.Auction](s, id)
	if err != nil {
		return nil, nil, err
	}
	if auction == nil || auction.Status != entity.AuctionOpen {
		e.missingListing(s, meta, event, id)
		return nil, nil, nil
	}
	asset, err := store.Load[entity.Asset](s, auction.AssetID)
	if err != nil {
		return nil, nil, err
	}
	if asset == nil {
		e.invariantViolation(s, meta, "missing_entity", ErrMissingEntity,
			zap.String("auction", auction.ID), zap.String("asset", auction.AssetID))
		return nil, nil, nil
	}
	return auction, asset, nil
}

func (e *Engine) onReserveAuctionCreated(s *store.Session, ev events.ReserveAuctionCreated) error {
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

	auction := &entity.Auction{
		ID:                     ids.Auction(ev.Contract, ev.AuctionID),
		AuctionID:              ev.AuctionID.String(),
		AssetID:                asset.ID,
		Status:                 entity.AuctionOpen,
		SellerID:               seller.ID,
		Duration:               uint64Of(ev.Duration),
		ExtensionDuration:      uint64Of(ev.ExtensionDuration),
		ReservePriceInETH:      entity.ETH(ev.ReservePrice),
		BidVolumeInETH:         entity.ETH(nil),
		IsPrimarySale:          asset.IsFirstSale,
		Split:                  zeroSplit(),
		Position:               ids.Position(ev.BlockNumber, ev.TransactionIndex, ev.LogIndex),
		DateCreated:            ev.BlockTime,
		TransactionHashCreated: ev.TxHash,
	}
	s.Upsert(auction)

	asset.MostRecentAuctionID = auction.ID
	asset.OwnedOrListedByID = seller.ID
	s.Upsert(asset)

	recordHistory(s, ev.Meta, entity.HistoryListed, asset.ID, HistoryOptions{
		ActorID:   seller.ID,
		AuctionID: auction.ID,
		Amount:    auction.ReservePriceInETH,
	})
	return nil
}

// onReserveAuctionBidPlaced starts the clock on the first bid. A later bid
// supersedes the highest one: its pending revenue is reversed, its escrow
// released, and the auction is extended when the bid landed inside the
// extension window.
func (e *Engine) onReserveAuctionBidPlaced(s *store.Session, ev events.ReserveAuctionBidPlaced) error {
	auction, asset, err := e.loadOpenAuction(s, ev.Meta, ev.EventName(), ev.AuctionID)
	if err != nil || auction == nil {
		return err
	}
	bidder, err := LoadOrCreateAccount(s, ev.Bidder, ev.BlockTime)
	if err != nil {
		return err
	}

	bid := &entity.Bid{
		ID:              ids.Bid(auction.ID, ev.TxHash, ev.LogIndex),
		AuctionID:       auction.ID,
		AssetID:         asset.ID,
		BidderID:        bidder.ID,
		AmountInETH:     entity.ETH(ev.Amount),
		Status:          entity.BidHighest,
		Position:        ids.Position(ev.BlockNumber, ev.TransactionIndex, ev.LogIndex),
		DatePlaced:      ev.BlockTime,
		TransactionHash: ev.TxHash,
	}

	previous, err := e.loadHighestBid(s, auction)
	if err != nil {
		return err
	}
	if previous == nil {
		auction.DateStarted = ev.BlockTime
		auction.DateEnding = bidEndTime(ev, ev.BlockTime+auction.Duration)
		auction.InitialBidID = bid.ID
	} else {
		if err := e.supersedeBid(s, ev.Meta, auction, asset, previous, bid.ID); err != nil {
			return err
		}
		bid.BidThisOutbidID = previous.ID
		fallback := auction.DateEnding
		if fallback < ev.BlockTime+auction.ExtensionDuration {
			fallback = ev.BlockTime + auction.ExtensionDuration
		}
		ending := bidEndTime(ev, fallback)
		if ending != auction.DateEnding {
			auction.DateEnding = ending
			bid.ExtendedAuction = true
		}
	}

	split := e.feesFor(s, ev.Meta, asset, ev.Amount)
	err = addPending(s, asset, auction.SellerID, split, ev.BlockTime)
	switch {
	case err == nil:
		bid.PendingSplit = split
	case isInvariant(err):
		e.invariantViolation(s, ev.Meta, "missing_entity", err, zap.String("auction", auction.ID))
		bid.PendingSplit = zeroSplit()
	default:
		return err
	}
	if err := lockEscrow(s, bidder.ID, bid.AmountInETH, ev.BlockTime); err != nil {
		return err
	}
	s.Upsert(bid)

	auction.HighestBidID = bid.ID
	auction.NumberOfBids++
	auction.BidVolumeInETH = auction.BidVolumeInETH.Add(bid.AmountInETH)
	s.Upsert(auction)

	recordHistory(s, ev.Meta, entity.HistoryBid, asset.ID, HistoryOptions{
		ActorID:   bidder.ID,
		AuctionID: auction.ID,
		Amount:    bid.AmountInETH,
	})
	return nil
}

// bidEndTime is the end time the market emitted with the bid, or fallback
// when the event carries none.
func bidEndTime(ev events.ReserveAuctionBidPlaced, fallback uint64) uint64 {
	if ev.EndTime != nil && ev.EndTime.IsUint64() && ev.EndTime.Sign() > 0 {
		return ev.EndTime.Uint64()
	}
	return fallback
}

func (e *Engine) loadHighestBid(s *store.Session, auction *entity.Auction) (*entity.Bid, error) {
	if auction.HighestBidID == "" {
		return nil, nil
	}
	return store.Load[entity.Bid](s, auction.HighestBidID)
}

// supersedeBid marks the highest bid as outbid by outbidByID, or as merely
// left behind when outbidByID is empty, and undoes its pending revenue and
// escrow in the same step.
func (e *Engine) supersedeBid(s *store.Session, meta events.Meta, auction *entity.Auction, asset *entity.Asset, bid *entity.Bid, outbidByID string) error {
	bid.Status = entity.BidOutbid
	bid.OutbidByID = outbidByID
	bid.DateLeftActive = meta.BlockTime
	if err := e.reverseBidPending(s, meta, auction, asset, bid); err != nil {
		return err
	}
	if err := releaseEscrow(s, bid.BidderID, bid.AmountInETH, meta.BlockTime); err != nil {
		return err
	}
	s.Upsert(bid)
	return nil
}

func (e *Engine) reverseBidPending(s *store.Session, meta events.Meta, auction *entity.Auction, asset *entity.Asset, bid *entity.Bid) error {
	err := reversePending(s, asset, auction.SellerID, bid.PendingSplit, meta.BlockTime)
	if err != nil && isInvariant(err) {
		e.invariantViolation(s, meta, "missing_entity", err, zap.String("bid", bid.ID))
		return nil
	}
	if err == nil {
		bid.PendingSplit = zeroSplit()
	}
	return err
}

func (e *Engine) onReserveAuctionUpdated(s *store.Session, ev events.ReserveAuctionUpdated) error {
	auction, asset, err := e.loadOpenAuction(s, ev.Meta, ev.EventName(), ev.AuctionID)
	if err != nil || auction == nil {
		return err
	}
	auction.ReservePriceInETH = entity.ETH(ev.ReservePrice)
	s.Upsert(auction)

	recordHistory(s, ev.Meta, entity.HistoryPriceChanged, asset.ID, HistoryOptions{
		ActorID:   auction.SellerID,
		AuctionID: auction.ID,
		Amount:    auction.ReservePriceInETH,
	})
	return nil
}

// onReserveAuctionCanceled handles both seller and admin cancellation; reason
// is empty for the former.
func (e *Engine) onReserveAuctionCanceled(s *store.Session, meta events.Meta, auctionID *big.Int, reason string) error {
	event := "ReserveAuctionCanceled"
	if reason != "" {
		event = "ReserveAuctionCanceledByAdmin"
	}
	auction, asset, err := e.loadOpenAuction(s, meta, event, auctionID)
	if err != nil || auction == nil {
		return err
	}
	if _, err := e.RemovePreviousTransferEvent(s, meta, asset.ID); err != nil {
		return err
	}
	if err := e.closeAuction(s, meta, auction, asset); err != nil {
		return err
	}
	auction.Status = entity.AuctionCanceled
	auction.CanceledReason = reason
	auction.DateCanceled = meta.BlockTime
	auction.TransactionHashCanceled = meta.TxHash
	s.Upsert(auction)

	actor := auction.SellerID
	if reason != "" && meta.Sender != "" {
		actor = ids.Account(meta.Sender)
	}
	recordHistory(s, meta, entity.HistoryUnlisted, asset.ID, HistoryOptions{
		ActorID:   actor,
		AuctionID: auction.ID,
		Amount:    auction.ReservePriceInETH,
	})
	return nil
}

func (e *Engine) onReserveAuctionInvalidated(s *store.Session, ev events.ReserveAuctionInvalidated) error {
	auction, asset, err := e.loadOpenAuction(s, ev.Meta, ev.EventName(), ev.AuctionID)
	if err != nil || auction == nil {
		return err
	}
	if err := e.closeAuction(s, ev.Meta, auction, asset); err != nil {
		return err
	}
	auction.Status = entity.AuctionInvalidated
	auction.DateInvalidated = ev.BlockTime
	auction.TransactionHashInvalidated = ev.TxHash
	s.Upsert(auction)

	recordHistory(s, ev.Meta, entity.HistoryAuctionInvalidated, asset.ID, HistoryOptions{
		ActorID:   auction.SellerID,
		AuctionID: auction.ID,
	})
	return nil
}

// closeAuction ends an auction without a sale: a standing bid leaves its
// pending revenue and escrow, and the asset points back at its last finalized
// auction.
func (e *Engine) closeAuction(s *store.Session, meta events.Meta, auction *entity.Auction, asset *entity.Asset) error {
	highest, err := e.loadHighestBid(s, auction)
	if err != nil {
		return err
	}
	if highest != nil && highest.Status == entity.BidHighest {
		if err := e.supersedeBid(s, meta, auction, asset, highest, ""); err != nil {
			return err
		}
	}
	asset.MostRecentAuctionID = asset.LatestFinalizedAuctionID
	s.Upsert(asset)
	return nil
}

// onReserveAuctionFinalized turns the winning bid's pending revenue into a
// realized sale and writes the Sold and Settled records.
func (e *Engine) onReserveAuctionFinalized(s *store.Session, ev events.ReserveAuctionFinalized) error {
	auction, asset, err := e.loadOpenAuction(s, ev.Meta, ev.EventName(), ev.AuctionID)
	if err != nil || auction == nil {
		return err
	}
	winner, err := e.loadHighestBid(s, auction)
	if err != nil {
		return err
	}
	if winner == nil {
		e.missingListing(s, ev.Meta, ev.EventName(), auction.ID)
		return nil
	}
	if _, err := e.RemovePreviousTransferEvent(s, ev.Meta, asset.ID); err != nil {
		return err
	}

	if err := e.reverseBidPending(s, ev.Meta, auction, asset, winner); err != nil {
		return err
	}
	sellerID := auction.SellerID
	if ev.Seller != "" {
		sellerID = ids.Account(ev.Seller)
	}
	isPrimarySale := asset.IsFirstSale
	if err := e.checkSale(s, ev.Meta, asset, sellerID, ev.RevenueSplit); err != nil {
		return err
	}
	if err := releaseEscrow(s, winner.BidderID, winner.AmountInETH, ev.BlockTime); err != nil {
		return err
	}
	winner.Status = entity.BidFinalizedWinner
	winner.DateLeftActive = ev.BlockTime
	s.Upsert(winner)

	auction.Status = entity.AuctionFinalized
	auction.BuyerID = winner.BidderID
	auction.IsPrimarySale = isPrimarySale
	if split, err := splitFromWei(ev.RevenueSplit); err == nil {
		auction.Split = split
	}
	auction.DateFinalized = ev.BlockTime
	auction.TransactionHashFinalized = ev.TxHash
	s.Upsert(auction)

	asset.LatestFinalizedAuctionID = auction.ID
	asset.OwnedOrListedByID = winner.BidderID
	s.Upsert(asset)

	settler := winner.BidderID
	if ev.Sender != "" {
		settler = ids.Account(ev.Sender)
	}
	recordHistory(s, ev.Meta, entity.HistorySold, asset.ID, HistoryOptions{
		ActorID:   sellerID,
		TargetID:  winner.BidderID,
		AuctionID: auction.ID,
		Amount:    winner.AmountInETH,
		Date:      winner.DatePlaced,
	})
	recordHistory(s, ev.Meta, entity.HistorySettled, asset.ID, HistoryOptions{
		ActorID:   settler,
		TargetID:  winner.BidderID,
		AuctionID: auction.ID,
		Amount:    winner.AmountInETH,
	})
	return nil
}
