package market

import (
	"errors"
	"math/big"
	"testing"

	"github.com/6529-Collections/marketview/internal/market/entity"
	"github.com/6529-Collections/marketview/internal/market/ids"
	"github.com/6529-Collections/marketview/internal/metrics"
	"github.com/6529-Collections/marketview/pkg/market/events"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *harness) createAuction(tokenID int64, auctionID int64, reserve int64, duration, extension int64) string {
	h.newTx(60)
	h.transfer(creatorAddr, marketAddr, tokenID)
	h.handle(events.ReserveAuctionCreated{
		Meta:              h.meta(marketAddr),
		Seller:            creatorAddr,
		NFTContract:       nftAddr,
		TokenID:           big.NewInt(tokenID),
		Duration:          big.NewInt(duration),
		ExtensionDuration: big.NewInt(extension),
		ReservePrice:      eth(reserve),
		AuctionID:         big.NewInt(auctionID),
	})
	return ids.Auction(marketAddr, big.NewInt(auctionID))
}

func (h *harness) bid(auctionID int64, bidder string, amount int64, afterSeconds uint64) string {
	h.newTx(afterSeconds)
	meta := h.meta(marketAddr)
	h.handle(events.ReserveAuctionBidPlaced{Meta: meta, AuctionID: big.NewInt(auctionID), Bidder: bidder, Amount: eth(amount)})
	return ids.Bid(ids.Auction(marketAddr, big.NewInt(auctionID)), meta.TxHash, meta.LogIndex)
}

func (h *harness) finalize(auctionID int64, bidder string, amount int64) {
	h.newTx(60)
	h.transfer(marketAddr, bidder, 1)
	meta := h.meta(marketAddr)
	meta.Sender = sellerAddr
	h.handle(events.ReserveAuctionFinalized{
		Meta:         meta,
		AuctionID:    big.NewInt(auctionID),
		Seller:       creatorAddr,
		Bidder:       bidder,
		RevenueSplit: split(eth(amount)),
	})
}

func TestAuctionOutbidReversesPendingRevenue(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *harness) {
		h.mint(1)
		auctionID := h.createAuction(1, 7, 100, 86400, 900)

		bid1 := h.bid(7, bidder1Addr, 110, 30)
		bid2 := h.bid(7, bidder2Addr, 150, 30)

		first := load[entity.Bid](h, bid1)
		second := load[entity.Bid](h, bid2)
		assert.Equal(t, entity.BidOutbid, first.Status)
		assert.Equal(t, bid2, first.OutbidByID)
		assert.Equal(t, entity.BidHighest, second.Status)
		assert.Equal(t, bid1, second.BidThisOutbidID)

		auction := load[entity.Auction](h, auctionID)
		assert.Equal(t, int64(2), auction.NumberOfBids)
		assertETH(t, "260", auction.BidVolumeInETH)
		assert.Equal(t, bid2, auction.HighestBidID)
		assert.Equal(t, bid1, auction.InitialBidID)

		creator := h.creator()
		assertETH(t, "15", creator.NetRevenuePendingInETH)
		assertETH(t, "150", creator.NetSalesPendingInETH)
		assertETH(t, "127.5", h.account(creatorAddr).NetRevenuePendingInETH)
		asset := h.asset(1)
		assertETH(t, "150", asset.NetSalesPendingInETH)
		assertETH(t, "15", asset.NetRevenuePendingInETH)

		assertETH(t, "0", h.account(bidder1Addr).EscrowLockedInETH)
		assertETH(t, "150", h.account(bidder2Addr).EscrowLockedInETH)
	})
}

func TestAuctionFinalizeRealizesWinningBid(t *testing.T) {
	h := newHarness(t)
	h.mint(1)
	auctionID := h.createAuction(1, 7, 100, 86400, 900)
	h.bid(7, bidder1Addr, 110, 30)
	winningBid := h.bid(7, bidder2Addr, 150, 30)
	bidTime := h.time

	h.finalize(7, bidder2Addr, 150)

	creator := h.creator()
	assertETH(t, "0", creator.NetRevenuePendingInETH)
	assertETH(t, "0", creator.NetSalesPendingInETH)
	assertETH(t, "15", creator.NetRevenueInETH)
	assertETH(t, "150", creator.NetSalesInETH)
	assertETH(t, "127.5", h.account(creatorAddr).NetRevenueInETH)
	assertETH(t, "0", h.account(creatorAddr).NetRevenuePendingInETH)
	assertETH(t, "0", h.account(bidder2Addr).EscrowLockedInETH)

	winner := load[entity.Bid](h, winningBid)
	assert.Equal(t, entity.BidFinalizedWinner, winner.Status)

	auction := load[entity.Auction](h, auctionID)
	assert.Equal(t, entity.AuctionFinalized, auction.Status)
	assert.Equal(t, ids.Account(bidder2Addr), auction.BuyerID)
	assert.True(t, auction.IsPrimarySale)

	asset := h.asset(1)
	assert.False(t, asset.IsFirstSale)
	assert.Equal(t, auctionID, asset.LatestFinalizedAuctionID)
	assertETH(t, "0", asset.NetSalesPendingInETH)
	assertETH(t, "150", asset.NetSalesInETH)

	var sold, settled *entity.HistoryRecord
	for _, record := range h.history(1) {
		switch record.Kind {
		case entity.HistorySold:
			sold = record
		case entity.HistorySettled:
			settled = record
		}
	}
	require.NotNil(t, sold)
	require.NotNil(t, settled)
	assert.Equal(t, bidTime, sold.Date)
	assert.Equal(t, h.time, settled.Date)
	assert.Equal(t, ids.Account(sellerAddr), settled.ActorID)
	assert.Less(t, sold.Position, settled.Position)
	assert.Equal(t, 0, historyKinds(h.history(1))[entity.HistoryTransferred])
}

func TestAuctionBidExtendsInsideWindow(t *testing.T) {
	h := newHarness(t)
	h.mint(1)
	auctionID := h.createAuction(1, 3, 1, 100, 50)

	h.bid(3, bidder1Addr, 1, 10)
	start := h.time
	auction := load[entity.Auction](h, auctionID)
	assert.Equal(t, start, auction.DateStarted)
	assert.Equal(t, start+100, auction.DateEnding)

	early := h.bid(3, bidder2Addr, 2, 20)
	auction = load[entity.Auction](h, auctionID)
	assert.Equal(t, start+100, auction.DateEnding)
	assert.False(t, load[entity.Bid](h, early).ExtendedAuction)

	late := h.bid(3, bidder1Addr, 3, 60)
	auction = load[entity.Auction](h, auctionID)
	assert.Equal(t, start+130, auction.DateEnding)
	assert.True(t, load[entity.Bid](h, late).ExtendedAuction)
}

func (h *harness) bidEnding(auctionID int64, bidder string, amount int64, afterSeconds uint64, endTime uint64) string {
	h.newTx(afterSeconds)
	meta := h.meta(marketAddr)
	h.handle(events.ReserveAuctionBidPlaced{
		Meta:      meta,
		AuctionID: big.NewInt(auctionID),
		Bidder:    bidder,
		Amount:    eth(amount),
		EndTime:   new(big.Int).SetUint64(endTime),
	})
	return ids.Bid(ids.Auction(marketAddr, big.NewInt(auctionID)), meta.TxHash, meta.LogIndex)
}

func TestAuctionBidUsesEmittedEndTime(t *testing.T) {
	h := newHarness(t)
	h.mint(1)
	auctionID := h.createAuction(1, 5, 1, 86400, 900)

	first := h.bidEnding(5, bidder1Addr, 1, 10, 1_700_003_702)
	auction := load[entity.Auction](h, auctionID)
	assert.Equal(t, h.time, auction.DateStarted)
	assert.Equal(t, uint64(1_700_003_702), auction.DateEnding)
	assert.False(t, load[entity.Bid](h, first).ExtendedAuction)

	same := h.bidEnding(5, bidder2Addr, 2, 10, 1_700_003_702)
	assert.Equal(t, uint64(1_700_003_702), load[entity.Auction](h, auctionID).DateEnding)
	assert.False(t, load[entity.Bid](h, same).ExtendedAuction)

	extended := h.bidEnding(5, bidder1Addr, 3, 10, 1_700_004_000)
	assert.Equal(t, uint64(1_700_004_000), load[entity.Auction](h, auctionID).DateEnding)
	assert.True(t, load[entity.Bid](h, extended).ExtendedAuction)
}

func TestAuctionFeeRevertDegradesToZeroSplit(t *testing.T) {
	h := newHarness(t)
	h.mint(1)
	h.createAuction(1, 4, 1, 100, 50)
	h.reader.feeErr = errors.New("execution reverted")
	counter := metrics.Engine().DegradedReads("getFees")
	before := testutil.ToFloat64(counter)

	bidID := h.bid(4, bidder1Addr, 5, 10)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
	assertETH(t, "0", load[entity.Bid](h, bidID).PendingSplit.Total())
	assertETH(t, "0", h.creator().NetRevenuePendingInETH)
	assertETH(t, "5", h.account(bidder1Addr).EscrowLockedInETH)
}

func TestAuctionCancelRestoresLatestFinalized(t *testing.T) {
	h := newHarness(t)
	h.mint(1)
	first := h.createAuction(1, 1, 1, 100, 50)
	h.bid(1, bidder1Addr, 2, 10)
	h.finalize(1, bidder1Addr, 2)

	h.newTx(60)
	h.handle(events.ReserveAuctionCreated{
		Meta: h.meta(marketAddr), Seller: bidder1Addr, NFTContract: nftAddr, TokenID: big.NewInt(1),
		Duration: big.NewInt(100), ExtensionDuration: big.NewInt(50), ReservePrice: eth(3), AuctionID: big.NewInt(2),
	})
	second := ids.Auction(marketAddr, big.NewInt(2))
	assert.Equal(t, second, h.asset(1).MostRecentAuctionID)

	h.newTx(60)
	h.handle(events.ReserveAuctionCanceled{Meta: h.meta(marketAddr), AuctionID: big.NewInt(2)})

	assert.Equal(t, entity.AuctionCanceled, load[entity.Auction](h, second).Status)
	assert.Equal(t, first, h.asset(1).MostRecentAuctionID)
	assert.Equal(t, 1, historyKinds(h.history(1))[entity.HistoryUnlisted])
}

func TestAuctionAdminCancelReleasesStandingBid(t *testing.T) {
	h := newHarness(t)
	h.mint(1)
	auctionID := h.createAuction(1, 9, 1, 100, 50)
	bidID := h.bid(9, bidder1Addr, 4, 10)

	h.newTx(60)
	meta := h.meta(marketAddr)
	meta.Sender = sellerAddr
	h.handle(events.ReserveAuctionCanceledByAdmin{Meta: meta, AuctionID: big.NewInt(9), Reason: "copyright"})

	auction := load[entity.Auction](h, auctionID)
	assert.Equal(t, entity.AuctionCanceled, auction.Status)
	assert.Equal(t, "copyright", auction.CanceledReason)
	assert.Empty(t, h.asset(1).MostRecentAuctionID)

	bid := load[entity.Bid](h, bidID)
	assert.Equal(t, entity.BidOutbid, bid.Status)
	assert.Empty(t, bid.OutbidByID)
	assertETH(t, "0", h.account(bidder1Addr).EscrowLockedInETH)
	assertETH(t, "0", h.creator().NetRevenuePendingInETH)
}

func TestAuctionUpdatedAndInvalidated(t *testing.T) {
	h := newHarness(t)
	h.mint(1)
	auctionID := h.createAuction(1, 5, 1, 100, 50)

	h.newTx(10)
	h.handle(events.ReserveAuctionUpdated{Meta: h.meta(marketAddr), AuctionID: big.NewInt(5), ReservePrice: eth(2)})
	assertETH(t, "2", load[entity.Auction](h, auctionID).ReservePriceInETH)

	h.newTx(10)
	h.handle(events.ReserveAuctionInvalidated{Meta: h.meta(marketAddr), AuctionID: big.NewInt(5)})
	assert.Equal(t, entity.AuctionInvalidated, load[entity.Auction](h, auctionID).Status)

	missing := metrics.Engine().MissingListing("ReserveAuctionBidPlaced")
	before := testutil.ToFloat64(missing)
	h.bid(5, bidder1Addr, 3, 10)
	assert.Equal(t, before+1, testutil.ToFloat64(missing))

	kinds := historyKinds(h.history(1))
	assert.Equal(t, 1, kinds[entity.HistoryPriceChanged])
	assert.Equal(t, 1, kinds[entity.HistoryAuctionInvalidated])
	assert.Equal(t, 0, kinds[entity.HistoryBid])
}
