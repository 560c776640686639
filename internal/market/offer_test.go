package market

import (
	"math/big"
	"testing"

	"github.com/6529-Collections/marketview/internal/market/entity"
	"github.com/6529-Collections/marketview/internal/market/ids"
	"github.com/6529-Collections/marketview/pkg/market/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *harness) offer(buyer string, amount int64, expiresIn uint64, afterSeconds uint64) string {
	h.newTx(afterSeconds)
	meta := h.meta(marketAddr)
	h.handle(events.OfferMade{
		Meta:        meta,
		NFTContract: nftAddr,
		TokenID:     big.NewInt(1),
		Buyer:       buyer,
		Amount:      eth(amount),
		Expiration:  new(big.Int).SetUint64(meta.BlockTime + expiresIn),
	})
	return ids.Offer(h.assetID(1), meta.TxHash, meta.LogIndex)
}

func TestOfferExpiredRegardlessOfBuyer(t *testing.T) {
	h := newHarness(t)
	h.mint(1)

	first := h.offer(buyerAddr, 1, 100, 10)
	second := h.offer(buyerAddr, 2, 100, 101)

	old := load[entity.Offer](h, first)
	assert.Equal(t, entity.OfferExpired, old.Status)
	assert.Empty(t, old.OutbidByID)
	assert.Empty(t, load[entity.Offer](h, second).OfferOutbidID)

	var expired *entity.HistoryRecord
	for _, record := range h.history(1) {
		if record.Kind == entity.HistoryOfferExpired {
			expired = record
		}
	}
	require.NotNil(t, expired)
	assert.Equal(t, h.time, expired.Date)

	kinds := historyKinds(h.history(1))
	assert.Equal(t, 2, kinds[entity.HistoryOfferMade])
	assert.Equal(t, 0, kinds[entity.HistoryOfferChanged])
	assertETH(t, "2", h.account(buyerAddr).EscrowLockedInETH)
	assert.Equal(t, second, h.asset(1).MostRecentOfferID)
}

func TestOfferOutbidBySameBuyerIsAChange(t *testing.T) {
	h := newHarness(t)
	h.mint(1)

	first := h.offer(buyerAddr, 1, 1000, 10)
	second := h.offer(buyerAddr, 2, 1000, 10)
	third := h.offer(bidder1Addr, 3, 1000, 10)

	assert.Equal(t, entity.OfferOutbid, load[entity.Offer](h, first).Status)
	assert.Equal(t, second, load[entity.Offer](h, first).OutbidByID)
	assert.Equal(t, first, load[entity.Offer](h, second).OfferOutbidID)
	assert.Equal(t, third, load[entity.Offer](h, second).OutbidByID)
	assert.Equal(t, entity.OfferOpen, load[entity.Offer](h, third).Status)

	kinds := historyKinds(h.history(1))
	assert.Equal(t, 2, kinds[entity.HistoryOfferMade])
	assert.Equal(t, 1, kinds[entity.HistoryOfferChanged])
	assertETH(t, "0", h.account(buyerAddr).EscrowLockedInETH)
	assertETH(t, "3", h.account(bidder1Addr).EscrowLockedInETH)

	openIDs, err := h.backend.FindIDs(h.ctx, entity.KindOffer, h.assetID(1), string(entity.OfferOpen))
	require.NoError(t, err)
	assert.Equal(t, []string{third}, openIDs)
}

func TestOfferAcceptedReusesBuyer(t *testing.T) {
	h := newHarness(t)
	h.mint(1)
	offerID := h.offer(buyerAddr, 10, 1000, 10)

	h.newTx(10)
	h.transfer(creatorAddr, buyerAddr, 1)
	h.handle(events.OfferAccepted{
		Meta:         h.meta(marketAddr),
		NFTContract:  nftAddr,
		TokenID:      big.NewInt(1),
		Buyer:        bidder2Addr,
		Seller:       creatorAddr,
		RevenueSplit: split(eth(10)),
	})

	offer := load[entity.Offer](h, offerID)
	assert.Equal(t, entity.OfferAccepted, offer.Status)
	assert.Equal(t, ids.Account(buyerAddr), offer.BuyerID)
	assert.Equal(t, ids.Account(creatorAddr), offer.SellerID)
	assert.True(t, offer.IsPrimarySale)
	assertETH(t, "0", h.account(buyerAddr).EscrowLockedInETH)

	asset := h.asset(1)
	assert.False(t, asset.IsFirstSale)
	assertETH(t, "10", asset.NetSalesInETH)
	assertETH(t, "1", h.creator().NetRevenueInETH)

	kinds := historyKinds(h.history(1))
	assert.Equal(t, 1, kinds[entity.HistoryOfferAccepted])
	assert.Equal(t, 1, kinds[entity.HistoryTransferred])
}

func TestOfferInvalidated(t *testing.T) {
	h := newHarness(t)
	h.mint(1)
	offerID := h.offer(buyerAddr, 4, 1000, 10)

	h.newTx(10)
	h.handle(events.OfferInvalidated{Meta: h.meta(marketAddr), NFTContract: nftAddr, TokenID: big.NewInt(1)})

	assert.Equal(t, entity.OfferInvalidated, load[entity.Offer](h, offerID).Status)
	assertETH(t, "0", h.account(buyerAddr).EscrowLockedInETH)
	assert.Equal(t, 1, historyKinds(h.history(1))[entity.HistoryOfferInvalidated])
}
