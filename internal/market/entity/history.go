package entity

import (
	"github.com/6529-Collections/marketview/internal/store"
	"github.com/shopspring/decimal"
)

type HistoryKind string

const (
	HistoryMinted              HistoryKind = "Minted"
	HistoryTransferred         HistoryKind = "Transferred"
	HistoryBurned              HistoryKind = "Burned"
	HistoryBuyPriceSet         HistoryKind = "BuyPriceSet"
	HistoryBuyPriceAccepted    HistoryKind = "BuyPriceAccepted"
	HistoryBuyPriceCanceled    HistoryKind = "BuyPriceCanceled"
	HistoryBuyPriceInvalidated HistoryKind = "BuyPriceInvalidated"
	HistoryListed              HistoryKind = "Listed"
	HistoryPriceChanged        HistoryKind = "PriceChanged"
	HistoryBid                 HistoryKind = "Bid"
	HistoryUnlisted            HistoryKind = "Unlisted"
	HistorySold                HistoryKind = "Sold"
	HistorySettled             HistoryKind = "Settled"
	HistoryAuctionInvalidated  HistoryKind = "AuctionInvalidated"
	HistoryOfferMade           HistoryKind = "OfferMade"
	HistoryOfferChanged        HistoryKind = "OfferChanged"
	HistoryOfferAccepted       HistoryKind = "OfferAccepted"
	HistoryOfferInvalidated    HistoryKind = "OfferInvalidated"
	HistoryOfferExpired        HistoryKind = "OfferExpired"
)

// HistoryRecord is an immutable audit entry attached to an asset.
type HistoryRecord struct {
	ID          string          `json:"id"`
	Kind        HistoryKind     `json:"kind"`
	AssetID     string          `json:"asset_id"`
	ActorID     string          `json:"actor_id"`
	TargetID    string          `json:"target_id,omitempty"`
	AuctionID   string          `json:"auction_id,omitempty"`
	OfferID     string          `json:"offer_id,omitempty"`
	BuyNowID    string          `json:"buy_now_id,omitempty"`
	AmountInETH decimal.Decimal `json:"amount_in_eth"`
	Date        uint64          `json:"date"`
	Contract    string          `json:"contract"`
	TxHash      string          `json:"tx_hash"`
	BlockNumber uint64          `json:"block_number"`
	LogIndex    uint64          `json:"log_index"`
	Position    string          `json:"position"`
	// Speculative records were written for a raw transfer that a later sale
	// event of the same transaction may explain and retract.
	Speculative bool `json:"speculative"`
}

func (h *HistoryRecord) DocumentKind() store.Kind { return KindHistory }
func (h *HistoryRecord) DocumentID() string       { return h.ID }
func (h *HistoryRecord) DocumentIndex() store.Index {
	return store.Index{AssetID: h.AssetID, Status: string(h.Kind), Position: h.Position}
}

// TransferRetraction remembers which speculative transfer record an event
// retracted, keyed by the retracting event's position.
type TransferRetraction struct {
	ID              string `json:"id"`
	HistoryRecordID string `json:"history_record_id"`
}

func (r *TransferRetraction) DocumentKind() store.Kind   { return KindTransferRetraction }
func (r *TransferRetraction) DocumentID() string         { return r.ID }
func (r *TransferRetraction) DocumentIndex() store.Index { return store.Index{} }
