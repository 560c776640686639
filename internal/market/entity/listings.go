package entity

import (
	"github.com/6529-Collections/marketview/internal/store"
	"github.com/shopspring/decimal"
)

type BuyNowStatus string

const (
	BuyNowOpen        BuyNowStatus = "Open"
	BuyNowAccepted    BuyNowStatus = "Accepted"
	BuyNowCanceled    BuyNowStatus = "Canceled"
	BuyNowInvalidated BuyNowStatus = "Invalidated"
)

// Split is the per-party revenue of a sale, in ether.
type Split struct {
	CreatorRevenueInETH         decimal.Decimal `json:"creator_revenue_in_eth"`
	PreviousCreatorRevenueInETH decimal.Decimal `json:"previous_creator_revenue_in_eth"`
	OwnerRevenueInETH           decimal.Decimal `json:"owner_revenue_in_eth"`
	TreasuryRevenueInETH        decimal.Decimal `json:"treasury_revenue_in_eth"`
}

func (s Split) Total() decimal.Decimal {
	return s.CreatorRevenueInETH.
		Add(s.PreviousCreatorRevenueInETH).
		Add(s.OwnerRevenueInETH).
		Add(s.TreasuryRevenueInETH)
}

type BuyNow struct {
	ID          string          `json:"id"`
	AssetID     string          `json:"asset_id"`
	Status      BuyNowStatus    `json:"status"`
	SellerID    string          `json:"seller_id"`
	BuyerID     string          `json:"buyer_id,omitempty"`
	AmountInETH decimal.Decimal `json:"amount_in_eth"`
	Split
	IsPrimarySale bool `json:"is_primary_sale"`

	Position                   string `json:"position"`
	DateCreated                uint64 `json:"date_created"`
	TransactionHashCreated     string `json:"transaction_hash_created"`
	DateAccepted               uint64 `json:"date_accepted,omitempty"`
	TransactionHashAccepted    string `json:"transaction_hash_accepted,omitempty"`
	DateCanceled               uint64 `json:"date_canceled,omitempty"`
	TransactionHashCanceled    string `json:"transaction_hash_canceled,omitempty"`
	DateInvalidated            uint64 `json:"date_invalidated,omitempty"`
	TransactionHashInvalidated string `json:"transaction_hash_invalidated,omitempty"`
}

func (b *BuyNow) DocumentKind() store.Kind { return KindBuyNow }
func (b *BuyNow) DocumentID() string       { return b.ID }
func (b *BuyNow) DocumentIndex() store.Index {
	return store.Index{AssetID: b.AssetID, Status: string(b.Status), Position: b.Position}
}

type AuctionStatus string

const (
	AuctionOpen        AuctionStatus = "Open"
	AuctionCanceled    AuctionStatus = "Canceled"
	AuctionFinalized   AuctionStatus = "Finalized"
	AuctionInvalidated AuctionStatus = "Invalidated"
)

type Auction struct {
	ID        string        `json:"id"`
	AuctionID string        `json:"auction_id"`
	AssetID   string        `json:"asset_id"`
	Status    AuctionStatus `json:"status"`
	SellerID  string        `json:"seller_id"`
	BuyerID   string        `json:"buyer_id,omitempty"`

	Duration          uint64          `json:"duration"`
	ExtensionDuration uint64          `json:"extension_duration"`
	ReservePriceInETH decimal.Decimal `json:"reserve_price_in_eth"`
	DateStarted       uint64          `json:"date_started,omitempty"`
	DateEnding        uint64          `json:"date_ending,omitempty"`

	HighestBidID   string          `json:"highest_bid_id,omitempty"`
	InitialBidID   string          `json:"initial_bid_id,omitempty"`
	NumberOfBids   int64           `json:"number_of_bids"`
	BidVolumeInETH decimal.Decimal `json:"bid_volume_in_eth"`
	CanceledReason string          `json:"canceled_reason,omitempty"`
	IsPrimarySale  bool            `json:"is_primary_sale"`
	Split

	Position                   string `json:"position"`
	DateCreated                uint64 `json:"date_created"`
	TransactionHashCreated     string `json:"transaction_hash_created"`
	DateFinalized              uint64 `json:"date_finalized,omitempty"`
	TransactionHashFinalized   string `json:"transaction_hash_finalized,omitempty"`
	DateCanceled               uint64 `json:"date_canceled,omitempty"`
	TransactionHashCanceled    string `json:"transaction_hash_canceled,omitempty"`
	DateInvalidated            uint64 `json:"date_invalidated,omitempty"`
	TransactionHashInvalidated string `json:"transaction_hash_invalidated,omitempty"`
}

func (a *Auction) DocumentKind() store.Kind { return KindAuction }
func (a *Auction) DocumentID() string       { return a.ID }
func (a *Auction) DocumentIndex() store.Index {
	return store.Index{AssetID: a.AssetID, Status: string(a.Status), Position: a.Position}
}

type BidStatus string

const (
	BidHighest         BidStatus = "Highest"
	BidOutbid          BidStatus = "Outbid"
	BidFinalizedWinner BidStatus = "FinalizedWinner"
)

type Bid struct {
	ID          string          `json:"id"`
	AuctionID   string          `json:"auction_id"`
	AssetID     string          `json:"asset_id"`
	BidderID    string          `json:"bidder_id"`
	AmountInETH decimal.Decimal `json:"amount_in_eth"`
	Status      BidStatus       `json:"status"`
	// PendingSplit is what this bid added to the pending aggregates, kept so
	// the exact amounts can be reversed when it is outbid.
	PendingSplit Split `json:"pending_split"`

	BidThisOutbidID string `json:"bid_this_outbid_id,omitempty"`
	OutbidByID      string `json:"outbid_by_id,omitempty"`
	ExtendedAuction bool   `json:"extended_auction"`

	Position        string `json:"position"`
	DatePlaced      uint64 `json:"date_placed"`
	TransactionHash string `json:"transaction_hash"`
	DateLeftActive  uint64 `json:"date_left_active,omitempty"`
}

func (b *Bid) DocumentKind() store.Kind { return KindBid }
func (b *Bid) DocumentID() string       { return b.ID }

// Bids are indexed under their auction so they can be listed per auction.
func (b *Bid) DocumentIndex() store.Index {
	return store.Index{AssetID: b.AuctionID, Status: string(b.Status), Position: b.Position}
}

type OfferStatus string

const (
	OfferOpen        OfferStatus = "Open"
	OfferAccepted    OfferStatus = "Accepted"
	OfferInvalidated OfferStatus = "Invalidated"
	OfferOutbid      OfferStatus = "Outbid"
	OfferExpired     OfferStatus = "Expired"
)

type Offer struct {
	ID            string          `json:"id"`
	AssetID       string          `json:"asset_id"`
	Status        OfferStatus     `json:"status"`
	BuyerID       string          `json:"buyer_id"`
	SellerID      string          `json:"seller_id,omitempty"`
	AmountInETH   decimal.Decimal `json:"amount_in_eth"`
	DateExpires   uint64          `json:"date_expires"`
	IsPrimarySale bool            `json:"is_primary_sale"`
	Split

	OfferOutbidID string `json:"offer_outbid_id,omitempty"`
	OutbidByID    string `json:"outbid_by_id,omitempty"`

	Position                   string `json:"position"`
	DateCreated                uint64 `json:"date_created"`
	TransactionHashCreated     string `json:"transaction_hash_created"`
	DateAccepted               uint64 `json:"date_accepted,omitempty"`
	TransactionHashAccepted    string `json:"transaction_hash_accepted,omitempty"`
	DateInvalidated            uint64 `json:"date_invalidated,omitempty"`
	TransactionHashInvalidated string `json:"transaction_hash_invalidated,omitempty"`
	DateLeftActive             uint64 `json:"date_left_active,omitempty"`
}

func (o *Offer) DocumentKind() store.Kind { return KindOffer }
func (o *Offer) DocumentID() string       { return o.ID }
func (o *Offer) DocumentIndex() store.Index {
	return store.Index{AssetID: o.AssetID, Status: string(o.Status), Position: o.Position}
}
