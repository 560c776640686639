// Package events holds the decoded marketplace and derivative-token events
// delivered to the engine, one at a time, in chain order.
package events

import (
	"math/big"
	"strings"
)

// Meta locates an event on chain. Addresses and hashes are lower-case hex.
type Meta struct {
	Contract         string
	BlockNumber      uint64
	TransactionIndex uint64
	LogIndex         uint64
	BlockTime        uint64
	TxHash           string
	// Sender is the signer of the transaction, empty when unknown.
	Sender string
}

func (m Meta) EventMeta() Meta {
	return m
}

// Before reports whether m sorts strictly before other in chain order.
func (m Meta) Before(other Meta) bool {
	if m.BlockNumber != other.BlockNumber {
		return m.BlockNumber < other.BlockNumber
	}
	if m.TransactionIndex != other.TransactionIndex {
		return m.TransactionIndex < other.TransactionIndex
	}
	return m.LogIndex < other.LogIndex
}

func (m *Meta) Normalize() {
	m.Contract = strings.ToLower(m.Contract)
	m.TxHash = strings.ToLower(m.TxHash)
	m.Sender = strings.ToLower(m.Sender)
}

type Event interface {
	EventMeta() Meta
	EventName() string
}

// EventBatch is every event of one block range, sorted.
type EventBatch struct {
	Events      []Event
	BlockNumber uint64
}

// RevenueSplit is the four-way distribution of a sale amount as reported by
// the marketplace.
type RevenueSplit struct {
	TreasuryFee        *big.Int
	CreatorRev         *big.Int
	PreviousCreatorRev *big.Int
	OwnerRev           *big.Int
}

// Total returns the sum of the four parts, or nil when any part is missing.
func (r RevenueSplit) Total() *big.Int {
	if r.TreasuryFee == nil || r.CreatorRev == nil || r.PreviousCreatorRev == nil || r.OwnerRev == nil {
		return nil
	}
	total := new(big.Int).Add(r.TreasuryFee, r.CreatorRev)
	total.Add(total, r.PreviousCreatorRev)
	return total.Add(total, r.OwnerRev)
}

// Derivative-token contract.

type Transfer struct {
	Meta
	From    string
	To      string
	TokenID *big.Int
}

func (Transfer) EventName() string { return "Transfer" }

type Minted struct {
	Meta
	Creator         string
	TokenID         *big.Int
	PublicationID   *big.Int
	PreviousCreator string
}

func (Minted) EventName() string { return "Minted" }

type ApprovalForAll struct {
	Meta
	Owner    string
	Operator string
	Approved bool
}

func (ApprovalForAll) EventName() string { return "ApprovalForAll" }

// Marketplace contract.

type BuyPriceSet struct {
	Meta
	NFTContract string
	TokenID     *big.Int
	Seller      string
	Price       *big.Int
}

func (BuyPriceSet) EventName() string { return "BuyPriceSet" }

type BuyPriceAccepted struct {
	Meta
	NFTContract string
	TokenID     *big.Int
	Seller      string
	Buyer       string
	RevenueSplit
}

func (BuyPriceAccepted) EventName() string { return "BuyPriceAccepted" }

type BuyPriceCanceled struct {
	Meta
	NFTContract string
	TokenID     *big.Int
}

func (BuyPriceCanceled) EventName() string { return "BuyPriceCanceled" }

type BuyPriceInvalidated struct {
	Meta
	NFTContract string
	TokenID     *big.Int
}

func (BuyPriceInvalidated) EventName() string { return "BuyPriceInvalidated" }

type ReserveAuctionCreated struct {
	Meta
	Seller            string
	NFTContract       string
	TokenID           *big.Int
	Duration          *big.Int
	ExtensionDuration *big.Int
	ReservePrice      *big.Int
	AuctionID         *big.Int
}

func (ReserveAuctionCreated) EventName() string { return "ReserveAuctionCreated" }

type ReserveAuctionBidPlaced struct {
	Meta
	AuctionID *big.Int
	Bidder    string
	Amount    *big.Int
	EndTime   *big.Int
}

func (ReserveAuctionBidPlaced) EventName() string { return "ReserveAuctionBidPlaced" }

type ReserveAuctionUpdated struct {
	Meta
	AuctionID    *big.Int
	ReservePrice *big.Int
}

func (ReserveAuctionUpdated) EventName() string { return "ReserveAuctionUpdated" }

type ReserveAuctionCanceled struct {
	Meta
	AuctionID *big.Int
}

func (ReserveAuctionCanceled) EventName() string { return "ReserveAuctionCanceled" }

type ReserveAuctionCanceledByAdmin struct {
	Meta
	AuctionID *big.Int
	Reason    string
}

func (ReserveAuctionCanceledByAdmin) EventName() string { return "ReserveAuctionCanceledByAdmin" }

type ReserveAuctionFinalized struct {
	Meta
	AuctionID *big.Int
	Seller    string
	Bidder    string
	RevenueSplit
}

func (ReserveAuctionFinalized) EventName() string { return "ReserveAuctionFinalized" }

type ReserveAuctionInvalidated struct {
	Meta
	AuctionID *big.Int
}

func (ReserveAuctionInvalidated) EventName() string { return "ReserveAuctionInvalidated" }

type OfferMade struct {
	Meta
	NFTContract string
	TokenID     *big.Int
	Buyer       string
	Amount      *big.Int
	Expiration  *big.Int
}

func (OfferMade) EventName() string { return "OfferMade" }

type OfferAccepted struct {
	Meta
	NFTContract string
	TokenID     *big.Int
	Buyer       string
	Seller      string
	RevenueSplit
}

func (OfferAccepted) EventName() string { return "OfferAccepted" }

type OfferInvalidated struct {
	Meta
	NFTContract string
	TokenID     *big.Int
}

func (OfferInvalidated) EventName() string { return "OfferInvalidated" }
