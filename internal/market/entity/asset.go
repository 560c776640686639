package entity

import (
	"github.com/6529-Collections/marketview/internal/store"
	"github.com/shopspring/decimal"
)

type Asset struct {
	ID       string `json:"id"`
	Contract string `json:"contract"`
	TokenID  string `json:"token_id"`

	OwnerID string `json:"owner_id"`
	// OwnedOrListedByID is the seller while the asset sits in market escrow.
	OwnedOrListedByID string `json:"owned_or_listed_by_id"`
	CreatorID         string `json:"creator_id,omitempty"`
	PublicationID     string `json:"publication_id,omitempty"`

	DateMinted uint64 `json:"date_minted,omitempty"`
	Burned     bool   `json:"burned"`
	DateBurned uint64 `json:"date_burned,omitempty"`

	NetSalesInETH          decimal.Decimal `json:"net_sales_in_eth"`
	NetSalesPendingInETH   decimal.Decimal `json:"net_sales_pending_in_eth"`
	NetRevenueInETH        decimal.Decimal `json:"net_revenue_in_eth"`
	NetRevenuePendingInETH decimal.Decimal `json:"net_revenue_pending_in_eth"`
	IsFirstSale            bool            `json:"is_first_sale"`
	LastSalePriceInETH     decimal.Decimal `json:"last_sale_price_in_eth"`

	MostRecentBuyNowID       string `json:"most_recent_buy_now_id,omitempty"`
	MostRecentAuctionID      string `json:"most_recent_auction_id,omitempty"`
	LatestFinalizedAuctionID string `json:"latest_finalized_auction_id,omitempty"`
	MostRecentOfferID        string `json:"most_recent_offer_id,omitempty"`
}

func (a *Asset) DocumentKind() store.Kind   { return KindAsset }
func (a *Asset) DocumentID() string         { return a.ID }
func (a *Asset) DocumentIndex() store.Index { return store.Index{} }
