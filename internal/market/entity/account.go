package entity

import (
	"github.com/6529-Collections/marketview/internal/store"
	"github.com/shopspring/decimal"
)

type Account struct {
	ID                     string          `json:"id"`
	NetRevenueInETH        decimal.Decimal `json:"net_revenue_in_eth"`
	NetRevenuePendingInETH decimal.Decimal `json:"net_revenue_pending_in_eth"`
	// EscrowLockedInETH is the sum of this account's open bids and offers.
	EscrowLockedInETH decimal.Decimal `json:"escrow_locked_in_eth"`
	DateCreated       uint64          `json:"date_created"`
}

func (a *Account) DocumentKind() store.Kind   { return KindAccount }
func (a *Account) DocumentID() string         { return a.ID }
func (a *Account) DocumentIndex() store.Index { return store.Index{} }

type Creator struct {
	ID                     string          `json:"id"`
	AccountID              string          `json:"account_id"`
	NetSalesInETH          decimal.Decimal `json:"net_sales_in_eth"`
	NetSalesPendingInETH   decimal.Decimal `json:"net_sales_pending_in_eth"`
	NetRevenueInETH        decimal.Decimal `json:"net_revenue_in_eth"`
	NetRevenuePendingInETH decimal.Decimal `json:"net_revenue_pending_in_eth"`
	AssetCount             int64           `json:"asset_count"`
}

func (c *Creator) DocumentKind() store.Kind   { return KindCreator }
func (c *Creator) DocumentID() string         { return c.ID }
func (c *Creator) DocumentIndex() store.Index { return store.Index{} }

// Publication is the derivative work a set of assets was minted from.
type Publication struct {
	ID                string `json:"id"`
	Contract          string `json:"contract"`
	PublicationID     string `json:"publication_id"`
	CreatorID         string `json:"creator_id"`
	PreviousCreatorID string `json:"previous_creator_id,omitempty"`
	AssetCount        int64  `json:"asset_count"`
	DateCreated       uint64 `json:"date_created"`
}

func (p *Publication) DocumentKind() store.Kind   { return KindPublication }
func (p *Publication) DocumentID() string         { return p.ID }
func (p *Publication) DocumentIndex() store.Index { return store.Index{} }

// AccountCollection is how many tokens of one contract an account holds.
type AccountCollection struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	Contract  string `json:"contract"`
	Balance   int64  `json:"balance"`
	// BalanceFromChain is false when the last balanceOf call reverted and
	// Balance was derived locally.
	BalanceFromChain bool   `json:"balance_from_chain"`
	DateUpdated      uint64 `json:"date_updated"`
}

func (c *AccountCollection) DocumentKind() store.Kind { return KindAccountCollection }
func (c *AccountCollection) DocumentID() string       { return c.ID }
func (c *AccountCollection) DocumentIndex() store.Index {
	return store.Index{AssetID: c.AccountID, Position: c.Contract}
}

type Approval struct {
	ID          string `json:"id"`
	Contract    string `json:"contract"`
	OwnerID     string `json:"owner_id"`
	OperatorID  string `json:"operator_id"`
	DateGranted uint64 `json:"date_granted"`
	TxHash      string `json:"tx_hash"`
}

func (a *Approval) DocumentKind() store.Kind   { return KindApproval }
func (a *Approval) DocumentID() string         { return a.ID }
func (a *Approval) DocumentIndex() store.Index { return store.Index{} }
