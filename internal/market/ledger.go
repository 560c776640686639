package market

import (
	"fmt"

	"github.com/6529-Collections/marketview/internal/market/entity"
	"github.com/6529-Collections/marketview/internal/store"
	"github.com/6529-Collections/marketview/pkg/market/events"
	"github.com/shopspring/decimal"
)

func splitFromWei(revenue events.RevenueSplit) (entity.Split, error) {
	if revenue.Total() == nil {
		return entity.Split{}, ErrIncompleteRevenue
	}
	return entity.Split{
		CreatorRevenueInETH:         entity.ETH(revenue.CreatorRev),
		PreviousCreatorRevenueInETH: entity.ETH(revenue.PreviousCreatorRev),
		OwnerRevenueInETH:           entity.ETH(revenue.OwnerRev),
		TreasuryRevenueInETH:        entity.ETH(revenue.TreasuryFee),
	}, nil
}

func zeroSplit() entity.Split {
	return entity.Split{
		CreatorRevenueInETH:         decimal.Zero,
		PreviousCreatorRevenueInETH: decimal.Zero,
		OwnerRevenueInETH:           decimal.Zero,
		TreasuryRevenueInETH:        decimal.Zero,
	}
}

// RecordSale books a completed sale into the realized totals of the asset's
// creator, the seller account and the asset. Nothing is written when the
// split is incomplete or the creator is unknown.
func RecordSale(s *store.Session, asset *entity.Asset, sellerID string, revenue events.RevenueSplit, timestamp uint64) error {
	split, err := splitFromWei(revenue)
	if err != nil {
		return err
	}
	if sellerID == "" {
		return fmt.Errorf("seller of %s: %w", asset.ID, ErrMissingEntity)
	}
	creator, err := loadCreatorOf(s, asset)
	if err != nil {
		return err
	}
	if creator == nil {
		return fmt.Errorf("creator of %s: %w", asset.ID, ErrMissingEntity)
	}
	seller, err := LoadOrCreateAccount(s, sellerID, timestamp)
	if err != nil {
		return err
	}

	total := split.Total()
	creator.NetRevenueInETH = creator.NetRevenueInETH.Add(split.CreatorRevenueInETH)
	creator.NetSalesInETH = creator.NetSalesInETH.Add(total)
	seller.NetRevenueInETH = seller.NetRevenueInETH.Add(split.OwnerRevenueInETH)
	asset.NetSalesInETH = asset.NetSalesInETH.Add(total)
	asset.NetRevenueInETH = asset.NetRevenueInETH.Add(split.CreatorRevenueInETH)
	asset.IsFirstSale = false
	asset.LastSalePriceInETH = total

	s.Upsert(creator)
	s.Upsert(seller)
	s.Upsert(asset)
	return nil
}

// addPending books the expected split of an open auction bid into the pending
// totals. reversePending with the same split undoes it exactly.
func addPending(s *store.Session, asset *entity.Asset, sellerID string, split entity.Split, timestamp uint64) error {
	return applyPending(s, asset, sellerID, split, false, timestamp)
}

func reversePending(s *store.Session, asset *entity.Asset, sellerID string, split entity.Split, timestamp uint64) error {
	return applyPending(s, asset, sellerID, split, true, timestamp)
}

func applyPending(s *store.Session, asset *entity.Asset, sellerID string, split entity.Split, reverse bool, timestamp uint64) error {
	creator, err := loadCreatorOf(s, asset)
	if err != nil {
		return err
	}
	if creator == nil {
		return fmt.Errorf("creator of %s: %w", asset.ID, ErrMissingEntity)
	}
	seller, err := LoadOrCreateAccount(s, sellerID, timestamp)
	if err != nil {
		return err
	}

	total := split.Total()
	creatorRevenue := split.CreatorRevenueInETH
	ownerRevenue := split.OwnerRevenueInETH
	if reverse {
		total = total.Neg()
		creatorRevenue = creatorRevenue.Neg()
		ownerRevenue = ownerRevenue.Neg()
	}

	creator.NetRevenuePendingInETH = creator.NetRevenuePendingInETH.Add(creatorRevenue)
	creator.NetSalesPendingInETH = creator.NetSalesPendingInETH.Add(total)
	seller.NetRevenuePendingInETH = seller.NetRevenuePendingInETH.Add(ownerRevenue)
	asset.NetSalesPendingInETH = asset.NetSalesPendingInETH.Add(total)
	asset.NetRevenuePendingInETH = asset.NetRevenuePendingInETH.Add(creatorRevenue)

	s.Upsert(creator)
	s.Upsert(seller)
	s.Upsert(asset)
	return nil
}

// lockEscrow and releaseEscrow track the funds an open bid or offer keeps
// locked in the market contract.
func lockEscrow(s *store.Session, accountID string, amount decimal.Decimal, timestamp uint64) error {
	account, err := LoadOrCreateAccount(s, accountID, timestamp)
	if err != nil {
		return err
	}
	account.EscrowLockedInETH = account.EscrowLockedInETH.Add(amount)
	s.Upsert(account)
	return nil
}

func releaseEscrow(s *store.Session, accountID string, amount decimal.Decimal, timestamp uint64) error {
	return lockEscrow(s, accountID, amount.Neg(), timestamp)
}
