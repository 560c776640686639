package market

import (
	"math/big"
	"strings"

	"github.com/6529-Collections/marketview/internal/market/entity"
	"github.com/6529-Collections/marketview/internal/market/ids"
	"github.com/6529-Collections/marketview/internal/store"
	"github.com/shopspring/decimal"
)

func LoadOrCreateAccount(s *store.Session, address string, timestamp uint64) (*entity.Account, error) {
	id := ids.Account(address)
	account, err := store.Load[entity.Account](s, id)
	if err != nil || account != nil {
		return account, err
	}
	account = &entity.Account{
		ID:                     id,
		NetRevenueInETH:        decimal.Zero,
		NetRevenuePendingInETH: decimal.Zero,
		EscrowLockedInETH:      decimal.Zero,
		DateCreated:            timestamp,
	}
	s.Upsert(account)
	return account, nil
}

// LoadOrCreateCreator also makes sure the creator's account exists.
func LoadOrCreateCreator(s *store.Session, address string, timestamp uint64) (*entity.Creator, error) {
	account, err := LoadOrCreateAccount(s, address, timestamp)
	if err != nil {
		return nil, err
	}
	id := ids.Creator(address)
	creator, err := store.Load[entity.Creator](s, id)
	if err != nil || creator != nil {
		return creator, err
	}
	creator = &entity.Creator{
		ID:                     id,
		AccountID:              account.ID,
		NetSalesInETH:          decimal.Zero,
		NetSalesPendingInETH:   decimal.Zero,
		NetRevenueInETH:        decimal.Zero,
		NetRevenuePendingInETH: decimal.Zero,
	}
	s.Upsert(creator)
	return creator, nil
}

func LoadOrCreatePublication(s *store.Session, contract string, publicationID *big.Int, creatorID string, previousCreatorID string, timestamp uint64) (*entity.Publication, error) {
	id := ids.Publication(contract, publicationID)
	publication, err := store.Load[entity.Publication](s, id)
	if err != nil || publication != nil {
		return publication, err
	}
	publication = &entity.Publication{
		ID:                id,
		Contract:          strings.ToLower(contract),
		PublicationID:     publicationID.String(),
		CreatorID:         creatorID,
		PreviousCreatorID: previousCreatorID,
		DateCreated:       timestamp,
	}
	s.Upsert(publication)
	return publication, nil
}

// LoadOrCreateAsset returns the asset, creating it unsold and unowned on first
// observation.
func LoadOrCreateAsset(s *store.Session, contract string, tokenID *big.Int) (*entity.Asset, error) {
	id := ids.Asset(contract, tokenID)
	asset, err := store.Load[entity.Asset](s, id)
	if err != nil || asset != nil {
		return asset, err
	}
	asset = &entity.Asset{
		ID:                     id,
		Contract:               strings.ToLower(contract),
		TokenID:                tokenID.String(),
		NetSalesInETH:          decimal.Zero,
		NetSalesPendingInETH:   decimal.Zero,
		NetRevenueInETH:        decimal.Zero,
		NetRevenuePendingInETH: decimal.Zero,
		IsFirstSale:            true,
		LastSalePriceInETH:     decimal.Zero,
	}
	s.Upsert(asset)
	return asset, nil
}

func loadCreatorOf(s *store.Session, asset *entity.Asset) (*entity.Creator, error) {
	if asset.CreatorID == "" {
		return nil, nil
	}
	return store.Load[entity.Creator](s, asset.CreatorID)
}

func assetTokenID(asset *entity.Asset) *big.Int {
	tokenID, ok := new(big.Int).SetString(asset.TokenID, 10)
	if !ok {
		return new(big.Int)
	}
	return tokenID
}
