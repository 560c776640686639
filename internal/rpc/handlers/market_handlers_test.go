package handlers

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/6529-Collections/marketview/internal/db/testdb"
	"github.com/6529-Collections/marketview/internal/market/entity"
	"github.com/6529-Collections/marketview/internal/market/ids"
	"github.com/6529-Collections/marketview/internal/store"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testContract = "0x00000000000000000000000000000000000000bb"
	testAccount  = "0x1111111111111111111111111111111111111111"
	testAuction  = "0x00000000000000000000000000000000000000aa-7"
)

func setupBackend(t *testing.T) store.Backend {
	sqlDB, cleanup := testdb.SetupTestDB(t)
	t.Cleanup(cleanup)
	backend := store.NewSQLiteBackend(sqlDB)

	assetID := ids.Asset(testContract, big.NewInt(1))
	s := store.NewSession(context.Background(), backend)
	s.Upsert(&entity.Asset{ID: assetID, Contract: testContract, TokenID: "1", OwnerID: testAccount, IsFirstSale: true})
	s.Upsert(&entity.Account{ID: testAccount, NetRevenueInETH: decimal.RequireFromString("0.85")})
	s.Upsert(&entity.Creator{ID: testAccount, AccountID: testAccount, AssetCount: 1})
	s.Upsert(&entity.Auction{ID: testAuction, AuctionID: "7", AssetID: assetID, Status: entity.AuctionOpen, Position: ids.Position(5, 0, 0)})
	for i := uint64(0); i < 3; i++ {
		s.Upsert(&entity.HistoryRecord{
			ID:       ids.History(string(entity.HistoryTransferred), "0xabc", i),
			Kind:     entity.HistoryTransferred,
			AssetID:  assetID,
			LogIndex: i,
			Position: ids.Position(10, 0, i),
		})
	}
	s.Upsert(&entity.Bid{ID: testAuction + "-0xdef-1", AuctionID: testAuction, AssetID: assetID, Status: entity.BidHighest, Position: ids.Position(6, 0, 1)})
	s.Upsert(&entity.Checkpoint{ID: entity.CheckpointID, BlockNumber: 10, LogIndex: 2})
	require.NoError(t, s.Flush())
	return backend
}

func TestAssetsGetHandler(t *testing.T) {
	backend := setupBackend(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/assets/0x00000000000000000000000000000000000000BB/1", nil)
	result, err := AssetsGetHandler(req, backend)
	require.NoError(t, err)

	asset, ok := result.(*entity.Asset)
	require.True(t, ok, "result should be an asset")
	assert.Equal(t, testContract+"-1", asset.ID)
	assert.Equal(t, testAccount, asset.OwnerID)
	assert.True(t, asset.IsFirstSale)
}

func TestAssetsGetHandler_History(t *testing.T) {
	backend := setupBackend(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/assets/"+testContract+"/1/history?page=1&page_size=2", nil)
	result, err := AssetsGetHandler(req, backend)
	require.NoError(t, err)

	page, ok := result.(PaginatedResponse[entity.HistoryRecord])
	require.True(t, ok, "result should be a page of history records")
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Data, 2)
	assert.Equal(t, uint64(0), page.Data[0].LogIndex)
	assert.Equal(t, uint64(1), page.Data[1].LogIndex)
	assert.Nil(t, page.Prev)
	assert.NotNil(t, page.Next)
}

func TestAssetsGetHandler_NotFound(t *testing.T) {
	backend := setupBackend(t)

	testCases := []struct {
		name string
		path string
	}{
		{"unknown token", "/api/v1/assets/" + testContract + "/2"},
		{"history of unknown token", "/api/v1/assets/" + testContract + "/2/history"},
		{"invalid contract", "/api/v1/assets/nope/1"},
		{"invalid token id", "/api/v1/assets/" + testContract + "/abc"},
		{"missing token id", "/api/v1/assets/" + testContract},
		{"unknown sub resource", "/api/v1/assets/" + testContract + "/1/owners"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			_, err := AssetsGetHandler(req, backend)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestAuctionsGetHandler(t *testing.T) {
	backend := setupBackend(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auctions/"+testAuction, nil)
	result, err := AuctionsGetHandler(req, backend)
	require.NoError(t, err)
	auction := result.(*entity.Auction)
	assert.Equal(t, entity.AuctionOpen, auction.Status)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/auctions/"+testAuction+"/bids", nil)
	result, err = AuctionsGetHandler(req, backend)
	require.NoError(t, err)
	bids := result.(PaginatedResponse[entity.Bid])
	assert.Equal(t, 1, bids.Total)
	assert.Equal(t, entity.BidHighest, bids.Data[0].Status)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/auctions/0xaa-8", nil)
	_, err = AuctionsGetHandler(req, backend)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreatorsAndAccountsGetHandler(t *testing.T) {
	backend := setupBackend(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/creators/"+testAccount, nil)
	result, err := CreatorsGetHandler(req, backend)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.(*entity.Creator).AssetCount)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/accounts/"+testAccount, nil)
	result, err = AccountsGetHandler(req, backend)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.85").Equal(result.(*entity.Account).NetRevenueInETH))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/accounts/0x2222222222222222222222222222222222222222", nil)
	_, err = AccountsGetHandler(req, backend)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStatusGetHandler(t *testing.T) {
	backend := setupBackend(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	status, err := StatusGetHandler(req, backend)
	require.NoError(t, err)
	assert.Equal(t, "OK", status.Status)
	require.NotNil(t, status.LastBlock)
	assert.Equal(t, uint64(10), *status.LastBlock)
}

func TestStatusGetHandler_NoCheckpointYet(t *testing.T) {
	sqlDB, cleanup := testdb.SetupTestDB(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	status, err := StatusGetHandler(req, store.NewSQLiteBackend(sqlDB))
	require.NoError(t, err)
	assert.Equal(t, "OK", status.Status)
	assert.Nil(t, status.LastBlock)
}

func TestStatusGetHandler_StorageError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectQuery("SELECT body FROM documents WHERE kind = \\? AND id = \\?").
		WithArgs("checkpoint", entity.CheckpointID).
		WillReturnError(errors.New("database is locked"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	_, err = StatusGetHandler(req, store.NewSQLiteBackend(sqlDB))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
