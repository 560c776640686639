package market

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/6529-Collections/marketview/internal/db"
	"github.com/6529-Collections/marketview/internal/db/testdb"
	"github.com/6529-Collections/marketview/internal/market/entity"
	"github.com/6529-Collections/marketview/internal/market/ids"
	"github.com/6529-Collections/marketview/internal/store"
	"github.com/6529-Collections/marketview/pkg/market/events"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	marketAddr  = "0x00000000000000000000000000000000000000aa"
	nftAddr     = "0x00000000000000000000000000000000000000bb"
	creatorAddr = "0x00000000000000000000000000000000000000c1"
	sellerAddr  = "0x00000000000000000000000000000000000000d1"
	buyerAddr   = "0x00000000000000000000000000000000000000e1"
	bidder1Addr = "0x00000000000000000000000000000000000000f1"
	bidder2Addr = "0x00000000000000000000000000000000000000f2"
)

// fakeReader splits every price 5% treasury, 10% creator, 85% owner.
type fakeReader struct {
	feeErr     error
	balanceErr error
	// balances is the head state; balancesAt overrides it at given blocks.
	balances   map[string]int64
	balancesAt map[uint64]map[string]int64
	feeCalls   int
	feeBlocks  []uint64
}

func (f *fakeReader) GetFees(ctx context.Context, blockNumber uint64, market string, nftContract string, tokenID *big.Int, price *big.Int) (events.RevenueSplit, error) {
	f.feeCalls++
	f.feeBlocks = append(f.feeBlocks, blockNumber)
	if f.feeErr != nil {
		return events.RevenueSplit{}, f.feeErr
	}
	return split(price), nil
}

func (f *fakeReader) BalanceOf(ctx context.Context, blockNumber uint64, contract string, owner string) (*big.Int, error) {
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	if at, ok := f.balancesAt[blockNumber]; ok {
		if balance, ok := at[owner]; ok {
			return big.NewInt(balance), nil
		}
	}
	return big.NewInt(f.balances[owner]), nil
}

func split(price *big.Int) events.RevenueSplit {
	treasury := new(big.Int).Div(new(big.Int).Mul(price, big.NewInt(5)), big.NewInt(100))
	creator := new(big.Int).Div(new(big.Int).Mul(price, big.NewInt(10)), big.NewInt(100))
	owner := new(big.Int).Sub(price, treasury)
	owner.Sub(owner, creator)
	return events.RevenueSplit{
		TreasuryFee:        treasury,
		CreatorRev:         creator,
		PreviousCreatorRev: big.NewInt(0),
		OwnerRev:           owner,
	}
}

// eth converts whole ether to wei.
func eth(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func assertETH(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

type harness struct {
	t       *testing.T
	ctx     context.Context
	engine  *Engine
	reader  *fakeReader
	backend store.Backend

	block uint64
	time  uint64
	tx    string
	log   uint64
	txIdx uint64
}

func newSQLiteBackend(t *testing.T) store.Backend {
	sqlDB, cleanup := testdb.SetupTestDB(t)
	t.Cleanup(cleanup)
	return store.NewSQLiteBackend(sqlDB)
}

func newBadgerBackend(t *testing.T) store.Backend {
	kv, err := db.OpenBadger(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })
	return store.NewBadgerBackend(kv)
}

// forEachBackend runs a scenario once per store backend.
func forEachBackend(t *testing.T, fn func(t *testing.T, h *harness)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, newHarnessWith(t, newSQLiteBackend(t))) })
	t.Run("badger", func(t *testing.T) { fn(t, newHarnessWith(t, newBadgerBackend(t))) })
}

func newHarness(t *testing.T) *harness {
	return newHarnessWith(t, newSQLiteBackend(t))
}

func newHarnessWith(t *testing.T, backend store.Backend) *harness {
	reader := &fakeReader{balances: map[string]int64{}}
	return &harness{
		t:       t,
		ctx:     context.Background(),
		engine:  NewEngine(backend, reader, Config{MarketContracts: []string{marketAddr}, TransferScanDepth: 64}),
		reader:  reader,
		backend: backend,
		block:   100,
		time:    1_700_000_000,
	}
}

// newTx starts a new transaction in the next block, seconds after the
// previous one.
func (h *harness) newTx(seconds uint64) {
	h.block++
	h.time += seconds
	h.txIdx = 0
	h.log = 0
	h.tx = fmt.Sprintf("0x%064x", h.block)
}

func (h *harness) meta(contract string) events.Meta {
	m := events.Meta{
		Contract:         contract,
		BlockNumber:      h.block,
		TransactionIndex: h.txIdx,
		LogIndex:         h.log,
		BlockTime:        h.time,
		TxHash:           h.tx,
	}
	h.log++
	return m
}

func (h *harness) handle(event events.Event) {
	h.t.Helper()
	require.NoError(h.t, h.engine.Handle(h.ctx, event))
}

func (h *harness) assetID(tokenID int64) string {
	return ids.Asset(nftAddr, big.NewInt(tokenID))
}

func (h *harness) mint(tokenID int64) {
	h.newTx(12)
	h.handle(events.Transfer{Meta: h.meta(nftAddr), From: zeroAddress, To: creatorAddr, TokenID: big.NewInt(tokenID)})
	h.handle(events.Minted{Meta: h.meta(nftAddr), Creator: creatorAddr, TokenID: big.NewInt(tokenID), PublicationID: big.NewInt(1), PreviousCreator: zeroAddress})
}

func (h *harness) transfer(from, to string, tokenID int64) {
	h.handle(events.Transfer{Meta: h.meta(nftAddr), From: from, To: to, TokenID: big.NewInt(tokenID)})
}

func (h *harness) asset(tokenID int64) *entity.Asset {
	h.t.Helper()
	asset, err := store.Get[entity.Asset](h.ctx, h.backend, h.assetID(tokenID))
	require.NoError(h.t, err)
	return asset
}

func (h *harness) creator() *entity.Creator {
	h.t.Helper()
	creator, err := store.Get[entity.Creator](h.ctx, h.backend, ids.Creator(creatorAddr))
	require.NoError(h.t, err)
	return creator
}

func (h *harness) account(address string) *entity.Account {
	h.t.Helper()
	account, err := store.Get[entity.Account](h.ctx, h.backend, ids.Account(address))
	require.NoError(h.t, err)
	return account
}

func (h *harness) history(tokenID int64) []*entity.HistoryRecord {
	h.t.Helper()
	_, records, err := store.List[entity.HistoryRecord](h.ctx, h.backend, h.assetID(tokenID), 1, 1000)
	require.NoError(h.t, err)
	return records
}

func historyKinds(records []*entity.HistoryRecord) map[entity.HistoryKind]int {
	counts := make(map[entity.HistoryKind]int)
	for _, r := range records {
		counts[r.Kind]++
	}
	return counts
}

func load[T any, PT interface {
	*T
	store.Document
}](h *harness, id string) PT {
	h.t.Helper()
	doc, err := store.Get[T, PT](h.ctx, h.backend, id)
	require.NoError(h.t, err)
	return doc
}
