package main

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/6529-Collections/marketview/internal/config"
	"github.com/6529-Collections/marketview/internal/market/entity"
	"github.com/6529-Collections/marketview/internal/market/ids"
	"github.com/6529-Collections/marketview/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend(t *testing.T) {
	testCases := []struct {
		name    string
		backend string
	}{
		{"default", ""},
		{"sqlite", config.StoreBackendSqlite},
		{"badger", config.StoreBackendBadger},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			backend, err := openBackend(config.Config{
				StoreBackend: tc.backend,
				SqlitePath:   filepath.Join(dir, "sqlite", "sqlite"),
				BadgerPath:   filepath.Join(dir, "badger"),
			})
			require.NoError(t, err)
			defer backend.Close()

			assetID := ids.Asset("0xabc", big.NewInt(1))
			s := store.NewSession(context.Background(), backend)
			s.Upsert(&entity.Asset{ID: assetID, Contract: "0xabc", TokenID: "1"})
			require.NoError(t, s.Flush())

			asset, err := store.Get[entity.Asset](context.Background(), backend, assetID)
			require.NoError(t, err)
			assert.Equal(t, "1", asset.TokenID)
		})
	}
}

func TestOpenBackend_Unknown(t *testing.T) {
	_, err := openBackend(config.Config{StoreBackend: "postgres"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store backend")
}
