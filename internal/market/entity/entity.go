// Package entity holds the documents of the materialized marketplace view.
// References between entities are plain id fields; nothing owns anything.
package entity

import (
	"math/big"

	"github.com/6529-Collections/marketview/internal/store"
	"github.com/shopspring/decimal"
)

const (
	KindAsset              store.Kind = "asset"
	KindAccount            store.Kind = "account"
	KindCreator            store.Kind = "creator"
	KindPublication        store.Kind = "publication"
	KindAccountCollection  store.Kind = "account_collection"
	KindApproval           store.Kind = "approval"
	KindBuyNow             store.Kind = "buy_now"
	KindAuction            store.Kind = "auction"
	KindBid                store.Kind = "bid"
	KindOffer              store.Kind = "offer"
	KindHistory            store.Kind = "history"
	KindTransferRetraction store.Kind = "transfer_retraction"
	KindProcessedEvent     store.Kind = "processed_event"
	KindCheckpoint         store.Kind = "checkpoint"
)

const weiDecimals = 18

// ETH converts a wei amount to ether. A nil amount is zero.
func ETH(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -weiDecimals)
}
