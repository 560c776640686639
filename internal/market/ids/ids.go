// Package ids derives the deterministic entity identifiers of the
// materialized view. Every function is pure; the same inputs always yield the
// same id.
package ids

import (
	"fmt"
	"math/big"
	"strings"
)

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func decimalString(n *big.Int) string {
	if n == nil {
		return "0"
	}
	return n.String()
}

// Asset is <contract>-<tokenId>.
func Asset(contract string, tokenID *big.Int) string {
	return lower(contract) + "-" + decimalString(tokenID)
}

func Account(address string) string {
	return lower(address)
}

func Creator(address string) string {
	return lower(address)
}

func Publication(contract string, publicationID *big.Int) string {
	return lower(contract) + "-" + decimalString(publicationID)
}

func AccountCollection(account, contract string) string {
	return lower(account) + "-" + lower(contract)
}

func Approval(contract, owner, operator string) string {
	return lower(contract) + "-" + lower(owner) + "-" + lower(operator)
}

// Auction ids are scoped by the market contract since the auction counter is
// per contract.
func Auction(market string, auctionID *big.Int) string {
	return lower(market) + "-" + decimalString(auctionID)
}

// Bid is <auction>-<tx>-<logIndex>.
func Bid(auction string, txHash string, logIndex uint64) string {
	return fmt.Sprintf("%s-%s-%d", auction, lower(txHash), logIndex)
}

// BuyNow is <asset>-<tx>-<logIndex> of the event that opened the listing.
func BuyNow(asset string, txHash string, logIndex uint64) string {
	return fmt.Sprintf("%s-%s-%d", asset, lower(txHash), logIndex)
}

func Offer(asset string, txHash string, logIndex uint64) string {
	return fmt.Sprintf("%s-%s-%d", asset, lower(txHash), logIndex)
}

// History is <kind>-<tx>-<logIndex>; one record per kind per log position.
func History(kind string, txHash string, logIndex uint64) string {
	return fmt.Sprintf("%s-%s-%d", kind, lower(txHash), logIndex)
}

func ProcessedEvent(txHash string, logIndex uint64) string {
	return fmt.Sprintf("%s-%d", lower(txHash), logIndex)
}

// Position renders a chain position so that lexical order equals chain order.
func Position(blockNumber, transactionIndex, logIndex uint64) string {
	return fmt.Sprintf("%020d:%010d:%010d", blockNumber, transactionIndex, logIndex)
}
