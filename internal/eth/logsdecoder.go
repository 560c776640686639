package eth

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/6529-Collections/marketview/pkg/market/events"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type EthTransactionLogsDecoder interface {
	// Decode turns one log into a typed event. Logs with an unknown
	// signature decode to nil without an error.
	Decode(lg types.Log, meta events.Meta) (events.Event, error)
}

type DefaultEthTransactionLogsDecoder struct {
	byTopic map[common.Hash]abi.Event
}

func NewDefaultEthTransactionLogsDecoder() *DefaultEthTransactionLogsDecoder {
	byTopic := make(map[common.Hash]abi.Event)
	for _, parsed := range []abi.ABI{marketABI, assetABI} {
		for _, ev := range parsed.Events {
			byTopic[ev.ID] = ev
		}
	}
	return &DefaultEthTransactionLogsDecoder{byTopic: byTopic}
}

func (d *DefaultEthTransactionLogsDecoder) Decode(lg types.Log, meta events.Meta) (events.Event, error) {
	if len(lg.Topics) == 0 {
		return nil, nil
	}
	ev, ok := d.byTopic[lg.Topics[0]]
	if !ok {
		return nil, nil
	}

	fields, err := unpackLog(ev, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s at %s:%d: %w", ev.Name, lg.TxHash.Hex(), lg.Index, err)
	}

	meta.Contract = lg.Address.Hex()
	meta.BlockNumber = lg.BlockNumber
	meta.TransactionIndex = uint64(lg.TxIndex)
	meta.LogIndex = uint64(lg.Index)
	meta.TxHash = lg.TxHash.Hex()
	meta.Normalize()

	decoded, err := buildEvent(ev.Name, meta, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s at %s:%d: %w", ev.Name, lg.TxHash.Hex(), lg.Index, err)
	}
	return decoded, nil
}

func unpackLog(ev abi.Event, lg types.Log) (fieldValues, error) {
	fields := make(map[string]interface{})

	var indexed abi.Arguments
	var nonIndexed abi.Arguments
	for _, arg := range ev.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		} else {
			nonIndexed = append(nonIndexed, arg)
		}
	}

	if len(lg.Topics)-1 != len(indexed) {
		return nil, fmt.Errorf("expected %d indexed topics, got %d", len(indexed), len(lg.Topics)-1)
	}
	if err := abi.ParseTopicsIntoMap(fields, indexed, lg.Topics[1:]); err != nil {
		return nil, err
	}
	if len(nonIndexed) > 0 {
		if err := nonIndexed.UnpackIntoMap(fields, lg.Data); err != nil {
			return nil, err
		}
	}
	return fields, nil
}

type fieldValues map[string]interface{}

func (f fieldValues) address(name string) (string, error) {
	v, ok := f[name].(common.Address)
	if !ok {
		return "", fmt.Errorf("field %s is not an address", name)
	}
	return strings.ToLower(v.Hex()), nil
}

func (f fieldValues) uint(name string) (*big.Int, error) {
	v, ok := f[name].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("field %s is not a uint256", name)
	}
	return v, nil
}

func (f fieldValues) revenue() (events.RevenueSplit, error) {
	var split events.RevenueSplit
	var err error
	if split.TreasuryFee, err = f.uint("treasuryFee"); err != nil {
		return split, err
	}
	if split.CreatorRev, err = f.uint("creatorRev"); err != nil {
		return split, err
	}
	if split.PreviousCreatorRev, err = f.uint("previousCreatorRev"); err != nil {
		return split, err
	}
	if split.OwnerRev, err = f.uint("ownerRev"); err != nil {
		return split, err
	}
	return split, nil
}

// fieldReader collects the first lookup error so event construction reads
// as a flat list of assignments.
type fieldReader struct {
	fields fieldValues
	err    error
}

func (r *fieldReader) address(name string) string {
	if r.err != nil {
		return ""
	}
	v, err := r.fields.address(name)
	r.err = err
	return v
}

func (r *fieldReader) uint(name string) *big.Int {
	if r.err != nil {
		return nil
	}
	v, err := r.fields.uint(name)
	r.err = err
	return v
}

func (r *fieldReader) revenue() events.RevenueSplit {
	if r.err != nil {
		return events.RevenueSplit{}
	}
	v, err := r.fields.revenue()
	r.err = err
	return v
}

func (r *fieldReader) str(name string) string {
	if r.err != nil {
		return ""
	}
	v, ok := r.fields[name].(string)
	if !ok {
		r.err = fmt.Errorf("field %s is not a string", name)
	}
	return v
}

func (r *fieldReader) boolean(name string) bool {
	if r.err != nil {
		return false
	}
	v, ok := r.fields[name].(bool)
	if !ok {
		r.err = fmt.Errorf("field %s is not a bool", name)
	}
	return v
}

func buildEvent(name string, meta events.Meta, fields fieldValues) (events.Event, error) {
	r := &fieldReader{fields: fields}
	var ev events.Event

	switch name {
	case "Transfer":
		ev = events.Transfer{Meta: meta, From: r.address("from"), To: r.address("to"), TokenID: r.uint("tokenId")}
	case "Minted":
		ev = events.Minted{
			Meta:            meta,
			Creator:         r.address("creator"),
			TokenID:         r.uint("tokenId"),
			PublicationID:   r.uint("publicationId"),
			PreviousCreator: r.address("previousCreator"),
		}
	case "ApprovalForAll":
		ev = events.ApprovalForAll{Meta: meta, Owner: r.address("owner"), Operator: r.address("operator"), Approved: r.boolean("approved")}
	case "BuyPriceSet":
		ev = events.BuyPriceSet{
			Meta:        meta,
			NFTContract: r.address("nftContract"),
			TokenID:     r.uint("tokenId"),
			Seller:      r.address("seller"),
			Price:       r.uint("price"),
		}
	case "BuyPriceAccepted":
		ev = events.BuyPriceAccepted{
			Meta:         meta,
			NFTContract:  r.address("nftContract"),
			TokenID:      r.uint("tokenId"),
			Seller:       r.address("seller"),
			Buyer:        r.address("buyer"),
			RevenueSplit: r.revenue(),
		}
	case "BuyPriceCanceled":
		ev = events.BuyPriceCanceled{Meta: meta, NFTContract: r.address("nftContract"), TokenID: r.uint("tokenId")}
	case "BuyPriceInvalidated":
		ev = events.BuyPriceInvalidated{Meta: meta, NFTContract: r.address("nftContract"), TokenID: r.uint("tokenId")}
	case "ReserveAuctionCreated":
		ev = events.ReserveAuctionCreated{
			Meta:              meta,
			Seller:            r.address("seller"),
			NFTContract:       r.address("nftContract"),
			TokenID:           r.uint("tokenId"),
			Duration:          r.uint("duration"),
			ExtensionDuration: r.uint("extensionDuration"),
			ReservePrice:      r.uint("reservePrice"),
			AuctionID:         r.uint("auctionId"),
		}
	case "ReserveAuctionBidPlaced":
		ev = events.ReserveAuctionBidPlaced{
			Meta:      meta,
			AuctionID: r.uint("auctionId"),
			Bidder:    r.address("bidder"),
			Amount:    r.uint("amount"),
			EndTime:   r.uint("endTime"),
		}
	case "ReserveAuctionUpdated":
		ev = events.ReserveAuctionUpdated{Meta: meta, AuctionID: r.uint("auctionId"), ReservePrice: r.uint("reservePrice")}
	case "ReserveAuctionCanceled":
		ev = events.ReserveAuctionCanceled{Meta: meta, AuctionID: r.uint("auctionId")}
	case "ReserveAuctionCanceledByAdmin":
		ev = events.ReserveAuctionCanceledByAdmin{Meta: meta, AuctionID: r.uint("auctionId"), Reason: r.str("reason")}
	case "ReserveAuctionFinalized":
		ev = events.ReserveAuctionFinalized{
			Meta:         meta,
			AuctionID:    r.uint("auctionId"),
			Seller:       r.address("seller"),
			Bidder:       r.address("bidder"),
			RevenueSplit: r.revenue(),
		}
	case "ReserveAuctionInvalidated":
		ev = events.ReserveAuctionInvalidated{Meta: meta, AuctionID: r.uint("auctionId")}
	case "OfferMade":
		ev = events.OfferMade{
			Meta:        meta,
			NFTContract: r.address("nftContract"),
			TokenID:     r.uint("tokenId"),
			Buyer:       r.address("buyer"),
			Amount:      r.uint("amount"),
			Expiration:  r.uint("expiration"),
		}
	case "OfferAccepted":
		ev = events.OfferAccepted{
			Meta:         meta,
			NFTContract:  r.address("nftContract"),
			TokenID:      r.uint("tokenId"),
			Buyer:        r.address("buyer"),
			Seller:       r.address("seller"),
			RevenueSplit: r.revenue(),
		}
	case "OfferInvalidated":
		ev = events.OfferInvalidated{Meta: meta, NFTContract: r.address("nftContract"), TokenID: r.uint("tokenId")}
	default:
		return nil, nil
	}

	if r.err != nil {
		return nil, r.err
	}
	return ev, nil
}
