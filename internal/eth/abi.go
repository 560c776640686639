package eth

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const marketABIJSON = `[
  {"anonymous":false,"name":"BuyPriceSet","type":"event","inputs":[
    {"indexed":true,"name":"nftContract","type":"address"},
    {"indexed":true,"name":"tokenId","type":"uint256"},
    {"indexed":true,"name":"seller","type":"address"},
    {"indexed":false,"name":"price","type":"uint256"}]},
  {"anonymous":false,"name":"BuyPriceAccepted","type":"event","inputs":[
    {"indexed":true,"name":"nftContract","type":"address"},
    {"indexed":true,"name":"tokenId","type":"uint256"},
    {"indexed":true,"name":"seller","type":"address"},
    {"indexed":false,"name":"buyer","type":"address"},
    {"indexed":false,"name":"treasuryFee","type":"uint256"},
    {"indexed":false,"name":"creatorRev","type":"uint256"},
    {"indexed":false,"name":"previousCreatorRev","type":"uint256"},
    {"indexed":false,"name":"ownerRev","type":"uint256"}]},
  {"anonymous":false,"name":"BuyPriceCanceled","type":"event","inputs":[
    {"indexed":true,"name":"nftContract","type":"address"},
    {"indexed":true,"name":"tokenId","type":"uint256"}]},
  {"anonymous":false,"name":"BuyPriceInvalidated","type":"event","inputs":[
    {"indexed":true,"name":"nftContract","type":"address"},
    {"indexed":true,"name":"tokenId","type":"uint256"}]},
  {"anonymous":false,"name":"ReserveAuctionCreated","type":"event","inputs":[
    {"indexed":true,"name":"seller","type":"address"},
    {"indexed":true,"name":"nftContract","type":"address"},
    {"indexed":true,"name":"tokenId","type":"uint256"},
    {"indexed":false,"name":"duration","type":"uint256"},
    {"indexed":false,"name":"extensionDuration","type":"uint256"},
    {"indexed":false,"name":"reservePrice","type":"uint256"},
    {"indexed":false,"name":"auctionId","type":"uint256"}]},
  {"anonymous":false,"name":"ReserveAuctionBidPlaced","type":"event","inputs":[
    {"indexed":true,"name":"auctionId","type":"uint256"},
    {"indexed":true,"name":"bidder","type":"address"},
    {"indexed":false,"name":"amount","type":"uint256"},
    {"indexed":false,"name":"endTime","type":"uint256"}]},
  {"anonymous":false,"name":"ReserveAuctionUpdated","type":"event","inputs":[
    {"indexed":true,"name":"auctionId","type":"uint256"},
    {"indexed":false,"name":"reservePrice","type":"uint256"}]},
  {"anonymous":false,"name":"ReserveAuctionCanceled","type":"event","inputs":[
    {"indexed":true,"name":"auctionId","type":"uint256"}]},
  {"anonymous":false,"name":"ReserveAuctionCanceledByAdmin","type":"event","inputs":[
    {"indexed":true,"name":"auctionId","type":"uint256"},
    {"indexed":false,"name":"reason","type":"string"}]},
  {"anonymous":false,"name":"ReserveAuctionFinalized","type":"event","inputs":[
    {"indexed":true,"name":"auctionId","type":"uint256"},
    {"indexed":true,"name":"seller","type":"address"},
    {"indexed":true,"name":"bidder","type":"address"},
    {"indexed":false,"name":"treasuryFee","type":"uint256"},
    {"indexed":false,"name":"creatorRev","type":"uint256"},
    {"indexed":false,"name":"previousCreatorRev","type":"uint256"},
    {"indexed":false,"name":"ownerRev","type":"uint256"}]},
  {"anonymous":false,"name":"ReserveAuctionInvalidated","type":"event","inputs":[
    {"indexed":true,"name":"auctionId","type":"uint256"}]},
  {"anonymous":false,"name":"OfferMade","type":"event","inputs":[
    {"indexed":true,"name":"nftContract","type":"address"},
    {"indexed":true,"name":"tokenId","type":"uint256"},
    {"indexed":true,"name":"buyer","type":"address"},
    {"indexed":false,"name":"amount","type":"uint256"},
    {"indexed":false,"name":"expiration","type":"uint256"}]},
  {"anonymous":false,"name":"OfferAccepted","type":"event","inputs":[
    {"indexed":true,"name":"nftContract","type":"address"},
    {"indexed":true,"name":"tokenId","type":"uint256"},
    {"indexed":true,"name":"buyer","type":"address"},
    {"indexed":false,"name":"seller","type":"address"},
    {"indexed":false,"name":"treasuryFee","type":"uint256"},
    {"indexed":false,"name":"creatorRev","type":"uint256"},
    {"indexed":false,"name":"previousCreatorRev","type":"uint256"},
    {"indexed":false,"name":"ownerRev","type":"uint256"}]},
  {"anonymous":false,"name":"OfferInvalidated","type":"event","inputs":[
    {"indexed":true,"name":"nftContract","type":"address"},
    {"indexed":true,"name":"tokenId","type":"uint256"}]},
  {"name":"getFees","type":"function","stateMutability":"view","inputs":[
    {"name":"nftContract","type":"address"},
    {"name":"tokenId","type":"uint256"},
    {"name":"price","type":"uint256"}],"outputs":[
    {"name":"treasuryFee","type":"uint256"},
    {"name":"creatorRev","type":"uint256"},
    {"name":"previousCreatorRev","type":"uint256"},
    {"name":"ownerRev","type":"uint256"}]}
]`

const assetABIJSON = `[
  {"anonymous":false,"name":"Transfer","type":"event","inputs":[
    {"indexed":true,"name":"from","type":"address"},
    {"indexed":true,"name":"to","type":"address"},
    {"indexed":true,"name":"tokenId","type":"uint256"}]},
  {"anonymous":false,"name":"Minted","type":"event","inputs":[
    {"indexed":true,"name":"creator","type":"address"},
    {"indexed":true,"name":"tokenId","type":"uint256"},
    {"indexed":true,"name":"publicationId","type":"uint256"},
    {"indexed":false,"name":"previousCreator","type":"address"}]},
  {"anonymous":false,"name":"ApprovalForAll","type":"event","inputs":[
    {"indexed":true,"name":"owner","type":"address"},
    {"indexed":true,"name":"operator","type":"address"},
    {"indexed":false,"name":"approved","type":"bool"}]},
  {"name":"balanceOf","type":"function","stateMutability":"view","inputs":[
    {"name":"owner","type":"address"}],"outputs":[
    {"name":"","type":"uint256"}]}
]`

var marketABI abi.ABI
var assetABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(marketABIJSON))
	if err != nil {
		panic("failed to parse market ABI")
	}
	marketABI = parsed

	parsed, err = abi.JSON(strings.NewReader(assetABIJSON))
	if err != nil {
		panic("failed to parse asset ABI")
	}
	assetABI = parsed
}
