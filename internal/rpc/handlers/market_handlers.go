package handlers

import (
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"github.com/6529-Collections/marketview/internal/market/entity"
	"github.com/6529-Collections/marketview/internal/market/ids"
	"github.com/6529-Collections/marketview/internal/store"
	"github.com/ethereum/go-ethereum/common"
)

// pathParts returns the path segments after /api/v1/<resource>/.
func pathParts(r *http.Request) []string {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) <= 3 {
		return nil
	}
	return parts[3:]
}

func getDocument[T any, PT interface {
	*T
	store.Document
}](r *http.Request, backend store.Backend, id string) (PT, error) {
	doc, err := store.Get[T, PT](r.Context(), backend, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return doc, nil
}

func listDocuments[T any, PT interface {
	*T
	store.Document
}](r *http.Request, backend store.Backend, assetID string) (PaginatedResponse[T], error) {
	page, pageSize := ExtractPagination(r)
	total, docs, err := store.List[T, PT](r.Context(), backend, assetID, page, pageSize)
	if err != nil {
		return PaginatedResponse[T]{}, err
	}
	data := make([]*T, len(docs))
	for i, doc := range docs {
		data[i] = doc
	}
	resp := PaginatedResponse[T]{
		Page:     page,
		PageSize: pageSize,
		Data:     data,
	}
	resp.ReturnPaginatedData(r, total)
	return resp, nil
}

func parseAddress(s string) (string, error) {
	if !common.IsHexAddress(s) {
		return "", fmt.Errorf("invalid address %q: %w", s, ErrNotFound)
	}
	return strings.ToLower(s), nil
}

// AssetsGetHandler serves /assets/{contract}/{tokenId} and
// /assets/{contract}/{tokenId}/history.
func AssetsGetHandler(r *http.Request, backend store.Backend) (any, error) {
	parts := pathParts(r)
	if len(parts) < 2 || len(parts) > 3 {
		return nil, ErrNotFound
	}
	contract, err := parseAddress(parts[0])
	if err != nil {
		return nil, err
	}
	tokenID, ok := new(big.Int).SetString(parts[1], 10)
	if !ok {
		return nil, fmt.Errorf("invalid token id %q: %w", parts[1], ErrNotFound)
	}
	assetID := ids.Asset(contract, tokenID)

	if len(parts) == 3 {
		if parts[2] != "history" {
			return nil, ErrNotFound
		}
		if _, err := getDocument[entity.Asset](r, backend, assetID); err != nil {
			return nil, err
		}
		return listDocuments[entity.HistoryRecord](r, backend, assetID)
	}
	return getDocument[entity.Asset](r, backend, assetID)
}

// AuctionsGetHandler serves /auctions/{id} and /auctions/{id}/bids where id
// is the auction entity id.
func AuctionsGetHandler(r *http.Request, backend store.Backend) (any, error) {
	parts := pathParts(r)
	if len(parts) < 1 || len(parts) > 2 {
		return nil, ErrNotFound
	}
	auctionID := strings.ToLower(parts[0])

	if len(parts) == 2 {
		if parts[1] != "bids" {
			return nil, ErrNotFound
		}
		if _, err := getDocument[entity.Auction](r, backend, auctionID); err != nil {
			return nil, err
		}
		return listDocuments[entity.Bid](r, backend, auctionID)
	}
	return getDocument[entity.Auction](r, backend, auctionID)
}

func CreatorsGetHandler(r *http.Request, backend store.Backend) (any, error) {
	parts := pathParts(r)
	if len(parts) != 1 {
		return nil, ErrNotFound
	}
	address, err := parseAddress(parts[0])
	if err != nil {
		return nil, err
	}
	return getDocument[entity.Creator](r, backend, ids.Creator(address))
}

func AccountsGetHandler(r *http.Request, backend store.Backend) (any, error) {
	parts := pathParts(r)
	if len(parts) != 1 {
		return nil, ErrNotFound
	}
	address, err := parseAddress(parts[0])
	if err != nil {
		return nil, err
	}
	return getDocument[entity.Account](r, backend, ids.Account(address))
}
