package handlers

import (
	"errors"
	"net/http"

	"github.com/6529-Collections/marketview/internal/market/entity"
	"github.com/6529-Collections/marketview/internal/store"
)

type StatusResponse struct {
	Status string `json:"status"`
	// LastBlock is the block of the last applied event, nil before the first one.
	LastBlock *uint64 `json:"last_block"`
}

func StatusGetHandler(r *http.Request, backend store.Backend) (StatusResponse, error) {
	checkpoint, err := store.Get[entity.Checkpoint](r.Context(), backend, entity.CheckpointID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return StatusResponse{Status: "OK"}, nil
		}
		return StatusResponse{}, err
	}
	return StatusResponse{Status: "OK", LastBlock: &checkpoint.BlockNumber}, nil
}
