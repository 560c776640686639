package entity

import "github.com/6529-Collections/marketview/internal/store"

// ProcessedEvent marks a log position as applied, so a redelivered event
// is skipped.
type ProcessedEvent struct {
	ID          string `json:"id"`
	EventName   string `json:"event_name"`
	BlockNumber uint64 `json:"block_number"`
}

func (p *ProcessedEvent) DocumentKind() store.Kind   { return KindProcessedEvent }
func (p *ProcessedEvent) DocumentID() string         { return p.ID }
func (p *ProcessedEvent) DocumentIndex() store.Index { return store.Index{} }

const CheckpointID = "market"

// Checkpoint is the position of the last event applied to the view.
type Checkpoint struct {
	ID               string `json:"id"`
	BlockNumber      uint64 `json:"block_number"`
	TransactionIndex uint64 `json:"transaction_index"`
	LogIndex         uint64 `json:"log_index"`
}

func (c *Checkpoint) DocumentKind() store.Kind   { return KindCheckpoint }
func (c *Checkpoint) DocumentID() string         { return c.ID }
func (c *Checkpoint) DocumentIndex() store.Index { return store.Index{} }
