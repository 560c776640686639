package eth

import (
	"context"
	"fmt"

	"github.com/6529-Collections/marketview/pkg/market/events"
	"go.uber.org/zap"
)

type EventHandler interface {
	Handle(ctx context.Context, event events.Event) error
}

type MarketEventsReceivedAction interface {
	Handle(batch events.EventBatch) error
}

type DefaultMarketEventsReceivedAction struct {
	ctx     context.Context
	handler EventHandler
}

func NewDefaultMarketEventsReceivedAction(ctx context.Context, handler EventHandler) *DefaultMarketEventsReceivedAction {
	return &DefaultMarketEventsReceivedAction{
		ctx:     ctx,
		handler: handler,
	}
}

// Handle applies the batch in order and stops at the first failure, so the
// caller can restart from the last committed checkpoint.
func (a *DefaultMarketEventsReceivedAction) Handle(batch events.EventBatch) error {
	for _, ev := range batch.Events {
		if err := a.handler.Handle(a.ctx, ev); err != nil {
			meta := ev.EventMeta()
			zap.L().Error("Failed to apply market event",
				zap.String("event", ev.EventName()),
				zap.Uint64("block", meta.BlockNumber),
				zap.String("tx", meta.TxHash),
				zap.Uint64("logIndex", meta.LogIndex),
				zap.Error(err),
			)
			return fmt.Errorf("failed to apply %s at block %d: %w", ev.EventName(), meta.BlockNumber, err)
		}
	}
	return nil
}
