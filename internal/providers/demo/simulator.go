package demo

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Simulate adds one order to a rotating demo shop every interval until ctx
// is done, so new-order notifications fire without a real store.
func (d *Dataset) Simulate(ctx context.Context, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	shops := d.Shops()
	if len(shops) == 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			shop := shops[i%len(shops)]
			order, err := d.AddOrder(shop.ID)
			if err != nil {
				logger.Warn("demo order simulation failed", zap.String("shop_id", shop.ID), zap.Error(err))
				continue
			}
			logger.Debug("demo order added",
				zap.String("shop_id", shop.ID),
				zap.Int64("order_id", order.ID),
			)
		}
	}
}
