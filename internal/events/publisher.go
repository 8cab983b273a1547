package events

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Publisher handles publishing events to NATS. A Publisher without a
// connection drops events, so the service runs without a broker.
type Publisher struct {
	nc     *nats.Conn
	logger *zap.Logger
}

// NewPublisher creates a new NATS publisher
func NewPublisher(nc *nats.Conn, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{nc: nc, logger: logger}
}

// Enabled reports whether events reach a broker.
func (p *Publisher) Enabled() bool {
	return p != nil && p.nc != nil
}

// NotifyNewOrders publishes each new order on its own message.
func (p *Publisher) NotifyNewOrders(ctx context.Context, batch NewOrdersBatch) error {
	if !p.Enabled() {
		return nil
	}
	for _, event := range batch.Events {
		if err := p.publish(SubjectOrderNew, event); err != nil {
			return err
		}
	}
	p.logger.Debug("Published new order events", zap.Int("count", len(batch.Events)))
	return nil
}

// PublishOrderStatusUpdated publishes a status change
func (p *Publisher) PublishOrderStatusUpdated(ctx context.Context, event OrderStatusUpdatedEvent) error {
	if !p.Enabled() {
		return nil
	}
	return p.publish(SubjectOrderStatusUpdated, event)
}

func (p *Publisher) publish(subject string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Error("Failed to publish event", zap.String("subject", subject), zap.Error(err))
		return err
	}
	return nil
}
