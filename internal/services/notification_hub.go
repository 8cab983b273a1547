package services

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/niaga-platform/service-wooadmin/internal/events"
)

// Notifier receives the new orders of one polling cycle.
type Notifier interface {
	NotifyNewOrders(ctx context.Context, batch events.NewOrdersBatch) error
}

const hubBufferSize = 8

// NotificationHub fans new-order batches out to the operator's open
// notification streams.
type NotificationHub struct {
	mu     sync.Mutex
	subs   map[string]map[int]chan events.NewOrdersBatch
	nextID int
	logger *zap.Logger
}

// NewNotificationHub creates an empty hub.
func NewNotificationHub(logger *zap.Logger) *NotificationHub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationHub{
		subs:   make(map[string]map[int]chan events.NewOrdersBatch),
		logger: logger,
	}
}

// Subscribe registers a stream for ownerID. The returned cancel func must be
// called to release it; it closes the channel.
func (h *NotificationHub) Subscribe(ownerID string) (<-chan events.NewOrdersBatch, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan events.NewOrdersBatch, hubBufferSize)
	if h.subs[ownerID] == nil {
		h.subs[ownerID] = make(map[int]chan events.NewOrdersBatch)
	}
	h.subs[ownerID][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[ownerID], id)
			if len(h.subs[ownerID]) == 0 {
				delete(h.subs, ownerID)
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers returns the number of open streams of ownerID.
func (h *NotificationHub) Subscribers(ownerID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[ownerID])
}

// NotifyNewOrders implements Notifier. A stream that is not keeping up
// misses the batch.
func (h *NotificationHub) NotifyNewOrders(ctx context.Context, batch events.NewOrdersBatch) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ownerID, subs := range h.subs {
		own := batch.ForOwner(ownerID)
		if len(own.Events) == 0 {
			continue
		}
		for _, ch := range subs {
			select {
			case ch <- own:
			default:
				h.logger.Warn("notification stream full, batch dropped", zap.String("owner_id", ownerID))
			}
		}
	}
	return nil
}
