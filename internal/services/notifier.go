package services

import (
	"context"
	"time"

	"github.com/yungbote/cytorepo-backend/internal/clients/redis"
	"github.com/yungbote/cytorepo-backend/internal/domain/processing"
	"github.com/yungbote/cytorepo-backend/internal/observability"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
)

// Notifier publishes lifecycle events after commit. Publishing is best effort
// and never fails the operation that produced the event.
type Notifier interface {
	Publish(ctx context.Context, ev processing.ProcessRequestEvent)
}

type notifier struct {
	log     *logger.Logger
	bus     redis.EventBus
	metrics *observability.Metrics
	timeout time.Duration
}

// NewNotifier returns a notifier over bus; a nil bus only logs at debug level.
func NewNotifier(log *logger.Logger, bus redis.EventBus, metrics *observability.Metrics) Notifier {
	return &notifier{
		log:     log.With("service", "Notifier"),
		bus:     bus,
		metrics: metrics,
		timeout: 2 * time.Second,
	}
}

func (n *notifier) Publish(ctx context.Context, ev processing.ProcessRequestEvent) {
	if n == nil {
		return
	}
	if n.bus == nil {
		n.log.Debug("event", "type", ev.Type, "process_request_id", ev.ProcessRequestID)
		n.metrics.IncEventPublish("skipped")
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()
	if err := n.bus.Publish(pubCtx, ev); err != nil {
		n.log.Warn("event publish failed", "error", err, "type", ev.Type, "process_request_id", ev.ProcessRequestID)
		n.metrics.IncEventPublish("failed")
		return
	}
	n.metrics.IncEventPublish("published")
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) Publish(context.Context, processing.ProcessRequestEvent) {}
