// Package events fans order events out to sinks. Delivery runs inside a
// protoactor actor so sinks see events one at a time, in publish order,
// off the request path.
package events

import (
	"context"

	"github.com/example/storefront/pkg/models"
	"go.uber.org/zap"
)

type Sink interface {
	Name() string
	Deliver(ctx context.Context, ev models.OrderEvent) error
}

// LogSink writes every event to the log.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.Named("order-events")}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(_ context.Context, ev models.OrderEvent) error {
	s.logger.Info("Order event",
		zap.String("type", ev.Type),
		zap.String("order_id", ev.OrderID),
		zap.String("user_id", ev.UserID),
		zap.String("status", string(ev.Status)),
		zap.String("previous_status", string(ev.PreviousStatus)),
		zap.Float64("total", ev.TotalAmount))
	return nil
}
