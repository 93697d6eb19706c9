package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/storefront/pkg/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Handler processes one decoded event. Returning an error dead-letters the
// message.
type Handler func(ctx context.Context, ev models.OrderEvent) error

type Consumer struct {
	handler Handler
	logger  *zap.Logger
}

func NewConsumer(handler Handler, logger *zap.Logger) *Consumer {
	return &Consumer{handler: handler, logger: logger.Named("consumer")}
}

// Run consumes queue until ctx is done or the channel closes.
func (c *Consumer) Run(ctx context.Context, ch *amqp.Channel, queue string) error {
	msgs, err := ch.Consume(
		queue,
		"storefront-worker", // consumer tag
		false,               // auto-ack
		false,               // exclusive
		false,               // no-local
		false,               // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			c.Handle(ctx, msg)
		}
	}
}

// Handle acks a processed message and nacks, without requeue, one that is
// malformed, fails or panics.
func (c *Consumer) Handle(ctx context.Context, msg amqp.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Recovered from panic in message processing", zap.Any("panic", r))
			c.nack(msg)
		}
	}()

	var ev models.OrderEvent
	if err := json.Unmarshal(msg.Body, &ev); err != nil || ev.OrderID == "" {
		c.logger.Warn("Invalid message format", zap.ByteString("body", msg.Body))
		c.nack(msg)
		return
	}

	if err := c.handler(ctx, ev); err != nil {
		c.logger.Error("Failed to handle order event",
			zap.String("type", ev.Type),
			zap.String("order_id", ev.OrderID),
			zap.Error(err))
		c.nack(msg)
		return
	}

	if err := msg.Ack(false); err != nil {
		c.logger.Warn("Failed to ack message", zap.Error(err))
	}
}

func (c *Consumer) nack(msg amqp.Delivery) {
	if err := msg.Nack(false, false); err != nil {
		c.logger.Warn("Failed to nack message", zap.Error(err))
	}
}
