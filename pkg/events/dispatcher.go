package events

import (
	"context"
	"fmt"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/storefront/pkg/models"
	"go.uber.org/zap"
)

const deliveryTimeout = 5 * time.Second

// Messages
type deliver struct {
	event models.OrderEvent
}

type flush struct{}

// Stats counts deliveries since the dispatcher started.
type Stats struct {
	Delivered int
	Failed    int
}

// dispatchActor delivers each event to every sink. A failing sink is
// logged and does not stop the others.
type dispatchActor struct {
	sinks  []Sink
	logger *zap.Logger
	stats  Stats
}

func (a *dispatchActor) Receive(c actor.Context) {
	switch msg := c.Message().(type) {
	case *deliver:
		for _, sink := range a.sinks {
			ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
			err := sink.Deliver(ctx, msg.event)
			cancel()
			if err != nil {
				a.stats.Failed++
				a.logger.Error("Failed to deliver order event",
					zap.String("sink", sink.Name()),
					zap.String("type", msg.event.Type),
					zap.String("order_id", msg.event.OrderID),
					zap.Error(err))
				continue
			}
			a.stats.Delivered++
		}

	case *flush:
		c.Respond(a.stats)

	case *actor.Started:
		a.logger.Info("Event dispatcher started", zap.Int("sinks", len(a.sinks)))

	case *actor.Stopped:
		a.logger.Info("Event dispatcher stopped",
			zap.Int("delivered", a.stats.Delivered),
			zap.Int("failed", a.stats.Failed))
	}
}

// Dispatcher implements the order service's Publisher.
type Dispatcher struct {
	system *actor.ActorSystem
	pid    *actor.PID
}

func NewDispatcher(logger *zap.Logger, sinks ...Sink) (*Dispatcher, error) {
	system := actor.NewActorSystem()

	props := actor.PropsFromProducer(func() actor.Actor {
		return &dispatchActor{sinks: sinks, logger: logger.Named("event-dispatcher")}
	})
	pid, err := system.Root.SpawnNamed(props, "order-events")
	if err != nil {
		return nil, fmt.Errorf("failed to spawn event dispatcher: %w", err)
	}

	return &Dispatcher{system: system, pid: pid}, nil
}

// Publish enqueues ev and returns without waiting for the sinks.
func (d *Dispatcher) Publish(_ context.Context, ev models.OrderEvent) error {
	d.system.Root.Send(d.pid, &deliver{event: ev})
	return nil
}

// Flush waits until every event published before the call was handled.
func (d *Dispatcher) Flush(timeout time.Duration) (Stats, error) {
	result, err := d.system.Root.RequestFuture(d.pid, &flush{}, timeout).Result()
	if err != nil {
		return Stats{}, fmt.Errorf("failed to flush event dispatcher: %w", err)
	}
	stats, ok := result.(Stats)
	if !ok {
		return Stats{}, fmt.Errorf("unexpected flush response %T", result)
	}
	return stats, nil
}

// Close drains the mailbox and stops the actor.
func (d *Dispatcher) Close() error {
	return d.system.Root.PoisonFuture(d.pid).Wait()
}
