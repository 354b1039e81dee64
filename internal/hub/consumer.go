package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alfredjeanlab/nethub/internal/eventlog"
	"github.com/alfredjeanlab/nethub/internal/events"
)

// Consumer feeds wire events received from the event bus into a Processor.
type Consumer struct {
	processor  *Processor
	subscriber events.Subscriber
	topic      string
	logger     *slog.Logger
}

// NewConsumer creates a consumer for topic (events.TopicIncoming if empty).
func NewConsumer(processor *Processor, subscriber events.Subscriber, topic string, logger *slog.Logger) *Consumer {
	if topic == "" {
		topic = events.TopicIncoming
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{processor: processor, subscriber: subscriber, topic: topic, logger: logger}
}

// Run processes messages until ctx is cancelled or the subscription closes.
// Per-message failures are logged and do not stop the loop.
func (c *Consumer) Run(ctx context.Context) error {
	ch, cancel, err := c.subscriber.Subscribe(c.topic)
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", c.topic, err)
	}
	defer cancel()

	c.logger.Info("consuming incoming events", "topic", c.topic)
	for {
		select {
		case <-ctx.Done():
			return nil
		case data, ok := <-ch:
			if !ok {
				return nil
			}
			c.handle(ctx, data)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, data []byte) {
	var we WireEvent
	if err := json.Unmarshal(data, &we); err != nil {
		c.logger.Warn("discarding malformed wire event", "err", err)
		return
	}

	_, err := c.processor.Process(ctx, we)
	var (
		applyErr   *ApplyError
		persistErr *eventlog.PersistenceError
	)
	switch {
	case err == nil:
	case errors.As(err, &applyErr):
		// Already logged and published by the processor.
	case errors.As(err, &persistErr):
		c.logger.Error("dropping wire event", "action", we.Action, "node_id", we.Node.ID, "err", err)
	default:
		c.logger.Warn("rejected wire event", "action", we.Action, "node_id", we.Node.ID, "err", err)
	}
}
