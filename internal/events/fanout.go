package events

import (
	"context"
	"errors"
)

// Fanout publishes every event to each of its publishers in order. A failing
// publisher does not stop delivery to the rest; the errors are joined.
type Fanout []Publisher

var _ Publisher = Fanout(nil)

func (f Fanout) Publish(ctx context.Context, topic string, event any) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, topic, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) Close() error {
	var errs []error
	for _, p := range f {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Only returns a Publisher that forwards events on the listed topics to p
// and drops the rest. Close closes p.
func Only(p Publisher, topics ...string) Publisher {
	allowed := make(map[string]bool, len(topics))
	for _, t := range topics {
		allowed[t] = true
	}
	return &topicFilter{next: p, allowed: allowed}
}

type topicFilter struct {
	next    Publisher
	allowed map[string]bool
}

func (f *topicFilter) Publish(ctx context.Context, topic string, event any) error {
	if !f.allowed[topic] {
		return nil
	}
	return f.next.Publish(ctx, topic, event)
}

func (f *topicFilter) Close() error {
	return f.next.Close()
}
