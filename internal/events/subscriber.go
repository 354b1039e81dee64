package events

var _ Subscriber = (*NATSSubscriber)(nil)

// Subscriber receives raw payloads from the event bus.
type Subscriber interface {
	// Subscribe delivers payloads published on topic. Messages already
	// buffered when cancel is called are still readable; the channel is
	// closed after them.
	Subscribe(topic string) (<-chan []byte, func(), error)
	Close() error
}
