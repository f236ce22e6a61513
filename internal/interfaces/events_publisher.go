package interfaces

// EventPublisher emits domain events (e.g. completed transfers) to an
// external broker. Publishing is best-effort and happens after commit.
type EventPublisher interface {
	Publish(topic string, event any) error
}
