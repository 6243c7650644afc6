package realtime

import (
	"context"
	"sync"

	"docstore/internal/shared/logger"
)

// Broker fans document change events out to subscribers. Subscribers register
// a channel per collection; publishing never blocks, a subscriber whose
// channel is full misses the event and is expected to resynchronize from a
// fresh snapshot.
type Broker struct {
	// subscriptions maps a collection to a map of subscriber IDs to their
	// event channels.
	subscriptions map[string]map[string]chan<- Event
	mu            sync.RWMutex
	log           logger.Logger
}

// NewBroker creates a new Broker.
func NewBroker(log logger.Logger) *Broker {
	if log == nil {
		log = logger.NewLogger()
	}
	return &Broker{
		subscriptions: make(map[string]map[string]chan<- Event),
		log:           log.WithComponent("realtime.broker"),
	}
}

// Subscribe registers a subscriber channel for a collection. subscriberID must
// be unique per subscription; registering it again replaces the old channel.
func (b *Broker) Subscribe(ctx context.Context, subscriberID, collection string, events chan<- Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscriptions[collection]; !ok {
		b.subscriptions[collection] = make(map[string]chan<- Event)
	}
	if _, ok := b.subscriptions[collection][subscriberID]; ok {
		b.log.WithFields(map[string]interface{}{
			"subscriber_id": subscriberID,
			"collection":    collection,
		}).Warn("Subscriber already registered, replacing channel")
	}

	b.subscriptions[collection][subscriberID] = events
	b.log.WithFields(map[string]interface{}{
		"subscriber_id": subscriberID,
		"collection":    collection,
	}).Debug("Subscriber registered")
}

// Unsubscribe removes a subscriber. Closing the event channel remains the
// subscriber's responsibility.
func (b *Broker) Unsubscribe(ctx context.Context, subscriberID, collection string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subscribers, ok := b.subscriptions[collection]
	if !ok {
		return
	}
	if _, ok := subscribers[subscriberID]; !ok {
		return
	}

	delete(subscribers, subscriberID)
	if len(subscribers) == 0 {
		delete(b.subscriptions, collection)
	}
	b.log.WithFields(map[string]interface{}{
		"subscriber_id": subscriberID,
		"collection":    collection,
	}).Debug("Subscriber removed")
}

// Publish delivers an event to every subscriber of the event's collection.
// Sends are non-blocking so a slow subscriber cannot stall distribution; a
// full channel drops the event for that subscriber.
func (b *Broker) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	subscribers, ok := b.subscriptions[event.Collection]
	if !ok {
		return
	}

	for subscriberID, ch := range subscribers {
		select {
		case ch <- event:
		default:
			b.log.WithFields(map[string]interface{}{
				"subscriber_id": subscriberID,
				"collection":    event.Collection,
				"document_id":   event.DocumentID,
			}).Warn("Subscriber channel full, dropping event")
		}
	}
}

// SubscriberCount returns the number of subscribers for a collection.
func (b *Broker) SubscriberCount(collection string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscriptions[collection])
}
