package docstore

import (
	"context"
	"sync"
	"time"

	apperrors "docstore/internal/shared/errors"
	"docstore/internal/shared/utils"
	"docstore/model"
	"docstore/realtime"

	"github.com/google/uuid"
)

// Subscription is a live, caller-cancellable sequence of values. Events()
// always carries a value at least as fresh as the last change observed; when
// re-evaluation outpaces the consumer, intermediate values are replaced by
// newer ones. Close stops delivery and closes the channel.
type Subscription[U any] struct {
	id     string
	events chan U
	cancel context.CancelFunc
	once   sync.Once
}

// ID returns the unique subscription identifier.
func (s *Subscription[U]) ID() string {
	return s.id
}

// Events returns the channel values are delivered on. It is closed after
// Close or when the subscription's context ends.
func (s *Subscription[U]) Events() <-chan U {
	return s.events
}

// Close cancels the subscription. Safe to call more than once.
func (s *Subscription[U]) Close() {
	s.once.Do(s.cancel)
}

// Watch produces a live sequence of snapshots for one document, re-emitted
// whenever the document changes. The current snapshot is emitted first.
func (c *Collection[T]) Watch(ctx context.Context, id string) (*Subscription[Snapshot[T]], error) {
	if id == "" {
		return nil, apperrors.ErrInvalidDocumentID
	}
	broker, err := c.client.ensureWatcher(c.name)
	if err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	subID := uuid.NewString()
	subCtx = utils.WithSubscriptionID(utils.WithDocumentID(subCtx, id), subID)
	raw := make(chan realtime.Event, c.client.channelBuffer)
	broker.Subscribe(subCtx, subID, c.name, raw)

	out := make(chan Snapshot[T], 1)
	sub := &Subscription[Snapshot[T]]{id: subID, events: out, cancel: cancel}

	go func() {
		defer func() {
			broker.Unsubscribe(context.Background(), subID, c.name)
			close(out)
		}()

		// latest tracks the newest snapshot delivered so far. Events observed
		// before the initial read but processed after it must not replace the
		// fresher state.
		var latest time.Time

		if snapshot, err := c.Get(subCtx, id); err == nil {
			replaceLatest(out, snapshot)
			latest = snapshot.UpdatedAt
		} else if subCtx.Err() == nil {
			c.log.WithContext(subCtx).Warnf("Initial snapshot for watch failed: %v", err)
		}

		for {
			select {
			case <-subCtx.Done():
				return
			case event := <-raw:
				if event.DocumentID != id {
					continue
				}
				snapshot, err := c.snapshotFromEvent(subCtx, event)
				if err != nil {
					if subCtx.Err() == nil {
						c.log.WithContext(subCtx).Warnf("Snapshot for change failed: %v", err)
					}
					continue
				}
				if staleSnapshot(snapshot, latest) {
					continue
				}
				replaceLatest(out, snapshot)
				if snapshot.UpdatedAt.After(latest) {
					latest = snapshot.UpdatedAt
				}
			}
		}
	}()

	return sub, nil
}

// WatchAll produces the full collection content on every change.
func (c *Collection[T]) WatchAll(ctx context.Context) (*Subscription[[]Snapshot[T]], error) {
	return c.WatchQuery(ctx, model.NewQuery())
}

// WatchQuery produces a live sequence of query results: the query is executed
// once up front and re-evaluated after every change in the collection, so each
// delivery is a complete ordered result set.
func (c *Collection[T]) WatchQuery(ctx context.Context, q model.Query) (*Subscription[[]Snapshot[T]], error) {
	broker, err := c.client.ensureWatcher(c.name)
	if err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	subID := uuid.NewString()
	subCtx = utils.WithSubscriptionID(subCtx, subID)
	raw := make(chan realtime.Event, c.client.channelBuffer)
	broker.Subscribe(subCtx, subID, c.name, raw)

	out := make(chan []Snapshot[T], 1)
	sub := &Subscription[[]Snapshot[T]]{id: subID, events: out, cancel: cancel}

	go func() {
		defer func() {
			broker.Unsubscribe(context.Background(), subID, c.name)
			close(out)
		}()

		emit := func() {
			snapshots, err := c.Query(subCtx, q)
			if err != nil {
				if subCtx.Err() == nil {
					c.log.WithContext(subCtx).Warnf("Live query re-evaluation failed: %v", err)
				}
				return
			}
			replaceLatest(out, snapshots)
		}

		emit()

		for {
			select {
			case <-subCtx.Done():
				return
			case <-raw:
				drainEvents(raw)
				emit()
			}
		}
	}()

	return sub, nil
}

// WatchByDateRange is the live companion of ListByDateRange, ordered
// descending on orderField. Bounds are given as (from, to) exactly like the
// one-shot variant; the translation layer flips the comparisons for the
// descending order.
func (c *Collection[T]) WatchByDateRange(ctx context.Context, orderField string, from, to interface{}, extra ...model.Filter) (*Subscription[[]Snapshot[T]], error) {
	return c.WatchQuery(ctx, rangeQuery(orderField, model.Descending, from, to, extra))
}

// snapshotFromEvent turns a change event into a snapshot, falling back to a
// fresh read when the event carries no document data.
func (c *Collection[T]) snapshotFromEvent(ctx context.Context, event realtime.Event) (Snapshot[T], error) {
	if event.Type == realtime.EventTypeDeleted {
		return absent[T](event.DocumentID), nil
	}
	if event.Data == nil {
		return c.Get(ctx, event.DocumentID)
	}

	data, err := c.decode(event.DocumentID, event.Data)
	if err != nil {
		return Snapshot[T]{}, err
	}
	return Snapshot[T]{
		ID:        event.DocumentID,
		Exists:    true,
		Data:      data,
		UpdatedAt: event.Timestamp,
	}, nil
}

// staleSnapshot reports whether s is older than the newest snapshot already
// delivered. Absent snapshots are never stale; a deletion always supersedes
// whatever was delivered before it.
func staleSnapshot[T any](s Snapshot[T], latest time.Time) bool {
	return s.Exists && s.UpdatedAt.Before(latest)
}

// replaceLatest delivers v without blocking: if the consumer has not taken
// the previous value yet it is replaced, keeping the channel at the freshest
// state.
func replaceLatest[U any](ch chan U, v U) {
	for {
		select {
		case ch <- v:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

// drainEvents empties pending events so a burst of changes results in one
// re-evaluation.
func drainEvents(ch <-chan realtime.Event) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}
