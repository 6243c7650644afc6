package realtime

import (
	"context"
	"sync/atomic"
	"time"

	apperrors "docstore/internal/shared/errors"
	"docstore/internal/shared/logger"
	"docstore/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// changeDocument is the decoded shape of a store change notification.
type changeDocument struct {
	OperationType string          `bson:"operationType"`
	DocumentKey   documentKey     `bson:"documentKey"`
	FullDocument  *model.Document `bson:"fullDocument"`
}

type documentKey struct {
	ID string `bson:"_id"`
}

// Watcher drives a collection change stream and publishes every observed
// change to the broker. With a journal attached it also persists events and
// resumes from the journaled token after a restart.
type Watcher struct {
	coll    *mongo.Collection
	broker  *Broker
	journal *Journal
	log     logger.Logger
	seq     atomic.Int64
}

// NewWatcher creates a watcher for one collection.
func NewWatcher(coll *mongo.Collection, broker *Broker, journal *Journal, log logger.Logger) *Watcher {
	if log == nil {
		log = logger.NewLogger()
	}
	return &Watcher{
		coll:    coll,
		broker:  broker,
		journal: journal,
		log: log.WithComponent("realtime.watcher").WithFields(map[string]interface{}{
			"collection": coll.Name(),
		}),
	}
}

// Run opens the change stream and publishes events until ctx is cancelled.
// A stream fault other than cancellation is returned to the caller; there is
// no local retry.
func (w *Watcher) Run(ctx context.Context) error {
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	if w.journal != nil {
		token, err := w.journal.LastResumeToken(ctx, w.coll.Name())
		if err != nil {
			w.log.Warnf("Could not load resume token, starting from now: %v", err)
		} else if token != "" {
			opts.SetResumeAfter(bson.M{"_data": token})
			w.log.Debugf("Resuming change stream after token %s", token)
		}
	}

	stream, err := w.coll.Watch(ctx, mongo.Pipeline{}, opts)
	if err != nil {
		return apperrors.NewInfrastructureError("failed to open change stream").WithCause(err)
	}
	defer stream.Close(context.Background())

	w.log.Info("Change stream watcher started")

	for stream.Next(ctx) {
		var change changeDocument
		if err := stream.Decode(&change); err != nil {
			w.log.Warnf("Could not decode change notification: %v", err)
			continue
		}

		event, ok := mapChange(change, w.coll.Name())
		if !ok {
			continue
		}
		event.Timestamp = time.Now()
		event.SequenceNumber = w.seq.Add(1)
		event.ResumeToken = resumeTokenString(stream.ResumeToken())

		w.broker.Publish(ctx, event)

		if w.journal != nil {
			// Journal failures must not stop delivery; Append logs them.
			_ = w.journal.Append(ctx, event)
		}
	}

	if err := stream.Err(); err != nil && ctx.Err() == nil {
		return apperrors.NewInfrastructureError("change stream terminated").WithCause(err)
	}

	w.log.Info("Change stream watcher stopped")
	return nil
}

// mapChange translates a change notification into an Event. The second return
// is false for operation types the accessor does not surface (invalidate,
// drop, rename).
func mapChange(change changeDocument, collection string) (Event, bool) {
	event := Event{Collection: collection, DocumentID: change.DocumentKey.ID}

	switch change.OperationType {
	case "insert":
		event.Type = EventTypeCreated
	case "update", "replace":
		event.Type = EventTypeUpdated
	case "delete":
		event.Type = EventTypeDeleted
	default:
		return Event{}, false
	}

	if change.FullDocument != nil {
		event.Data = change.FullDocument.Fields
		if event.DocumentID == "" {
			event.DocumentID = change.FullDocument.ID
		}
	}
	return event, true
}

// resumeTokenString extracts the opaque token string from a change stream
// resume token document.
func resumeTokenString(token bson.Raw) string {
	if len(token) == 0 {
		return ""
	}
	value, err := token.LookupErr("_data")
	if err != nil {
		return ""
	}
	if s, ok := value.StringValueOK(); ok {
		return s
	}
	return ""
}
