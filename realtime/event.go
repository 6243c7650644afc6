// Package realtime delivers document change notifications. Change detection is
// delegated to the store's change stream; this package only fans events out to
// subscribers and optionally journals them for restartable subscriptions.
package realtime

import "time"

// EventType defines the type of real-time event.
type EventType string

const (
	// EventTypeCreated signifies a new document was created.
	EventTypeCreated EventType = "created"
	// EventTypeUpdated signifies an existing document was updated.
	EventTypeUpdated EventType = "updated"
	// EventTypeDeleted signifies a document was deleted.
	EventTypeDeleted EventType = "deleted"
)

// Event represents a real-time change to a document in a collection.
type Event struct {
	// Type of the event (created, updated, deleted).
	Type EventType `json:"type"`

	// Collection is the collection the changed document belongs to.
	Collection string `json:"collection"`

	// DocumentID identifies the changed document.
	DocumentID string `json:"documentId"`

	// Data contains the document fields after the change. Nil for deletes.
	Data map[string]interface{} `json:"data,omitempty"`

	// OldData contains the document fields before the change when the store
	// provides them. Usually nil.
	OldData map[string]interface{} `json:"oldData,omitempty"`

	// Timestamp when the event was observed.
	Timestamp time.Time `json:"timestamp"`

	// ResumeToken is the store's change-stream token after this event. A
	// watcher restarted with it continues where the previous one stopped.
	ResumeToken string `json:"resumeToken,omitempty"`

	// SequenceNumber orders events observed by a single watcher.
	SequenceNumber int64 `json:"sequenceNumber"`

	// JournalID is the identifier assigned by the event journal, usable as a
	// paging position for EventsSince. Empty for events not read back from the
	// journal.
	JournalID string `json:"journalId,omitempty"`
}
