package docstore

import (
	"time"

	"docstore/model"
)

// DecodeFunc turns a stored field map and its document identifier into a
// domain value. It is the caller's contract; the accessor never inspects T.
type DecodeFunc[T any] func(id string, fields map[string]interface{}) (T, error)

// EncodeFunc turns a domain value into the field map stored for it. All write
// paths go through it, so what is written is always what Decode can read back.
type EncodeFunc[T any] func(value T) (map[string]interface{}, error)

// Snapshot is the result of reading a single document: either a decoded value
// or an explicit absence. Absence is a normal outcome, not an error.
type Snapshot[T any] struct {
	// ID is the document identifier the snapshot was read for.
	ID string

	// Exists reports whether the document was present. When false, Data holds
	// the zero value and the timestamps are zero.
	Exists bool

	// Data is the decoded domain value.
	Data T

	// CreatedAt and UpdatedAt are the accessor-maintained write timestamps.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// absent returns the snapshot for a missing document.
func absent[T any](id string) Snapshot[T] {
	return Snapshot[T]{ID: id}
}

// decodeDocument maps a stored document through the decode function.
func decodeDocument[T any](doc model.Document, decode DecodeFunc[T]) (Snapshot[T], error) {
	data, err := decode(doc.ID, doc.Fields)
	if err != nil {
		return Snapshot[T]{}, err
	}
	return Snapshot[T]{
		ID:        doc.ID,
		Exists:    true,
		Data:      data,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}
