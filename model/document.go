package model

import "time"

// Document is the stored representation of a record: an identifier, the raw
// field map supplied by the caller's encode function, and write timestamps
// maintained by the accessor.
type Document struct {
	ID        string                 `bson:"_id" json:"id"`
	Fields    map[string]interface{} `bson:"fields" json:"fields"`
	CreatedAt time.Time              `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time              `bson:"updatedAt" json:"updatedAt"`
}

// FieldsPrefix is the storage prefix under which user fields live. Filter and
// order field names are resolved against this prefix when queries are
// translated for the underlying store.
const FieldsPrefix = "fields."
