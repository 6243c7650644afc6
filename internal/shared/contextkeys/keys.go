package contextkeys

// contextKey is an unexported type to prevent collisions with context keys defined in
// other packages.
type contextKey string

// String makes contextKey satisfy the Stringer interface to assist with debugging.
func (c contextKey) String() string {
	return "docstore context key " + string(c)
}

// CollectionKey is the key for the collection name in context.Context
const CollectionKey = contextKey("collection")

// DocumentIDKey is the key for a document identifier in context.Context
const DocumentIDKey = contextKey("documentID")

// OperationKey is the key for the operation name in context.Context
const OperationKey = contextKey("operation")

// SubscriptionIDKey is the key for a subscription identifier in context.Context
const SubscriptionIDKey = contextKey("subscriptionID")

// RequestIDKey is the key for a caller-supplied request identifier in context.Context
const RequestIDKey = contextKey("requestID")
