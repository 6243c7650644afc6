package docstore

import (
	"context"
	"errors"
	"time"

	"docstore/internal/mongoquery"
	apperrors "docstore/internal/shared/errors"
	"docstore/internal/shared/logger"
	"docstore/internal/shared/utils"
	"docstore/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is a typed accessor bound to one collection name and a pair of
// codec functions. It holds no per-call state and is safe for concurrent use;
// every operation is a single request against the external store.
type Collection[T any] struct {
	name   string
	client *Client
	coll   *mongo.Collection
	decode DecodeFunc[T]
	encode EncodeFunc[T]
	log    logger.Logger
}

// NewCollection binds a typed accessor to a collection of the client's
// database. The name is immutable after construction.
func NewCollection[T any](client *Client, name string, decode DecodeFunc[T], encode EncodeFunc[T]) (*Collection[T], error) {
	if client == nil {
		return nil, apperrors.ErrNilClient
	}
	if name == "" {
		return nil, apperrors.ErrInvalidCollectionID
	}
	if decode == nil || encode == nil {
		return nil, apperrors.NewValidationError("decode and encode functions are required").
			WithComponent("collection")
	}

	return &Collection[T]{
		name:   name,
		client: client,
		coll:   client.db.Collection(name),
		decode: decode,
		encode: encode,
		log: client.log.WithComponent("collection").WithFields(map[string]interface{}{
			"collection": name,
		}),
	}, nil
}

// Name returns the collection name the accessor is bound to.
func (c *Collection[T]) Name() string {
	return c.name
}

// Get fetches one document by identifier. A missing document is reported as
// an absent snapshot, not an error.
func (c *Collection[T]) Get(ctx context.Context, id string) (Snapshot[T], error) {
	if id == "" {
		return Snapshot[T]{}, apperrors.ErrInvalidDocumentID
	}

	var doc model.Document
	err := c.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return absent[T](id), nil
	}
	if err != nil {
		return Snapshot[T]{}, apperrors.NewInfrastructureError("failed to fetch document").
			WithCause(err).WithDetail("document_id", id)
	}
	return decodeDocument(doc, c.decode)
}

// List returns every document in the collection.
func (c *Collection[T]) List(ctx context.Context) ([]Snapshot[T], error) {
	return c.Query(ctx, model.NewQuery())
}

// Query executes a one-shot query: filters as conjunctive predicates,
// orderings in sequence, an optional result cap, and cursor bounds. A cursor
// without any ordering has nothing to pair against and is dropped; the result
// then equals the cursor-less query.
func (c *Collection[T]) Query(ctx context.Context, q model.Query) ([]Snapshot[T], error) {
	if q.HasCursor() && !q.HasOrders() {
		c.log.WithContext(utils.WithOperation(ctx, "query")).
			Warn("Query has a cursor but no ordering, cursor ignored")
	}

	cur, err := c.coll.Find(ctx, mongoquery.QueryFilter(q), mongoquery.FindOptions(q))
	if err != nil {
		return nil, apperrors.NewInfrastructureError("failed to execute query").WithCause(err)
	}
	defer cur.Close(ctx)

	var snapshots []Snapshot[T]
	for cur.Next(ctx) {
		var doc model.Document
		if err := cur.Decode(&doc); err != nil {
			return nil, apperrors.NewInfrastructureError("failed to decode document").WithCause(err)
		}
		snapshot, err := decodeDocument(doc, c.decode)
		if err != nil {
			return nil, apperrors.NewDomainError("decode function failed").
				WithCause(err).WithDetail("document_id", doc.ID)
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := cur.Err(); err != nil {
		return nil, apperrors.NewInfrastructureError("query cursor failed").WithCause(err)
	}
	return snapshots, nil
}

// Count returns the number of documents matching the filters.
func (c *Collection[T]) Count(ctx context.Context, filters ...model.Filter) (int64, error) {
	count, err := c.coll.CountDocuments(ctx, mongoquery.FilterDocument(filters))
	if err != nil {
		return 0, apperrors.NewInfrastructureError("failed to count documents").WithCause(err)
	}
	return count, nil
}

// ListByDateRange is a convenience query ordered ascending on orderField and
// bounded inclusively by from and to, with extra conjunctive filters.
func (c *Collection[T]) ListByDateRange(ctx context.Context, orderField string, from, to interface{}, extra ...model.Filter) ([]Snapshot[T], error) {
	return c.Query(ctx, rangeQuery(orderField, model.Ascending, from, to, extra))
}

// rangeQuery builds the bounded range query shared by the one-shot and live
// date-range variants. Bounds are always given as (from, to); the cursor
// translation flips the comparisons for a descending order.
func rangeQuery(orderField string, direction model.Direction, from, to interface{}, extra []model.Filter) model.Query {
	q := model.NewQuery().Where(extra...).OrderBy(orderField, direction)
	if from != nil {
		q = q.StartingAt(from)
	}
	if to != nil {
		q = q.EndingAt(to)
	}
	return q
}

// Create inserts a new document with a generated identifier and returns it.
func (c *Collection[T]) Create(ctx context.Context, value T) (string, error) {
	id := uuid.NewString()
	if err := c.insert(ctx, id, value); err != nil {
		return "", err
	}
	return id, nil
}

// Set creates or overwrites the document at the given identifier. The
// creation timestamp of an existing document is preserved.
func (c *Collection[T]) Set(ctx context.Context, id string, value T) error {
	if id == "" {
		return apperrors.ErrInvalidDocumentID
	}
	fields, err := c.encode(value)
	if err != nil {
		return apperrors.NewDomainError("encode function failed").WithCause(err)
	}

	now := time.Now().UTC()
	_, err = c.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$set":         bson.M{"fields": fields, "updatedAt": now},
			"$setOnInsert": bson.M{"createdAt": now},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return apperrors.NewInfrastructureError("failed to set document").
			WithCause(err).WithDetail("document_id", id)
	}
	return nil
}

// insert writes a brand-new document.
func (c *Collection[T]) insert(ctx context.Context, id string, value T) error {
	fields, err := c.encode(value)
	if err != nil {
		return apperrors.NewDomainError("encode function failed").WithCause(err)
	}

	now := time.Now().UTC()
	_, err = c.coll.InsertOne(ctx, model.Document{
		ID:        id,
		Fields:    fields,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if mongo.IsDuplicateKeyError(err) {
		return apperrors.NewConflictError("document already exists").WithDetail("document_id", id)
	}
	if err != nil {
		return apperrors.NewInfrastructureError("failed to insert document").
			WithCause(err).WithDetail("document_id", id)
	}
	return nil
}

// Update merges the patch fields into an existing document, leaving untouched
// fields as they are. It fails with ErrDocumentNotFound when the document does
// not exist.
func (c *Collection[T]) Update(ctx context.Context, id string, patch map[string]interface{}) error {
	if id == "" {
		return apperrors.ErrInvalidDocumentID
	}
	if len(patch) == 0 {
		return apperrors.NewValidationError("empty update patch")
	}

	result, err := c.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": patchDocument(patch)})
	if err != nil {
		return apperrors.NewInfrastructureError("failed to update document").
			WithCause(err).WithDetail("document_id", id)
	}
	if result.MatchedCount == 0 {
		return apperrors.ErrDocumentNotFound
	}
	return nil
}

// patchDocument turns a user patch into the $set document: every patch key is
// prefixed into field storage so untouched fields survive, and the update
// timestamp moves forward.
func patchDocument(patch map[string]interface{}) bson.M {
	set := bson.M{"updatedAt": time.Now().UTC()}
	for key, value := range patch {
		set[model.FieldsPrefix+key] = value
	}
	return set
}

// Delete removes the document at the given identifier. Deleting an absent
// document succeeds.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.ErrInvalidDocumentID
	}
	if _, err := c.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return apperrors.NewInfrastructureError("failed to delete document").
			WithCause(err).WithDetail("document_id", id)
	}
	return nil
}
