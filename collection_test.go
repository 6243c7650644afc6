package docstore

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "docstore/internal/shared/errors"
	"docstore/model"
	"docstore/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// lazyTestDatabase returns a database handle without dialing the server; the
// driver only connects on the first operation.
func lazyTestDatabase(t *testing.T, uri string) *mongo.Database {
	t.Helper()
	mc, err := mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { _ = mc.Disconnect(context.Background()) })
	return mc.Database("docstore_test")
}

type order struct {
	Status string
	Amount int
}

func decodeOrder(id string, fields map[string]interface{}) (order, error) {
	o := order{}
	if status, ok := fields["status"].(string); ok {
		o.Status = status
	}
	switch amount := fields["amount"].(type) {
	case int:
		o.Amount = amount
	case int32:
		o.Amount = int(amount)
	case int64:
		o.Amount = int(amount)
	case float64:
		o.Amount = int(amount)
	}
	return o, nil
}

func encodeOrder(o order) (map[string]interface{}, error) {
	return map[string]interface{}{
		"status": o.Status,
		"amount": o.Amount,
	}, nil
}

func TestNewClient_RequiresDatabase(t *testing.T) {
	_, err := NewClient(nil)
	assert.ErrorIs(t, err, apperrors.ErrNilClient)
}

func TestNewClient_ChannelBufferOptions(t *testing.T) {
	db := lazyTestDatabase(t, "mongodb://localhost:27017")

	client, err := NewClient(db)
	require.NoError(t, err)
	assert.Equal(t, defaultChannelBuffer, client.channelBuffer)

	// Non-positive sizes are ignored; the built-in default stays.
	client, err = NewClient(db, WithChannelBuffer(0))
	require.NoError(t, err)
	assert.Equal(t, defaultChannelBuffer, client.channelBuffer)

	// Later options win, so a caller option overrides a configured default
	// prepended before it.
	client, err = NewClient(db, WithChannelBuffer(4), WithChannelBuffer(32))
	require.NoError(t, err)
	assert.Equal(t, 32, client.channelBuffer)
}

func TestEnsureWatcher_DropsFailedWatcher(t *testing.T) {
	// Port 1 refuses connections, so the change stream cannot open and the
	// watcher goroutine exits with an error.
	db := lazyTestDatabase(t, "mongodb://localhost:1/?serverSelectionTimeoutMS=200&connectTimeoutMS=200")
	client, err := NewClient(db)
	require.NoError(t, err)

	broker, err := client.ensureWatcher("orders")
	require.NoError(t, err)
	require.NotNil(t, broker)

	// The dead watcher must remove itself so the next subscription opens a
	// fresh stream instead of reusing a broker that never publishes.
	assert.Eventually(t, func() bool {
		client.mu.Lock()
		defer client.mu.Unlock()
		_, ok := client.watchers["orders"]
		return !ok
	}, 5*time.Second, 50*time.Millisecond)
}

func TestNewCollection_Validation(t *testing.T) {
	_, err := NewCollection[order](nil, "orders", decodeOrder, encodeOrder)
	assert.ErrorIs(t, err, apperrors.ErrNilClient)

	client := &Client{}
	_, err = NewCollection[order](client, "", decodeOrder, encodeOrder)
	assert.ErrorIs(t, err, apperrors.ErrInvalidCollectionID)

	_, err = NewCollection[order](client, "orders", nil, encodeOrder)
	assert.True(t, apperrors.IsValidation(err))

	_, err = NewCollection[order](client, "orders", decodeOrder, nil)
	assert.True(t, apperrors.IsValidation(err))
}

func TestDecodeDocument(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)
	doc := model.Document{
		ID:        "doc1",
		Fields:    map[string]interface{}{"status": "active", "amount": 7},
		CreatedAt: created,
		UpdatedAt: updated,
	}

	snapshot, err := decodeDocument(doc, decodeOrder)
	require.NoError(t, err)
	assert.True(t, snapshot.Exists)
	assert.Equal(t, "doc1", snapshot.ID)
	assert.Equal(t, order{Status: "active", Amount: 7}, snapshot.Data)
	assert.Equal(t, created, snapshot.CreatedAt)
	assert.Equal(t, updated, snapshot.UpdatedAt)
}

func TestDecodeDocument_DecodeError(t *testing.T) {
	failing := func(id string, fields map[string]interface{}) (order, error) {
		return order{}, errors.New("bad shape")
	}
	_, err := decodeDocument(model.Document{ID: "doc1"}, failing)
	assert.Error(t, err)
}

func TestAbsentSnapshot(t *testing.T) {
	snapshot := absent[order]("missing")
	assert.Equal(t, "missing", snapshot.ID)
	assert.False(t, snapshot.Exists)
	assert.Equal(t, order{}, snapshot.Data)
}

func TestRangeQuery_Ascending(t *testing.T) {
	q := rangeQuery("createdAt", model.Ascending, "2024-01-01", "2024-12-31",
		[]model.Filter{model.Eq("status", "active")})

	require.Len(t, q.Orders, 1)
	assert.Equal(t, model.Order{Field: "createdAt", Direction: model.Ascending}, q.Orders[0])
	assert.Equal(t, []interface{}{"2024-01-01"}, q.StartAt)
	assert.Equal(t, []interface{}{"2024-12-31"}, q.EndAt)
	require.Len(t, q.Filters, 1)
	assert.Equal(t, model.OperatorEqual, q.Filters[0].Operator())
}

func TestRangeQuery_DescendingKeepsBoundOrder(t *testing.T) {
	// Bounds stay (from, to) regardless of direction; the store translation
	// flips the comparisons for descending orders.
	q := rangeQuery("createdAt", model.Descending, "2024-01-01", "2024-12-31", nil)
	assert.Equal(t, []interface{}{"2024-01-01"}, q.StartAt)
	assert.Equal(t, []interface{}{"2024-12-31"}, q.EndAt)
	assert.Equal(t, model.Descending, q.Orders[0].Direction)
}

func TestRangeQuery_NilBoundsOmitted(t *testing.T) {
	q := rangeQuery("createdAt", model.Ascending, nil, nil, nil)
	assert.False(t, q.HasCursor())
	assert.True(t, q.HasOrders())
}

func TestPatchDocument(t *testing.T) {
	set := patchDocument(map[string]interface{}{"status": "done", "amount": 3})

	assert.Equal(t, "done", set["fields.status"])
	assert.Equal(t, 3, set["fields.amount"])
	_, hasTimestamp := set["updatedAt"]
	assert.True(t, hasTimestamp)
	assert.Len(t, set, 3)
}

func TestStaleSnapshot(t *testing.T) {
	latest := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	older := Snapshot[order]{ID: "a", Exists: true, UpdatedAt: latest.Add(-time.Second)}
	assert.True(t, staleSnapshot(older, latest),
		"an event older than the delivered snapshot must not replace it")

	newer := Snapshot[order]{ID: "a", Exists: true, UpdatedAt: latest.Add(time.Second)}
	assert.False(t, staleSnapshot(newer, latest))

	same := Snapshot[order]{ID: "a", Exists: true, UpdatedAt: latest}
	assert.False(t, staleSnapshot(same, latest))

	// Deletions always supersede earlier state.
	gone := absent[order]("a")
	assert.False(t, staleSnapshot(gone, latest))
}

func TestReplaceLatest_KeepsFreshestValue(t *testing.T) {
	ch := make(chan int, 1)
	replaceLatest(ch, 1)
	replaceLatest(ch, 2)
	replaceLatest(ch, 3)

	assert.Equal(t, 3, <-ch)
	assert.Len(t, ch, 0)
}

func TestDrainEvents(t *testing.T) {
	ch := make(chan realtime.Event, 4)
	ch <- realtime.Event{DocumentID: "a"}
	ch <- realtime.Event{DocumentID: "b"}
	drainEvents(ch)
	assert.Len(t, ch, 0)
}

func TestSubscription_CloseIsIdempotent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sub := &Subscription[int]{id: "sub1", events: make(chan int), cancel: cancel}

	assert.Equal(t, "sub1", sub.ID())
	sub.Close()
	sub.Close()
	assert.Error(t, ctx.Err())
}
