// Package docstore is a typed convenience layer over a document database. A
// Collection binds a collection name to caller-supplied encode and decode
// functions and exposes CRUD, a constrained query builder, and live
// subscriptions. Query evaluation, indexing, and change delivery are the
// store's job; this package only translates parameters and decodes results.
package docstore

import (
	"context"
	"sync"

	"docstore/config"
	apperrors "docstore/internal/shared/errors"
	"docstore/internal/shared/logger"
	"docstore/realtime"

	"go.mongodb.org/mongo-driver/mongo"
)

// defaultChannelBuffer is the subscriber channel buffer used when none is
// configured.
const defaultChannelBuffer = 10

// Client wraps a handle to the external document database. It is constructed
// explicitly and passed to every Collection, so isolated instances (and fakes
// in tests) need no process-wide state.
type Client struct {
	db            *mongo.Database
	log           logger.Logger
	journal       *realtime.Journal
	channelBuffer int

	// mongoClient is set only when the Client opened the connection itself
	// and therefore owns the disconnect.
	mongoClient *mongo.Client

	mu       sync.Mutex
	watchers map[string]*collectionWatcher
	closed   bool
}

// collectionWatcher bundles a running change-stream watcher with its broker.
type collectionWatcher struct {
	broker *realtime.Broker
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used by the client and everything built on it.
func WithLogger(log logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithJournal attaches a realtime event journal so subscriptions resume after
// a restart.
func WithJournal(journal *realtime.Journal) Option {
	return func(c *Client) {
		c.journal = journal
	}
}

// WithChannelBuffer sets the buffer size of subscriber event channels.
func WithChannelBuffer(size int) Option {
	return func(c *Client) {
		if size > 0 {
			c.channelBuffer = size
		}
	}
}

// NewClient creates a Client around an existing database handle.
func NewClient(db *mongo.Database, opts ...Option) (*Client, error) {
	if db == nil {
		return nil, apperrors.ErrNilClient
	}

	c := &Client{
		db:            db,
		log:           logger.NewLogger().WithComponent("docstore"),
		channelBuffer: defaultChannelBuffer,
		watchers:      make(map[string]*collectionWatcher),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Connect builds a Client from configuration: it opens the store connection,
// verifies it, and attaches the event journal when enabled.
func Connect(ctx context.Context, cfg *config.Config, opts ...Option) (*Client, error) {
	mongoClient, err := config.NewMongoClient(ctx, &cfg.Mongo)
	if err != nil {
		return nil, apperrors.NewInfrastructureError("failed to connect to document store").WithCause(err)
	}

	// The configured buffer is a default; an explicit WithChannelBuffer
	// option is applied after it and wins. Non-positive config values are
	// ignored by the option, keeping the built-in default.
	connectOpts := append([]Option{WithChannelBuffer(cfg.Realtime.ChannelBuffer)}, opts...)
	client, err := NewClient(mongoClient.Database(cfg.Mongo.Database), connectOpts...)
	if err != nil {
		_ = mongoClient.Disconnect(context.Background())
		return nil, err
	}
	client.mongoClient = mongoClient

	if cfg.Realtime.JournalEnabled && client.journal == nil {
		client.journal = realtime.NewJournal(config.NewRedisClient(&cfg.Redis), client.log)
	}
	return client, nil
}

// Database exposes the underlying database handle.
func (c *Client) Database() *mongo.Database {
	return c.db
}

// ensureWatcher lazily starts the change-stream watcher for a collection and
// returns its broker. One watcher per collection serves every subscription on
// it; the watcher lives until the client is closed.
func (c *Client) ensureWatcher(collection string) (*realtime.Broker, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, apperrors.ErrSubscriptionClosed
	}
	if w, ok := c.watchers[collection]; ok {
		return w.broker, nil
	}

	broker := realtime.NewBroker(c.log)
	watcher := realtime.NewWatcher(c.db.Collection(collection), broker, c.journal, c.log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := watcher.Run(ctx); err != nil {
			c.log.WithFields(map[string]interface{}{
				"collection": collection,
				"error":      err.Error(),
			}).Error("Collection watcher stopped")
			// Drop the dead watcher so the next subscription opens a fresh
			// stream instead of hanging on a broker that never publishes.
			c.mu.Lock()
			if w, ok := c.watchers[collection]; ok && w.done == done {
				delete(c.watchers, collection)
			}
			c.mu.Unlock()
		}
	}()

	c.watchers[collection] = &collectionWatcher{broker: broker, cancel: cancel, done: done}
	return broker, nil
}

// Close stops all collection watchers and, when the client owns the store
// connection, disconnects it. Ongoing subscriptions observe closed channels.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	watchers := c.watchers
	c.watchers = make(map[string]*collectionWatcher)
	c.mu.Unlock()

	for _, w := range watchers {
		w.cancel()
	}
	for _, w := range watchers {
		select {
		case <-w.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if c.mongoClient != nil {
		return c.mongoClient.Disconnect(ctx)
	}
	return nil
}
