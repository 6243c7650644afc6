package config

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NewMongoClient connects to the document store and verifies the connection.
func NewMongoClient(ctx context.Context, cfg *MongoConfig) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// NewRedisClient creates a new Redis client using the provided configuration.
func NewRedisClient(cfg *RedisConfig) *redis.Client {
	connMaxIdleTime, _ := time.ParseDuration(cfg.ConnMaxIdleTime)
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 30 * time.Minute
	}

	connMaxLifetime, _ := time.ParseDuration(cfg.ConnMaxLifetime)
	if connMaxLifetime == 0 {
		connMaxLifetime = 1 * time.Hour
	}

	opts := &redis.Options{
		Addr:         cfg.GetAddr(),
		Password:     cfg.Password,
		DB:           cfg.Database,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,

		ConnMaxIdleTime: connMaxIdleTime,
		ConnMaxLifetime: connMaxLifetime,
	}

	if cfg.EnableTLS {
		opts.TLSConfig = &tls.Config{
			ServerName: cfg.Host,
		}
	}

	return redis.NewClient(opts)
}
