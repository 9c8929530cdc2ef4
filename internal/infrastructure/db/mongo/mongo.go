// Package mongo holds the MongoDB-backed repositories for accounts, threads,
// messages, leads and the activity log.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const (
	// defaultTimeout bounds a single repository operation.
	defaultTimeout = 5 * time.Second
	// connectTimeout bounds the initial dial and server selection.
	connectTimeout = 10 * time.Second
)

type Config struct {
	URI      string
	Database string
	// PoolSize caps concurrent connections; 0 leaves the driver default.
	PoolSize uint64
}

// Connect dials MongoDB and verifies the primary is reachable. Majority read
// and write concern is not optional here: the thread seq counter and the
// lead status compare-and-set only give one total order if an acknowledged
// write is visible to the next read.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetWriteConcern(writeconcern.Majority()).
		SetReadConcern(readconcern.Majority()).
		SetServerSelectionTimeout(connectTimeout)
	if cfg.PoolSize > 0 {
		opts.SetMaxPoolSize(cfg.PoolSize)
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}
