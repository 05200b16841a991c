package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/angelmondragon/mealbridge-backend/pkg/config"
	"github.com/angelmondragon/mealbridge-backend/pkg/logger"
)

// DeliveryLocationsCollection holds the append-only courier breadcrumb trail.
const DeliveryLocationsCollection = "delivery_locations"

var (
	errURIRequired      = errors.New("mongo uri is required")
	errDatabaseRequired = errors.New("mongo database is required")
)

// Client wraps the shared mongo connection and the configured database.
type Client struct {
	raw *mongo.Client
	db  *mongo.Database
}

// New connects, pings the primary and ensures the breadcrumb indexes exist.
func New(ctx context.Context, cfg config.MongoConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.URI) == "" {
		return nil, errURIRequired
	}
	if strings.TrimSpace(cfg.Database) == "" {
		return nil, errDatabaseRequired
	}

	connectCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	raw, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := raw.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = raw.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	client := &Client{raw: raw, db: raw.Database(cfg.Database)}
	if err := client.ensureIndexes(connectCtx); err != nil {
		_ = raw.Disconnect(context.Background())
		return nil, err
	}

	if logg != nil {
		logg.Info(ctx, "mongo connection established")
	}
	return client, nil
}

func (c *Client) ensureIndexes(ctx context.Context) error {
	_, err := c.db.Collection(DeliveryLocationsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "orderId", Value: 1},
			{Key: "recordedAt", Value: -1},
		},
		Options: options.Index().SetName("order_recorded_at"),
	})
	if err != nil {
		return fmt.Errorf("create delivery_locations index: %w", err)
	}
	return nil
}

// Collection returns a handle on the named collection.
func (c *Client) Collection(name string) *mongo.Collection {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Collection(name)
}

func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.raw == nil {
		return errors.New("mongo client not initialized")
	}
	return c.raw.Ping(ctx, readpref.Primary())
}

func (c *Client) Close() error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Disconnect(context.Background())
}
