package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const connectTimeout = 15 * time.Second

func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return client, nil
}

// EnsureIndexes creates the geo index discovery depends on plus the multikey
// indexes behind the reciprocal-like and reverse-match lookups.
func EnsureIndexes(ctx context.Context, coll *mongo.Collection) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "location.point", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "swipe_history.target_id", Value: 1}, {Key: "swipe_history.decision", Value: 1}}},
		{Keys: bson.D{{Key: "matches.matched_profile_id", Value: 1}, {Key: "matches.active", Value: 1}}},
		{Keys: bson.D{{Key: "last_active_at", Value: -1}}},
	}
	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create profile indexes: %w", err)
	}
	return nil
}
