package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the repositories query on.
// A round number can be archived only once.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		"rounds": {
			{Keys: bson.D{{Key: "roundNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "winner.winnerId", Value: 1}, {Key: "roundNumber", Value: -1}}},
		},
		"game_events": {
			{Keys: bson.D{{Key: "roundNumber", Value: 1}, {Key: "occurredAt", Value: 1}}},
		},
		"payout_attempts": {
			{Keys: bson.D{{Key: "roundNumber", Value: 1}}},
			{Keys: bson.D{{Key: "idempotencyKey", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "roundNumber", Value: -1}}},
		},
	}
	for name, indexes := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}
