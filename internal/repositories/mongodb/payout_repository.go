package mongodb

import (
	"context"
	"errors"

	"github.com/ArowuTest/fastest-finger-pot/internal/models"
	"github.com/ArowuTest/fastest-finger-pot/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure PayoutRepository implements the interface
var _ repositories.PayoutRepository = (*PayoutRepository)(nil)

// PayoutRepository handles MongoDB operations for PayoutAttempt
type PayoutRepository struct {
	collection *mongo.Collection
}

// NewPayoutRepository creates a new PayoutRepository
func NewPayoutRepository(db *mongo.Database) *PayoutRepository {
	return &PayoutRepository{
		collection: db.Collection("payout_attempts"),
	}
}

// Create inserts a new payout attempt record
func (r *PayoutRepository) Create(ctx context.Context, attempt *models.PayoutAttempt) error {
	attempt.ID = primitive.NewObjectID()
	_, err := r.collection.InsertOne(ctx, attempt)
	return err
}

// FindByRound finds all payout attempts for a round, oldest first
func (r *PayoutRepository) FindByRound(ctx context.Context, round uint64) ([]*models.PayoutAttempt, error) {
	var attempts []*models.PayoutAttempt
	filter := bson.M{"roundNumber": round}
	findOptions := options.Find().SetSort(bson.D{{Key: "attemptedAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &attempts); err != nil {
		return nil, err
	}

	// Return empty slice instead of nil if no documents found
	if attempts == nil {
		attempts = []*models.PayoutAttempt{}
	}
	return attempts, nil
}

// MaxSettledRound returns the highest round with a succeeded payout
func (r *PayoutRepository) MaxSettledRound(ctx context.Context) (uint64, error) {
	return maxRound(ctx, r.collection, bson.M{"status": models.PayoutStatusSucceeded})
}

// maxRound reads the roundNumber of the highest-numbered document matching filter
func maxRound(ctx context.Context, collection *mongo.Collection, filter bson.M) (uint64, error) {
	var doc struct {
		RoundNumber uint64 `bson:"roundNumber"`
	}
	opts := options.FindOne().
		SetSort(bson.D{{Key: "roundNumber", Value: -1}}).
		SetProjection(bson.M{"roundNumber": 1})
	err := collection.FindOne(ctx, filter, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return doc.RoundNumber, nil
}
