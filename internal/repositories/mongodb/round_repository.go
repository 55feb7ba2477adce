package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/ArowuTest/fastest-finger-pot/internal/models"
	"github.com/ArowuTest/fastest-finger-pot/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure RoundRepository implements the interface
var _ repositories.RoundRepository = (*RoundRepository)(nil)

// RoundRepository implements the repositories.RoundRepository interface
type RoundRepository struct {
	collection *mongo.Collection
}

// NewRoundRepository creates a new RoundRepository
func NewRoundRepository(db *mongo.Database) *RoundRepository {
	return &RoundRepository{
		collection: db.Collection("rounds"),
	}
}

// Create archives a closed round
func (r *RoundRepository) Create(ctx context.Context, round *models.RoundResult) error {
	round.ID = primitive.NewObjectID()
	round.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, round)
	return err
}

// FindByNumber finds a round by its number
func (r *RoundRepository) FindByNumber(ctx context.Context, number uint64) (*models.RoundResult, error) {
	return r.findOne(ctx, bson.M{"roundNumber": number})
}

// FindLatest finds the highest numbered round
func (r *RoundRepository) FindLatest(ctx context.Context) (*models.RoundResult, error) {
	return r.findOne(ctx, bson.M{})
}

// FindLatestWon finds the highest numbered round that had a winner
func (r *RoundRepository) FindLatestWon(ctx context.Context) (*models.RoundResult, error) {
	return r.findOne(ctx, bson.M{"outcome": models.RoundOutcomeWon})
}

func (r *RoundRepository) findOne(ctx context.Context, filter bson.M) (*models.RoundResult, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "roundNumber", Value: -1}})

	var round models.RoundResult
	err := r.collection.FindOne(ctx, filter, opts).Decode(&round)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &round, nil
}

// FindRecent finds rounds newest first with pagination
func (r *RoundRepository) FindRecent(ctx context.Context, page, limit int) ([]*models.RoundResult, error) {
	return r.find(ctx, bson.M{}, page, limit)
}

// FindByWinner finds rounds won by a participant with pagination
func (r *RoundRepository) FindByWinner(ctx context.Context, id models.ParticipantID, page, limit int) ([]*models.RoundResult, error) {
	return r.find(ctx, bson.M{"winner.winnerId": id}, page, limit)
}

func (r *RoundRepository) find(ctx context.Context, filter bson.M, page, limit int) ([]*models.RoundResult, error) {
	opts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "roundNumber", Value: -1}}) // Newest round first

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rounds []*models.RoundResult
	if err := cursor.All(ctx, &rounds); err != nil {
		return nil, err
	}

	// Return empty slice instead of nil if no documents found
	if rounds == nil {
		rounds = []*models.RoundResult{}
	}
	return rounds, nil
}

// Count counts all archived rounds
func (r *RoundRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}
