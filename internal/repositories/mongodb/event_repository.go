package mongodb

import (
	"context"

	"github.com/ArowuTest/fastest-finger-pot/internal/models"
	"github.com/ArowuTest/fastest-finger-pot/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ repositories.EventRepository = (*EventRepository)(nil)

type EventRepository struct {
	collection *mongo.Collection
}

func NewEventRepository(db *mongo.Database) *EventRepository {
	return &EventRepository{
		collection: db.Collection("game_events"),
	}
}

func (r *EventRepository) Create(ctx context.Context, event *models.GameEvent) error {
	event.ID = primitive.NewObjectID()
	_, err := r.collection.InsertOne(ctx, event)
	return err
}

func (r *EventRepository) FindByRound(ctx context.Context, round uint64) ([]*models.GameEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "occurredAt", Value: 1}, {Key: "seq", Value: 1}})
	return r.find(ctx, bson.M{"roundNumber": round}, opts)
}

func (r *EventRepository) FindRecent(ctx context.Context, limit int) ([]*models.GameEvent, error) {
	opts := options.Find().
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "occurredAt", Value: -1}, {Key: "seq", Value: -1}})
	return r.find(ctx, bson.M{}, opts)
}

// MaxRound returns the highest round number in the event log
func (r *EventRepository) MaxRound(ctx context.Context) (uint64, error) {
	return maxRound(ctx, r.collection, bson.M{})
}

func (r *EventRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.GameEvent, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []*models.GameEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}

	// Ensure an empty slice is returned instead of nil if no events found
	if events == nil {
		events = []*models.GameEvent{}
	}
	return events, nil
}
