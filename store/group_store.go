package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	models "github.com/muchiri/planvote-go/models"
)

type GroupStore struct {
	col *mongo.Collection
}

func NewGroupStore(db *mongo.Database) *GroupStore {
	return &GroupStore{col: db.Collection("groups")}
}

// AddMember upserts the event's group and set-inserts the member in a
// single operation. The unique event_id index guarantees at most one
// group per event; if two first votes race, the upsert loser hits a
// duplicate key and retries onto the now-existing document.
func (s *GroupStore) AddMember(ctx context.Context, eventID, userID primitive.ObjectID) (primitive.ObjectID, error) {
	group, err := s.upsertMember(ctx, eventID, userID)
	if mongo.IsDuplicateKeyError(err) {
		group, err = s.upsertMember(ctx, eventID, userID)
	}
	if err != nil {
		return primitive.NilObjectID, err
	}
	return group.ID, nil
}

func (s *GroupStore) upsertMember(ctx context.Context, eventID, userID primitive.ObjectID) (*models.Group, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var group models.Group
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{"event_id": eventID},
		bson.M{
			// event_id is seeded from the filter on insert; repeating it
			// in $setOnInsert would conflict.
			"$addToSet":    bson.M{"members": userID},
			"$setOnInsert": bson.M{"created_at": time.Now()},
		},
		opts,
	).Decode(&group)
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (s *GroupStore) GetByEventID(ctx context.Context, eventID primitive.ObjectID) (*models.Group, error) {
	var group models.Group
	err := s.col.FindOne(ctx, bson.M{"event_id": eventID}).Decode(&group)
	if err != nil {
		return nil, err
	}
	return &group, nil
}
