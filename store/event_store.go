package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	models "github.com/muchiri/planvote-go/models"
	workflow "github.com/muchiri/planvote-go/workflow"
)

type EventStore struct {
	col *mongo.Collection
}

func NewEventStore(db *mongo.Database) *EventStore {
	return &EventStore{col: db.Collection("events")}
}

func (s *EventStore) Insert(ctx context.Context, event *models.Event) error {
	_, err := s.col.InsertOne(ctx, event)
	return err
}

func (s *EventStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	var event models.Event
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if err == mongo.ErrNoDocuments {
		return nil, workflow.ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// AddInvitee is a set-insert: repeated calls are no-ops.
func (s *EventStore) AddInvitee(ctx context.Context, eventID, userID primitive.ObjectID) error {
	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": eventID},
		bson.M{
			"$addToSet": bson.M{"invited_users": userID},
			"$set":      bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return workflow.ErrEventNotFound
	}
	return nil
}

// AppendVote pushes {user, day} only if the user has no vote yet. The
// uniqueness condition lives in the filter, so the check and the write
// are one atomic document operation; a racing duplicate sees
// MatchedCount 0 and reports false.
func (s *EventStore) AppendVote(ctx context.Context, eventID, userID primitive.ObjectID, day string) (bool, error) {
	res, err := s.col.UpdateOne(ctx,
		bson.M{
			"_id":        eventID,
			"votes.user": bson.M{"$ne": userID},
		},
		bson.M{
			"$push": bson.M{"votes": models.Vote{User: userID, Date: day}},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// SetFinalizedDate writes the finalized date only while it is unset,
// which makes finalization write-once even under concurrent callers.
func (s *EventStore) SetFinalizedDate(ctx context.Context, eventID primitive.ObjectID, fd models.FinalizedDate) (bool, error) {
	res, err := s.col.UpdateOne(ctx,
		bson.M{
			"_id": eventID,
			"$or": bson.A{
				bson.M{"finalized_date": bson.M{"$exists": false}},
				bson.M{"finalized_date.date": ""},
			},
		},
		bson.M{
			"$set": bson.M{"finalized_date": fd, "updated_at": time.Now()},
		},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (s *EventStore) CountByCreator(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{"created_by": userID})
}

// ListPlannedByCreator returns the user's own events, newest first.
func (s *EventStore) ListPlannedByCreator(ctx context.Context, userID primitive.ObjectID) ([]models.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.col.Find(ctx, bson.M{"type": "Planned", "created_by": userID}, opts)
	if err != nil {
		return nil, err
	}
	var events []models.Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// ListInvited returns events the user is invited to but did not create.
func (s *EventStore) ListInvited(ctx context.Context, userID primitive.ObjectID) ([]models.Event, error) {
	cursor, err := s.col.Find(ctx, bson.M{
		"invited_users": userID,
		"created_by":    bson.M{"$ne": userID},
	})
	if err != nil {
		return nil, err
	}
	var events []models.Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// HasVoteSince reports whether the user voted on any event created
// after the cutoff. Used by the speedy-voter badge check.
func (s *EventStore) HasVoteSince(ctx context.Context, userID primitive.ObjectID, cutoff time.Time) (bool, error) {
	n, err := s.col.CountDocuments(ctx, bson.M{
		"votes.user": userID,
		"created_at": bson.M{"$gte": cutoff},
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
