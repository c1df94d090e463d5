package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	models "github.com/muchiri/planvote-go/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("user already exists with this email")
	ErrPlanNotFound = errors.New("subscription plan not found")
)

type UserStore struct {
	col *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{col: db.Collection("users")}
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	_, err := s.col.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrEmailTaken
	}
	return err
}

func (s *UserStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.col.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetManyByIDs fetches the given users in one query. Missing ids are
// silently absent from the result.
func (s *UserStore) GetManyByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	out := make(map[primitive.ObjectID]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cursor, err := s.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// UpdateFields applies a partial update; updated_at is always touched.
func (s *UserStore) UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updated_at"] = time.Now()
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *UserStore) SetOTP(ctx context.Context, id primitive.ObjectID, otp string, expiry time.Time) error {
	return s.UpdateFields(ctx, id, bson.M{"otp": otp, "otp_expiry": expiry})
}

func (s *UserStore) SetPassword(ctx context.Context, id primitive.ObjectID, hash string, markVerified bool) error {
	fields := bson.M{"password": hash}
	if markVerified {
		fields["is_verified"] = true
	}
	return s.UpdateFields(ctx, id, fields)
}

// AddBadge set-inserts a badge name; re-awarding is a no-op.
func (s *UserStore) AddBadge(ctx context.Context, id primitive.ObjectID, badge string) error {
	_, err := s.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$addToSet": bson.M{"badges": badge}},
	)
	return err
}

func (s *UserStore) SetSubscription(ctx context.Context, id primitive.ObjectID, sub *models.Subscription) error {
	return s.UpdateFields(ctx, id, bson.M{"subscription": sub})
}
