package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	models "github.com/muchiri/planvote-go/models"
)

type PlanStore struct {
	col *mongo.Collection
}

func NewPlanStore(db *mongo.Database) *PlanStore {
	return &PlanStore{col: db.Collection("subscription_plans")}
}

// Get returns the single configured plan.
func (s *PlanStore) Get(ctx context.Context) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	err := s.col.FindOne(ctx, bson.M{}).Decode(&plan)
	if err == mongo.ErrNoDocuments {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}
