package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	BadgeSpeedyVoter = "Speedy Voter"
	BadgeTopPlanner  = "Top Planner"
)

// topPlannerThreshold is how many events a user must have created to
// earn the Top Planner badge.
const topPlannerThreshold = 5

// speedyVoterWindow is how soon after event creation a vote must land
// to count as speedy.
const speedyVoterWindow = time.Hour

// BadgeService evaluates badge eligibility. All checks are idempotent:
// awarding is a set-insert on the user document.
type BadgeService struct {
	users  *UserStore
	events *EventStore
}

func NewBadgeService(users *UserStore, events *EventStore) *BadgeService {
	return &BadgeService{users: users, events: events}
}

// CheckSpeedyVoterBadge awards Speedy Voter to users who voted on an
// event within an hour of it being created.
func (b *BadgeService) CheckSpeedyVoterBadge(ctx context.Context, userID primitive.ObjectID) error {
	speedy, err := b.events.HasVoteSince(ctx, userID, time.Now().Add(-speedyVoterWindow))
	if err != nil {
		return err
	}
	if !speedy {
		return nil
	}
	return b.users.AddBadge(ctx, userID, BadgeSpeedyVoter)
}

// CheckTopPlannerBadge awards Top Planner once a user has created
// enough events.
func (b *BadgeService) CheckTopPlannerBadge(ctx context.Context, userID primitive.ObjectID) error {
	count, err := b.events.CountByCreator(ctx, userID)
	if err != nil {
		return err
	}
	if count < topPlannerThreshold {
		return nil
	}
	return b.users.AddBadge(ctx, userID, BadgeTopPlanner)
}
