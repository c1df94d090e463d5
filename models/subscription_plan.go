package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SubscriptionPlan struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     string             `bson:"name" json:"name"`
	Price    float64            `bson:"price" json:"price"`
	Currency string             `bson:"currency" json:"currency"`
	Duration string             `bson:"duration" json:"duration"` // day, week, month, year
	Features []string           `bson:"features,omitempty" json:"features,omitempty"`
}

// ExpiryFrom computes when a purchase made at 'from' runs out, in UTC.
// Unknown durations fall back to a year, matching the billing default.
func (p *SubscriptionPlan) ExpiryFrom(from time.Time) time.Time {
	from = from.UTC()
	switch p.Duration {
	case "day":
		return from.AddDate(0, 0, 1)
	case "week":
		return from.AddDate(0, 0, 7)
	case "month":
		return from.AddDate(0, 1, 0)
	case "year":
		return from.AddDate(1, 0, 0)
	default:
		return from.AddDate(1, 0, 0)
	}
}

func (p *SubscriptionPlan) String() string {
	return fmt.Sprintf("%s (%s %.2f / %s)", p.Name, p.Currency, p.Price, p.Duration)
}
