package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group is a derived projection of who has voted on an event. It is
// created lazily on the first vote; event_id carries a unique index so
// racing first votes cannot create two groups.
type Group struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	EventID   primitive.ObjectID   `bson:"event_id" json:"event_id"`
	Members   []primitive.ObjectID `bson:"members" json:"members"`
	CreatedAt time.Time            `bson:"created_at" json:"created_at"`
}
