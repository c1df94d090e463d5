package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Subscription struct {
	PlanID     primitive.ObjectID `bson:"plan_id,omitempty" json:"plan_id,omitempty"`
	StartDate  time.Time          `bson:"start_date,omitempty" json:"start_date,omitempty"`
	ExpiryDate time.Time          `bson:"expiry_date,omitempty" json:"expiry_date,omitempty"`
	Status     string             `bson:"status,omitempty" json:"status,omitempty"` // active, expired
	PaymentID  string             `bson:"payment_id,omitempty" json:"payment_id,omitempty"`
}

// ActiveAt reports whether the subscription grants premium access at t.
func (s *Subscription) ActiveAt(t time.Time) bool {
	return s != nil && s.Status == "active" && s.ExpiryDate.After(t)
}

type User struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName         string             `bson:"first_name" json:"first_name"`
	LastName          string             `bson:"last_name" json:"last_name"`
	Email             string             `bson:"email" json:"email"`
	Password          string             `bson:"password,omitempty" json:"-"`
	OTP               string             `bson:"otp,omitempty" json:"-"`
	OTPExpiry         time.Time          `bson:"otp_expiry,omitempty" json:"-"`
	IsVerified        bool               `bson:"is_verified" json:"is_verified"`
	ProfilePicture    string             `bson:"profile_picture,omitempty" json:"profile_picture,omitempty"` // relative path
	AllNotifications  bool               `bson:"all_notifications" json:"all_notifications"`
	ChatNotifications bool               `bson:"chat_notifications" json:"chat_notifications"`
	Badges            []string           `bson:"badges,omitempty" json:"badges,omitempty"`
	Subscription      *Subscription      `bson:"subscription,omitempty" json:"subscription,omitempty"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at" json:"updated_at"`
}
