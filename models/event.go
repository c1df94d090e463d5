package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventDate is one candidate option proposed at creation. The set is
// fixed for the lifetime of the event.
type EventDate struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Date     time.Time          `bson:"date" json:"date"`
	TimeSlot string             `bson:"time_slot,omitempty" json:"time_slot,omitempty"`
}

// Vote records one user's choice. Date is stored as a UTC calendar day
// ("2006-01-02") so matching never depends on time-of-day.
type Vote struct {
	User primitive.ObjectID `bson:"user" json:"user"`
	Date string             `bson:"date" json:"date"`
}

// FinalizedDate is write-once: once Date is non-empty the event is locked.
type FinalizedDate struct {
	Date     string `bson:"date" json:"date"`
	TimeSlot string `bson:"time_slot" json:"time_slot"`
}

func (f *FinalizedDate) IsSet() bool {
	return f != nil && f.Date != ""
}

type InvitationCustomization struct {
	Theme string `bson:"theme" json:"theme"`
}

type Event struct {
	ID                      primitive.ObjectID      `bson:"_id,omitempty" json:"id"`
	CreatedBy               primitive.ObjectID      `bson:"created_by" json:"created_by"`
	Name                    string                  `bson:"name" json:"name"`
	Location                string                  `bson:"location,omitempty" json:"location,omitempty"`
	Description             string                  `bson:"description,omitempty" json:"description,omitempty"`
	VotingTime              string                  `bson:"voting_time" json:"voting_time"` // e.g. "48 hrs"
	Type                    string                  `bson:"type" json:"type"`               // Planned
	Dates                   []EventDate             `bson:"dates" json:"dates"`
	InvitedUsers            []primitive.ObjectID    `bson:"invited_users" json:"invited_users"`
	Votes                   []Vote                  `bson:"votes" json:"votes"`
	FinalizedDate           *FinalizedDate          `bson:"finalized_date,omitempty" json:"finalized_date,omitempty"`
	InvitationCustomization InvitationCustomization `bson:"invitation_customization" json:"invitation_customization"`
	CreatedAt               time.Time               `bson:"created_at" json:"created_at"`
	UpdatedAt               time.Time               `bson:"updated_at" json:"updated_at"`
}

// IsInvited reports whether userID is in the invited set.
func (e *Event) IsInvited(userID primitive.ObjectID) bool {
	for _, u := range e.InvitedUsers {
		if u == userID {
			return true
		}
	}
	return false
}

// HasVoted reports whether userID already appears in the vote list.
func (e *Event) HasVoted(userID primitive.ObjectID) bool {
	for _, v := range e.Votes {
		if v.User == userID {
			return true
		}
	}
	return false
}

// DateOption returns the candidate matching day ("2006-01-02"), if any.
func (e *Event) DateOption(day string) (EventDate, bool) {
	for _, d := range e.Dates {
		if d.Date.UTC().Format("2006-01-02") == day {
			return d, true
		}
	}
	return EventDate{}, false
}
