package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEventIsInvitedAndHasVoted(t *testing.T) {
	invited := primitive.NewObjectID()
	voter := primitive.NewObjectID()
	e := Event{
		InvitedUsers: []primitive.ObjectID{invited, voter},
		Votes:        []Vote{{User: voter, Date: "2025-06-01"}},
	}

	assert.True(t, e.IsInvited(invited))
	assert.False(t, e.IsInvited(primitive.NewObjectID()))
	assert.True(t, e.HasVoted(voter))
	assert.False(t, e.HasVoted(invited))
}

func TestEventDateOption(t *testing.T) {
	e := Event{
		Dates: []EventDate{
			{Date: time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC), TimeSlot: "6pm - 9pm"},
			{Date: time.Date(2025, 6, 2, 13, 0, 0, 0, time.UTC), TimeSlot: "1pm - 3pm"},
		},
	}

	opt, ok := e.DateOption("2025-06-01")
	require.True(t, ok)
	assert.Equal(t, "6pm - 9pm", opt.TimeSlot)

	_, ok = e.DateOption("2025-06-03")
	assert.False(t, ok)
}

func TestFinalizedDateIsSet(t *testing.T) {
	var none *FinalizedDate
	assert.False(t, none.IsSet())
	assert.False(t, (&FinalizedDate{}).IsSet())
	assert.True(t, (&FinalizedDate{Date: "2025-06-01"}).IsSet())
}
