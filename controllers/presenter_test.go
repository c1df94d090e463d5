package controllers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/muchiri/planvote-go/models"
)

func TestPictureURL(t *testing.T) {
	base := "https://api.example.com"
	assert.Equal(t, "", pictureURL(base, ""))
	assert.Equal(t, "https://api.example.com/uploads/pic.png", pictureURL(base, "uploads/pic.png"))
	// Windows-style separators from old uploads get normalized.
	assert.Equal(t, "https://api.example.com/uploads/pic.png", pictureURL(base, `uploads\pic.png`))
	// Hosted uploads are already absolute.
	hosted := "https://res.cloudinary.com/demo/image/upload/v1/profiles/abc.jpg"
	assert.Equal(t, hosted, pictureURL(base, hosted))
}

func TestFormatWeekdayDate(t *testing.T) {
	assert.Equal(t, "Sunday 2025-06-01", formatWeekdayDate("2025-06-01"))
	assert.Equal(t, "Monday 2025-06-02", formatWeekdayDate("2025-06-02"))
	// Unparseable input passes through untouched.
	assert.Equal(t, "garbage", formatWeekdayDate("garbage"))
}

func TestRemainingVotingTime(t *testing.T) {
	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name       string
		votingTime string
		now        time.Time
		want       string
	}{
		{"hours and minutes left", "48 hrs", createdAt.Add(10*time.Hour + 30*time.Minute), "37 hours remaining 30 minutes"},
		{"one hour exactly", "2 hrs", createdAt.Add(1 * time.Hour), "1 hour remaining"},
		{"minutes only", "1 hr", createdAt.Add(59 * time.Minute), "1 minute remaining"},
		{"under a minute", "1 hr", createdAt.Add(59*time.Minute + 30*time.Second), "Less than a minute remaining"},
		{"expired", "48 hrs", createdAt.Add(49 * time.Hour), "Voting ended"},
		{"expired exactly at the boundary", "24 hrs", createdAt.Add(24 * time.Hour), "Voting ended"},
		{"case-insensitive unit", "12 HRS", createdAt.Add(1 * time.Hour), "11 hours remaining"},
		{"malformed spec", "two days", createdAt, "Voting ended"},
		{"empty spec", "", createdAt, "Voting ended"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, remainingVotingTime(tc.votingTime, createdAt, tc.now))
		})
	}
}

func TestVoterPictures(t *testing.T) {
	base := "https://api.example.com"
	withPic := primitive.NewObjectID()
	noPic := primitive.NewObjectID()
	unknown := primitive.NewObjectID()
	users := map[primitive.ObjectID]models.User{
		withPic: {ID: withPic, ProfilePicture: "uploads/a.png"},
		noPic:   {ID: noPic},
	}

	got := voterPictures([]primitive.ObjectID{withPic, noPic, unknown}, users, base)
	require.Len(t, got, 1)
	assert.Equal(t, withPic, got[0].UserID)
	assert.Equal(t, "https://api.example.com/uploads/a.png", got[0].ProfilePicture)
}

func TestAllVoterPicturesKeepsEmptyEntries(t *testing.T) {
	base := "https://api.example.com"
	withPic := primitive.NewObjectID()
	noPic := primitive.NewObjectID()
	users := map[primitive.ObjectID]models.User{
		withPic: {ID: withPic, ProfilePicture: "uploads/a.png"},
	}
	votes := []models.Vote{
		{User: withPic, Date: "2025-06-01"},
		{User: noPic, Date: "2025-06-01"},
	}

	got := allVoterPictures(votes, users, base)
	require.Len(t, got, 2)
	assert.Equal(t, "https://api.example.com/uploads/a.png", got[0].ProfilePicture)
	assert.Equal(t, "", got[1].ProfilePicture)
}

func TestDatesWithVotes(t *testing.T) {
	base := "https://api.example.com"
	voter := primitive.NewObjectID()
	users := map[primitive.ObjectID]models.User{
		voter: {ID: voter, ProfilePicture: "uploads/a.png"},
	}
	event := &models.Event{
		Dates: []models.EventDate{
			{ID: primitive.NewObjectID(), Date: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), TimeSlot: "6pm - 9pm"},
			{ID: primitive.NewObjectID(), Date: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), TimeSlot: "1pm - 3pm"},
		},
		Votes: []models.Vote{{User: voter, Date: "2025-06-01"}},
	}

	got := datesWithVotes(event, users, base, false)
	require.Len(t, got, 2)
	assert.Equal(t, "2025-06-01", got[0].Date)
	assert.Equal(t, 1, got[0].VoteCount)
	require.Len(t, got[0].VotersProfilePictures, 1)
	assert.Equal(t, 0, got[1].VoteCount)
	assert.Empty(t, got[1].VotersProfilePictures)

	formatted := datesWithVotes(event, users, base, true)
	assert.Equal(t, "Sunday 2025-06-01", formatted[0].Date)
}

func TestFinalizedPayload(t *testing.T) {
	assert.Equal(t, finalizedDatePayload{}, finalizedPayload(nil))
	fd := &models.FinalizedDate{Date: "2025-06-01", TimeSlot: "6pm - 9pm"}
	assert.Equal(t, finalizedDatePayload{Date: "2025-06-01", TimeSlot: "6pm - 9pm"}, finalizedPayload(fd))
}
