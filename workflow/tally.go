package workflow

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/muchiri/planvote-go/models"
)

// DateTally is the per-candidate-date aggregation of votes.
type DateTally struct {
	Count  int
	Voters []primitive.ObjectID
}

// TallyVotes groups votes by UTC calendar day. It is a pure function of
// the vote list, recomputed on every read.
func TallyVotes(votes []models.Vote) map[string]DateTally {
	byDay := make(map[string]DateTally, len(votes))
	for _, v := range votes {
		if v.Date == "" {
			continue
		}
		t := byDay[v.Date]
		t.Count++
		t.Voters = append(t.Voters, v.User)
		byDay[v.Date] = t
	}
	return byDay
}

// VotersFor returns the votes cast for one calendar day, in cast order.
func VotersFor(votes []models.Vote, day string) []models.Vote {
	var out []models.Vote
	for _, v := range votes {
		if v.Date == day {
			out = append(out, v)
		}
	}
	return out
}
