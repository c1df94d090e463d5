package controllers

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/muchiri/planvote-go/models"
	workflow "github.com/muchiri/planvote-go/workflow"
)

// Presentation shaping for event payloads. Everything here is a pure
// function of stored data plus the configured base URL; the workflow
// never sees any of it.

type voterPicture struct {
	UserID         primitive.ObjectID `json:"userId"`
	ProfilePicture string             `json:"profilePicture"`
}

type creatorProfile struct {
	Name           string `json:"name"`
	ProfilePicture string `json:"profilePicture"`
}

type finalizedDatePayload struct {
	Date     string `json:"date"`
	TimeSlot string `json:"timeSlot"`
}

type dateWithVotes struct {
	ID                    primitive.ObjectID `json:"id,omitempty"`
	Date                  string             `json:"date"`
	TimeSlot              string             `json:"timeSlot"`
	VoteCount             int                `json:"voteCount"`
	VotersProfilePictures []voterPicture     `json:"votersProfilePictures"`
}

type eventSummary struct {
	ID                      primitive.ObjectID             `json:"id"`
	Name                    string                         `json:"name"`
	Location                string                         `json:"location"`
	Description             string                         `json:"description"`
	InvitationCustomization models.InvitationCustomization `json:"invitationCustomization"`
	Type                    string                         `json:"type"`
	CreatorProfilePicture   creatorProfile                 `json:"creatorProfilePicture"`
	VoteCount               int                            `json:"voteCount"`
	VotersProfilePictures   []voterPicture                 `json:"votersProfilePictures"`
	FinalizedDate           finalizedDatePayload           `json:"finalizedDate"`
}

// pictureURL resolves a stored relative path against the configured
// base URL, normalizing path separators to forward slashes. Cloudinary
// uploads are stored as absolute URLs and pass through untouched.
func pictureURL(baseURL, rel string) string {
	if rel == "" {
		return ""
	}
	if strings.HasPrefix(rel, "http://") || strings.HasPrefix(rel, "https://") {
		return rel
	}
	return baseURL + "/" + strings.ReplaceAll(rel, "\\", "/")
}

// formatWeekdayDate renders a calendar day as "Monday 2025-06-01".
func formatWeekdayDate(day string) string {
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		return day
	}
	return t.UTC().Weekday().String() + " " + day
}

var votingTimeRe = regexp.MustCompile(`(?i)^(\d+)\s*hrs?$`)

// remainingVotingTime turns a votingTime spec like "48 hrs" plus the
// event's creation time into human-readable remaining time.
func remainingVotingTime(votingTime string, createdAt, now time.Time) string {
	m := votingTimeRe.FindStringSubmatch(strings.TrimSpace(votingTime))
	if m == nil {
		return "Voting ended"
	}
	hoursAllowed, _ := strconv.Atoi(m[1])
	votingEnd := createdAt.Add(time.Duration(hoursAllowed) * time.Hour)

	remaining := votingEnd.Sub(now)
	if remaining <= 0 {
		return "Voting ended"
	}

	hours := int(remaining / time.Hour)
	minutes := int((remaining % time.Hour) / time.Minute)

	switch {
	case hours > 0:
		text := fmt.Sprintf("%d hour%s remaining", hours, plural(hours))
		if minutes > 0 {
			text += fmt.Sprintf(" %d minute%s", minutes, plural(minutes))
		}
		return text
	case minutes > 0:
		return fmt.Sprintf("%d minute%s remaining", minutes, plural(minutes))
	default:
		return "Less than a minute remaining"
	}
}

func plural(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}

// voterPictures resolves the voters of a tally entry into display
// payloads, skipping users without a stored picture.
func voterPictures(voters []primitive.ObjectID, users map[primitive.ObjectID]models.User, baseURL string) []voterPicture {
	out := []voterPicture{}
	for _, id := range voters {
		u, ok := users[id]
		if !ok || u.ProfilePicture == "" {
			continue
		}
		out = append(out, voterPicture{UserID: id, ProfilePicture: pictureURL(baseURL, u.ProfilePicture)})
	}
	return out
}

// allVoterPictures maps every vote to a display payload, keeping
// entries for voters without pictures (empty string), matching the
// listing shape.
func allVoterPictures(votes []models.Vote, users map[primitive.ObjectID]models.User, baseURL string) []voterPicture {
	out := []voterPicture{}
	for _, v := range votes {
		pic := ""
		if u, ok := users[v.User]; ok && u.ProfilePicture != "" {
			pic = pictureURL(baseURL, u.ProfilePicture)
		}
		out = append(out, voterPicture{UserID: v.User, ProfilePicture: pic})
	}
	return out
}

// datesWithVotes joins candidate dates against the vote tally.
func datesWithVotes(event *models.Event, users map[primitive.ObjectID]models.User, baseURL string, formatDays bool) []dateWithVotes {
	tally := workflow.TallyVotes(event.Votes)
	out := make([]dateWithVotes, 0, len(event.Dates))
	for _, d := range event.Dates {
		day := workflow.DayKey(d.Date)
		entry := tally[day]
		dateStr := day
		if formatDays {
			dateStr = formatWeekdayDate(day)
		}
		out = append(out, dateWithVotes{
			ID:                    d.ID,
			Date:                  dateStr,
			TimeSlot:              d.TimeSlot,
			VoteCount:             entry.Count,
			VotersProfilePictures: voterPictures(entry.Voters, users, baseURL),
		})
	}
	return out
}

func finalizedPayload(fd *models.FinalizedDate) finalizedDatePayload {
	if fd == nil {
		return finalizedDatePayload{}
	}
	return finalizedDatePayload{Date: fd.Date, TimeSlot: fd.TimeSlot}
}

func eventToSummary(event *models.Event, creator *models.User, users map[primitive.ObjectID]models.User, baseURL, eventType string) eventSummary {
	profile := creatorProfile{}
	if creator != nil {
		profile.Name = creator.FirstName
		profile.ProfilePicture = pictureURL(baseURL, creator.ProfilePicture)
	}
	return eventSummary{
		ID:                      event.ID,
		Name:                    event.Name,
		Location:                event.Location,
		Description:             event.Description,
		InvitationCustomization: event.InvitationCustomization,
		Type:                    eventType,
		CreatorProfilePicture:   profile,
		VoteCount:               len(event.Votes),
		VotersProfilePictures:   allVoterPictures(event.Votes, users, baseURL),
		FinalizedDate:           finalizedPayload(event.FinalizedDate),
	}
}
