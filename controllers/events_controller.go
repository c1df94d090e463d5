package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	config "github.com/muchiri/planvote-go/config"
	middleware "github.com/muchiri/planvote-go/middleware"
	models "github.com/muchiri/planvote-go/models"
	store "github.com/muchiri/planvote-go/store"
	utils "github.com/muchiri/planvote-go/utils"
	workflow "github.com/muchiri/planvote-go/workflow"
)

// workflowStatus maps workflow sentinel errors to HTTP responses.
func workflowStatus(err error) (int, string) {
	switch {
	case errors.Is(err, workflow.ErrEventNotFound):
		return http.StatusNotFound, "Event not found"
	case errors.Is(err, workflow.ErrMissingEventID):
		return http.StatusBadRequest, "Event ID is required"
	case errors.Is(err, workflow.ErrMissingDate):
		return http.StatusBadRequest, "Please select a date."
	case errors.Is(err, workflow.ErrInvalidDate):
		return http.StatusBadRequest, "Selected date is not valid for this event."
	case errors.Is(err, workflow.ErrAlreadyVoted):
		return http.StatusBadRequest, "You already voted"
	case errors.Is(err, workflow.ErrCreatorCannotVote):
		return http.StatusForbidden, "Event creator cannot vote for their own event."
	case errors.Is(err, workflow.ErrNotInvited):
		return http.StatusForbidden, "You are not invited to vote on this event."
	case errors.Is(err, workflow.ErrNotCreator):
		return http.StatusForbidden, "Access denied. Only the event creator can perform this action."
	case errors.Is(err, workflow.ErrAlreadyFinalized):
		return http.StatusBadRequest, "Event date has already been finalized and cannot be changed."
	default:
		return http.StatusInternalServerError, "Server error"
	}
}

func requestUserID(c *gin.Context) (primitive.ObjectID, bool) {
	uid, err := primitive.ObjectIDFromHex(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"status": false, "message": "invalid user id"})
		return primitive.NilObjectID, false
	}
	return uid, true
}

// parseEventDate accepts RFC3339 with fallbacks for plain dates.
func parseEventDate(s string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		layouts := []string{"2006-01-02", "2006-01-02 15:04", "2006-01-02 15:04:05"}
		for _, layout := range layouts {
			if t, e := time.Parse(layout, s); e == nil {
				return t, nil
			}
		}
		return time.Time{}, err
	}
	return parsed, nil
}

// ---------------- CREATE ----------------
func CreateEvent(cfg *config.Config, events *store.EventStore, users *store.UserStore, badges *store.BadgeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requestUserID(c)
		if !ok {
			return
		}

		var input struct {
			Name        string `json:"name" binding:"required"`
			Location    string `json:"location" binding:"required"`
			Description string `json:"description" binding:"required"`
			VotingTime  string `json:"votingTime" binding:"required"`
			Dates       []struct {
				Date     string `json:"date" binding:"required"`
				TimeSlot string `json:"timeSlot"`
			} `json:"dates" binding:"required,min=1"`
			InvitationCustomization *models.InvitationCustomization `json:"invitationCustomization"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": "All fields are required"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		user, err := users.GetByID(ctx, userID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"status": false, "message": "User not found"})
			return
		}

		now := time.Now()
		hasPremium := user.Subscription.ActiveAt(now)

		// Free tier is capped at a single event.
		if !hasPremium {
			count, err := events.CountByCreator(ctx, userID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "Server error"})
				return
			}
			if count >= 1 {
				c.JSON(http.StatusForbidden, gin.H{"status": false, "message": "Upgrade to premium to create unlimited events"})
				return
			}
		}

		// Invitation themes are a premium feature.
		theme := "Theme1"
		if hasPremium && input.InvitationCustomization != nil && input.InvitationCustomization.Theme != "" {
			theme = input.InvitationCustomization.Theme
		}

		dates := make([]models.EventDate, 0, len(input.Dates))
		for _, d := range input.Dates {
			parsed, err := parseEventDate(d.Date)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": "invalid date format, use RFC3339 or YYYY-MM-DD"})
				return
			}
			dates = append(dates, models.EventDate{
				ID:       primitive.NewObjectID(),
				Date:     parsed,
				TimeSlot: d.TimeSlot,
			})
		}

		event := models.Event{
			ID:                      primitive.NewObjectID(),
			CreatedBy:               userID,
			Name:                    input.Name,
			Location:                input.Location,
			Description:             input.Description,
			VotingTime:              input.VotingTime,
			Type:                    "Planned",
			Dates:                   dates,
			InvitedUsers:            []primitive.ObjectID{},
			Votes:                   []models.Vote{},
			InvitationCustomization: models.InvitationCustomization{Theme: theme},
			CreatedAt:               now,
			UpdatedAt:               now,
		}

		if err := events.Insert(ctx, &event); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "could not create event"})
			return
		}

		go func() {
			bctx, bcancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer bcancel()
			if err := badges.CheckTopPlannerBadge(bctx, userID); err != nil {
				log.Printf("top planner badge check failed for %s: %v", userID.Hex(), err)
			}
		}()

		c.JSON(http.StatusOK, gin.H{
			"status":  true,
			"message": "Event created successfully",
			"data":    eventToSummary(&event, user, nil, cfg.BaseURL, "Planned"),
		})
	}
}

// ---------------- LIST (creator's planned events) ----------------
func ListEvents(cfg *config.Config, events *store.EventStore, users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requestUserID(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		list, err := events.ListPlannedByCreator(ctx, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "could not fetch events"})
			return
		}
		if len(list) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"status": false, "message": "No events found"})
			return
		}

		userMap, err := lookupParticipants(ctx, users, list, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "Server error"})
			return
		}
		creator := userMap[userID]

		summaries := make([]eventSummary, 0, len(list))
		for i := range list {
			summaries = append(summaries, eventToSummary(&list[i], &creator, userMap, cfg.BaseURL, "Planned"))
		}

		// --- Pick the most recently updated event ---
		latest := list[0]
		for _, ev := range list {
			if ev.UpdatedAt.After(latest.UpdatedAt) {
				latest = ev
			}
		}

		etag := utils.GenerateETag(latest.ID, latest.UpdatedAt)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)
		c.Header("Last-Modified", latest.UpdatedAt.UTC().Format(http.TimeFormat))

		c.JSON(http.StatusOK, gin.H{
			"status":  true,
			"message": "Events Fetched successfully",
			"data":    summaries,
		})
	}
}

// lookupParticipants fetches every user referenced by the given events
// (creators, voters, invitees) in one query.
func lookupParticipants(ctx context.Context, users *store.UserStore, list []models.Event, extra ...primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	seen := map[primitive.ObjectID]bool{}
	var ids []primitive.ObjectID
	add := func(id primitive.ObjectID) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, id := range extra {
		add(id)
	}
	for i := range list {
		add(list[i].CreatedBy)
		for _, v := range list[i].Votes {
			add(v.User)
		}
		for _, u := range list[i].InvitedUsers {
			add(u)
		}
	}
	return users.GetManyByIDs(ctx, ids)
}

// ---------------- GET (creator detail) ----------------
func GetEventByID(cfg *config.Config, events *store.EventStore, users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requestUserID(c)
		if !ok {
			return
		}

		eventID, err := primitive.ObjectIDFromHex(c.Param("eventId"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"status": false, "message": "Event not found"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		event, err := events.GetByID(ctx, eventID)
		if err != nil {
			code, msg := workflowStatus(err)
			c.JSON(code, gin.H{"status": false, "message": msg})
			return
		}

		if event.CreatedBy != userID {
			c.JSON(http.StatusForbidden, gin.H{"status": false, "message": "Access denied. Only event creator can view this event."})
			return
		}

		userMap, err := lookupParticipants(ctx, users, []models.Event{*event})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "Server error"})
			return
		}

		invitedPics := []voterPicture{}
		for _, id := range event.InvitedUsers {
			pic := ""
			if u, found := userMap[id]; found {
				pic = pictureURL(cfg.BaseURL, u.ProfilePicture)
			}
			invitedPics = append(invitedPics, voterPicture{UserID: id, ProfilePicture: pic})
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  true,
			"message": "Event Fetched Successfully",
			"data": gin.H{
				"id":                      event.ID,
				"name":                    event.Name,
				"location":                event.Location,
				"description":             event.Description,
				"invitationCustomization": event.InvitationCustomization,
				"invitedUsersCount":       len(event.InvitedUsers),
				"invitedUsersProfilePics": invitedPics,
				"remainingVotingTime":     remainingVotingTime(event.VotingTime, event.CreatedAt, time.Now()),
				"dates":                   datesWithVotes(event, userMap, cfg.BaseURL, true),
			},
		})
	}
}

// ---------------- ACCEPT INVITE ----------------
func AcceptInvite(wf *workflow.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requestUserID(c)
		if !ok {
			return
		}

		var input struct {
			EventID string `json:"eventId"`
		}
		if err := c.ShouldBindJSON(&input); err != nil || input.EventID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": "Event ID is required"})
			return
		}

		eventID, err := primitive.ObjectIDFromHex(input.EventID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"status": false, "message": "Event not found"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := wf.AcceptInvite(ctx, eventID, userID); err != nil {
			code, msg := workflowStatus(err)
			c.JSON(code, gin.H{"status": false, "message": msg})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": true, "message": "Invitation Accepted Successfully"})
	}
}

// ---------------- INVITE LINK ----------------
// HandleInviteLink is reachable without the auth middleware: it decodes
// the bearer token itself so it can tell an anonymous visitor to sign
// up while still joining a logged-in one.
func HandleInviteLink(cfg *config.Config, events *store.EventStore, users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventIDHex := c.Query("eventId")
		if eventIDHex == "" {
			c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": "Missing event ID"})
			return
		}

		eventID, err := primitive.ObjectIDFromHex(eventIDHex)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"status": false, "message": "Event not found"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		event, err := events.GetByID(ctx, eventID)
		if err != nil {
			code, msg := workflowStatus(err)
			c.JSON(code, gin.H{"status": false, "message": msg})
			return
		}

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":     false,
				"message":    "Please login/signup to view the event",
				"redirectTo": "/signup?redirect=/invite?eventId=" + eventIDHex,
			})
			return
		}

		claims, err := middleware.ParseToken(strings.TrimPrefix(header, "Bearer "), cfg.JWTSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"status": false, "message": "Invalid token"})
			return
		}
		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"status": false, "message": "Invalid token"})
			return
		}

		if event.CreatedBy == userID {
			c.JSON(http.StatusForbidden, gin.H{"status": false, "message": "Event creator cannot access this invite link."})
			return
		}

		if err := events.AddInvitee(ctx, eventID, userID); err != nil {
			code, msg := workflowStatus(err)
			c.JSON(code, gin.H{"status": false, "message": msg})
			return
		}

		creator, err := users.GetByID(ctx, event.CreatedBy)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "Server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  true,
			"message": "Event Joined Successfully",
			"data": gin.H{
				"name":        event.Name,
				"location":    event.Location,
				"description": event.Description,
				"creator": gin.H{
					"name":           strings.TrimSpace(creator.FirstName + " " + creator.LastName),
					"profilePicture": pictureURL(cfg.BaseURL, creator.ProfilePicture),
				},
				"finalizedDate": finalizedPayload(event.FinalizedDate),
			},
		})
	}
}

// ---------------- INVITED LIST ----------------
func GetInvitedEvents(cfg *config.Config, events *store.EventStore, users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requestUserID(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		list, err := events.ListInvited(ctx, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "could not fetch events"})
			return
		}
		if len(list) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"status": false, "message": "No invited events found for the user."})
			return
		}

		userMap, err := lookupParticipants(ctx, users, list)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "Server error"})
			return
		}

		summaries := make([]eventSummary, 0, len(list))
		for i := range list {
			creator := userMap[list[i].CreatedBy]
			summaries = append(summaries, eventToSummary(&list[i], &creator, userMap, cfg.BaseURL, "Invited"))
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  true,
			"message": "Event Fetched Successfully",
			"data":    summaries,
		})
	}
}

// ---------------- INVITED DETAIL (voting view) ----------------
func GetInvitedEventDetails(cfg *config.Config, events *store.EventStore, users *store.UserStore, groups *store.GroupStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requestUserID(c)
		if !ok {
			return
		}

		eventID, err := primitive.ObjectIDFromHex(c.Param("eventId"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"status": false, "message": "Event not found"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		event, err := events.GetByID(ctx, eventID)
		if err != nil {
			code, msg := workflowStatus(err)
			c.JSON(code, gin.H{"status": false, "message": msg})
			return
		}

		if !event.IsInvited(userID) {
			c.JSON(http.StatusForbidden, gin.H{"status": false, "message": "User is not invited to this event."})
			return
		}
		// The creator gets the full breakdown elsewhere, never this view.
		if event.CreatedBy == userID {
			c.JSON(http.StatusForbidden, gin.H{"status": false, "message": "Event creator cannot access this voting details."})
			return
		}

		userMap, err := lookupParticipants(ctx, users, []models.Event{*event})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "Server error"})
			return
		}
		creator := userMap[event.CreatedBy]

		dates := make([]gin.H, 0, len(event.Dates))
		for _, d := range event.Dates {
			dates = append(dates, gin.H{
				"date":     formatWeekdayDate(workflow.DayKey(d.Date)),
				"timeSlot": d.TimeSlot,
			})
		}

		invitedPics := []string{}
		for _, id := range event.InvitedUsers {
			if u, found := userMap[id]; found && u.ProfilePicture != "" {
				invitedPics = append(invitedPics, pictureURL(cfg.BaseURL, u.ProfilePicture))
			} else {
				invitedPics = append(invitedPics, "")
			}
		}

		finalized := ""
		timeSlot := ""
		if event.FinalizedDate.IsSet() {
			finalized = formatWeekdayDate(event.FinalizedDate.Date)
			timeSlot = event.FinalizedDate.TimeSlot
		}

		// Group exists only after the first vote lands.
		groupID := ""
		if group, err := groups.GetByEventID(ctx, eventID); err == nil {
			groupID = group.ID.Hex()
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  true,
			"message": "Event Fetched Successfully",
			"data": gin.H{
				"eventId":     event.ID,
				"name":        event.Name,
				"location":    event.Location,
				"description": event.Description,
				"creator": gin.H{
					"name":           creator.FirstName,
					"profilePicture": pictureURL(cfg.BaseURL, creator.ProfilePicture),
				},
				"dates":                   dates,
				"invitedUsersCount":       len(event.InvitedUsers),
				"invitedUsersProfilePics": invitedPics,
				"remainingVotingTime":     remainingVotingTime(event.VotingTime, event.CreatedAt, time.Now()),
				"finalizedDate":           finalized,
				"timeSlot":                timeSlot,
				"groupId":                 groupID,
			},
		})
	}
}

// ---------------- VOTE ----------------
func VoteOnEvent(wf *workflow.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requestUserID(c)
		if !ok {
			return
		}

		eventID, err := primitive.ObjectIDFromHex(c.Param("eventId"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"status": false, "message": "Event not found"})
			return
		}

		var input struct {
			SelectedDate string `json:"selectedDate"`
		}
		// Binding errors fall through as an empty date so the workflow's
		// precondition ordering decides what the caller hears first.
		_ = c.ShouldBindJSON(&input)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		result, err := wf.CastVote(ctx, eventID, input.SelectedDate, userID)
		if err != nil {
			code, msg := workflowStatus(err)
			if errors.Is(err, workflow.ErrMissingDate) {
				msg = "Please select a date to vote."
			}
			c.JSON(code, gin.H{"status": false, "message": msg})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    true,
			"message":   "Vote submitted",
			"voteCount": result.VoteCount,
			"groupId":   result.GroupID,
		})
	}
}

// ---------------- VOTERS BY DATE ----------------
func GetVotersByDate(cfg *config.Config, wf *workflow.Service, users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requestUserID(c)
		if !ok {
			return
		}

		eventID, err := primitive.ObjectIDFromHex(c.Param("eventId"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"status": false, "message": "Event not found"})
			return
		}

		selectedDate := c.Query("selectedDate")
		if selectedDate == "" {
			c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": "Please provide selectedDate query parameter."})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		votes, day, err := wf.VotersByDate(ctx, eventID, selectedDate, userID)
		if err != nil {
			code, msg := workflowStatus(err)
			if errors.Is(err, workflow.ErrNotCreator) {
				msg = "Only event creator can view voters for a date."
			}
			c.JSON(code, gin.H{"status": false, "message": msg})
			return
		}

		ids := make([]primitive.ObjectID, 0, len(votes))
		for _, v := range votes {
			ids = append(ids, v.User)
		}
		userMap, err := users.GetManyByIDs(ctx, ids)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "Server error"})
			return
		}

		voters := []gin.H{}
		for _, v := range votes {
			u := userMap[v.User]
			voters = append(voters, gin.H{
				"userId":         v.User,
				"name":           u.FirstName,
				"profilePicture": pictureURL(cfg.BaseURL, u.ProfilePicture),
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  true,
			"message": "Voters for the selected date retrieved successfully.",
			"data": gin.H{
				"eventId":     eventID,
				"date":        day,
				"voters":      voters,
				"totalVoters": len(voters),
			},
		})
	}
}

// ---------------- FINALIZE ----------------
func FinalizeEventDate(wf *workflow.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requestUserID(c)
		if !ok {
			return
		}

		eventID, err := primitive.ObjectIDFromHex(c.Param("eventId"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"status": false, "message": "Event not found"})
			return
		}

		var input struct {
			SelectedDate string `json:"selectedDate"`
		}
		_ = c.ShouldBindJSON(&input)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		fd, err := wf.FinalizeDate(ctx, eventID, input.SelectedDate, userID)
		if err != nil {
			code, msg := workflowStatus(err)
			if errors.Is(err, workflow.ErrMissingDate) {
				msg = "Please provide the selected date to finalize."
			}
			if errors.Is(err, workflow.ErrInvalidDate) {
				msg = "Selected date option not found in event."
			}
			if errors.Is(err, workflow.ErrNotCreator) {
				msg = "Access denied. Only event creator can finalize the date."
			}
			c.JSON(code, gin.H{"status": false, "message": msg})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  true,
			"message": "Date finalized successfully.",
			"data":    finalizedPayload(&fd),
		})
	}
}
