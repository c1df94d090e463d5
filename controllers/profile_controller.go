package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"

	config "github.com/muchiri/planvote-go/config"
	store "github.com/muchiri/planvote-go/store"
	workflow "github.com/muchiri/planvote-go/workflow"
)

// ---------------- GET PROFILE ----------------
func GetProfile(cfg *config.Config, users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requestUserID(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		user, err := users.GetByID(ctx, userID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": "User not found"})
			return
		}

		badges := user.Badges
		if badges == nil {
			badges = []string{}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  true,
			"message": "Profile fetched successfully",
			"data": gin.H{
				"first_name":     user.FirstName,
				"last_name":      user.LastName,
				"email":          user.Email,
				"profilePicture": pictureURL(cfg.BaseURL, user.ProfilePicture),
				"badges":         badges,
			},
		})
	}
}

// ---------------- UPDATE PROFILE ----------------
func UpdateProfile(cfg *config.Config, users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requestUserID(c)
		if !ok {
			return
		}

		var input struct {
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
			Email     string `json:"email"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		user, err := users.GetByID(ctx, userID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": "User not found"})
			return
		}

		if input.Email != "" && input.Email != user.Email {
			if _, err := users.GetByEmail(ctx, input.Email); err == nil {
				c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": "Email is already in use"})
				return
			}
		}

		update := bson.M{}
		if input.FirstName != "" {
			update["first_name"] = input.FirstName
			user.FirstName = input.FirstName
		}
		if input.LastName != "" {
			update["last_name"] = input.LastName
			user.LastName = input.LastName
		}
		if input.Email != "" {
			update["email"] = input.Email
			user.Email = input.Email
		}

		if len(update) > 0 {
			if err := users.UpdateFields(ctx, userID, update); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "Server error"})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  true,
			"message": "Profile updated successfully",
			"data": gin.H{
				"first_name": user.FirstName,
				"last_name":  user.LastName,
				"email":      user.Email,
			},
		})
	}
}

// ---------------- TOTAL EVENTS ----------------
// GetTotalEvents summarizes the caller's own events for the profile
// screen: name, first candidate date, and how many votes came in.
func GetTotalEvents(cfg *config.Config, events *store.EventStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requestUserID(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		list, err := events.ListPlannedByCreator(ctx, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "Server error"})
			return
		}
		if len(list) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": "No events found"})
			return
		}

		data := make([]gin.H, 0, len(list))
		for _, ev := range list {
			date := ""
			timeSlot := ""
			if len(ev.Dates) > 0 {
				date = workflow.DayKey(ev.Dates[0].Date)
				timeSlot = ev.Dates[0].TimeSlot
			}
			data = append(data, gin.H{
				"eventId":    ev.ID,
				"name":       ev.Name,
				"date":       date,
				"timeSlot":   timeSlot,
				"totalVoted": len(ev.Votes),
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  true,
			"message": "Total events fetched successfully",
			"data":    data,
		})
	}
}

// ---------------- CHANGE PASSWORD ----------------
func ChangePassword(cfg *config.Config, users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requestUserID(c)
		if !ok {
			return
		}

		var input struct {
			CurrentPassword string `json:"currentPassword" binding:"required"`
			NewPassword     string `json:"newPassword" binding:"required"`
			ConfirmPassword string `json:"confirmPassword" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": err.Error()})
			return
		}

		if input.CurrentPassword == input.NewPassword {
			c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": "New password cannot be the same as the current password."})
			return
		}
		if input.NewPassword != input.ConfirmPassword {
			c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": "Passwords do not match."})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		user, err := users.GetByID(ctx, userID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"status": false, "message": "User not found."})
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.CurrentPassword)) != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": "Current password is incorrect."})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "Server error"})
			return
		}

		if err := users.SetPassword(ctx, userID, string(hash), false); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "Server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": true, "message": "Password updated successfully."})
	}
}

// ---------------- NOTIFICATION PREFERENCES ----------------
func UpdateAllNotifications(cfg *config.Config, users *store.UserStore) gin.HandlerFunc {
	return updateNotificationPref(users, "all_notifications", "All notifications updated successfully.")
}

func UpdateChatNotifications(cfg *config.Config, users *store.UserStore) gin.HandlerFunc {
	return updateNotificationPref(users, "chat_notifications", "Chat notifications updated successfully.")
}

func updateNotificationPref(users *store.UserStore, field, successMsg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requestUserID(c)
		if !ok {
			return
		}

		var input map[string]bool
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": err.Error()})
			return
		}

		var value bool
		var provided bool
		for _, key := range []string{"allNotifications", "chatNotifications"} {
			if v, found := input[key]; found {
				value = v
				provided = true
			}
		}
		if !provided {
			c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": "Notification preference is required"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := users.UpdateFields(ctx, userID, bson.M{field: value}); err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"status": false, "message": "User not found."})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "Server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": true, "message": successMsg})
	}
}
