package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	config "github.com/muchiri/planvote-go/config"
	store "github.com/muchiri/planvote-go/store"
)

// ---------------- LIST ----------------
func ListNotifications(cfg *config.Config, notifications *store.NotificationStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requestUserID(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		list, err := notifications.ListByUser(ctx, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "could not fetch notifications"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": true, "message": "Notifications fetched successfully", "data": list})
	}
}

// ---------------- MARK READ ----------------
func MarkNotificationRead(cfg *config.Config, notifications *store.NotificationStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requestUserID(c)
		if !ok {
			return
		}

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": "invalid notification id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		updated, err := notifications.MarkRead(ctx, id, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "Server error"})
			return
		}
		if !updated {
			c.JSON(http.StatusNotFound, gin.H{"status": false, "message": "notification not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": true, "message": "Notification marked as read"})
	}
}
