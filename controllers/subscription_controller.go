package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	config "github.com/muchiri/planvote-go/config"
	models "github.com/muchiri/planvote-go/models"
	store "github.com/muchiri/planvote-go/store"
)

// ---------------- GET PLAN ----------------
func GetPlan(cfg *config.Config, plans *store.PlanStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		plan, err := plans.Get(ctx)
		if err != nil {
			if errors.Is(err, store.ErrPlanNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"status": false, "message": "Subscription plan not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "Server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": true, "message": "Plan fetched successfully", "data": plan})
	}
}

// ---------------- PURCHASE PLAN ----------------
// PurchasePlan activates (or extends) the caller's subscription.
// Payment itself happens upstream; we only record the resulting
// paymentId.
func PurchasePlan(cfg *config.Config, users *store.UserStore, plans *store.PlanStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requestUserID(c)
		if !ok {
			return
		}

		var input struct {
			PaymentID string `json:"paymentId"`
		}
		_ = c.ShouldBindJSON(&input)
		if input.PaymentID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": "paymentId is required"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		user, err := users.GetByID(ctx, userID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"status": false, "message": "User not found."})
			return
		}

		plan, err := plans.Get(ctx)
		if err != nil {
			if errors.Is(err, store.ErrPlanNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"status": false, "message": "Subscription plan not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "Server error"})
			return
		}

		now := time.Now()
		expiry := plan.ExpiryFrom(now)

		// An active subscription is extended, never duplicated.
		if user.Subscription.ActiveAt(now) {
			if user.Subscription.ExpiryDate.Before(expiry) {
				user.Subscription.ExpiryDate = expiry
				if err := users.SetSubscription(ctx, userID, user.Subscription); err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "Server error"})
					return
				}
				c.JSON(http.StatusOK, gin.H{"status": true, "message": "Subscription extended", "subscription": user.Subscription})
				return
			}
			c.JSON(http.StatusOK, gin.H{"status": true, "message": "Subscription already active", "subscription": user.Subscription})
			return
		}

		sub := &models.Subscription{
			PlanID:     plan.ID,
			StartDate:  now,
			ExpiryDate: expiry,
			Status:     "active",
			PaymentID:  input.PaymentID,
		}

		if err := users.SetSubscription(ctx, userID, sub); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "Server error"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"status": true, "message": "Subscription activated", "subscription": sub})
	}
}
