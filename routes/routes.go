package routes

import (
	"github.com/gin-gonic/gin"

	config "github.com/muchiri/planvote-go/config"
	controllers "github.com/muchiri/planvote-go/controllers"
	middleware "github.com/muchiri/planvote-go/middleware"
	store "github.com/muchiri/planvote-go/store"
	workflow "github.com/muchiri/planvote-go/workflow"
)

func SetupRoutes(r *gin.Engine, cfg *config.Config) *workflow.Service {
	db := cfg.MongoClient.Database(cfg.DBName)

	users := store.NewUserStore(db)
	events := store.NewEventStore(db)
	groups := store.NewGroupStore(db)
	notifications := store.NewNotificationStore(db)
	plans := store.NewPlanStore(db)
	badges := store.NewBadgeService(users, events)

	wf := workflow.New(events, groups, badges, notifications)

	// public
	r.POST("/auth/signup", controllers.Signup(cfg, users))
	r.POST("/auth/verify-otp", controllers.VerifyOTP(cfg, users))
	r.POST("/auth/resend-otp", controllers.ResendOTP(cfg, users))
	r.POST("/auth/login", controllers.Login(cfg, users))

	// invite links carry their own token handling
	r.GET("/invitations/link", controllers.HandleInviteLink(cfg, events, users))

	// protected
	auth := middleware.AuthMiddleware(cfg)

	authGroup := r.Group("/auth")
	authGroup.Use(auth)
	{
		authGroup.POST("/create-password", controllers.CreatePassword(cfg, users))
		authGroup.POST("/logout", controllers.Logout())
		authGroup.POST("/profile-picture", controllers.UploadProfilePicture(cfg, users))
	}

	profile := r.Group("/profile")
	profile.Use(auth)
	{
		profile.GET("", controllers.GetProfile(cfg, users))
		profile.PATCH("", controllers.UpdateProfile(cfg, users))
		profile.POST("/change-password", controllers.ChangePassword(cfg, users))
		profile.GET("/events", controllers.GetTotalEvents(cfg, events))
		profile.PATCH("/notifications/all", controllers.UpdateAllNotifications(cfg, users))
		profile.PATCH("/notifications/chat", controllers.UpdateChatNotifications(cfg, users))
	}

	subscriptions := r.Group("/subscriptions")
	subscriptions.Use(auth)
	{
		subscriptions.GET("/plan", controllers.GetPlan(cfg, plans))
		subscriptions.POST("/purchase", controllers.PurchasePlan(cfg, users, plans))
	}

	notifs := r.Group("/notifications")
	notifs.Use(auth)
	{
		notifs.GET("", controllers.ListNotifications(cfg, notifications))
		notifs.PATCH("/:id/read", controllers.MarkNotificationRead(cfg, notifications))
	}

	invitations := r.Group("/invitations")
	invitations.Use(auth)
	{
		invitations.GET("", controllers.GetInvitedEvents(cfg, events, users))
		invitations.POST("/accept", controllers.AcceptInvite(wf))
	}

	eventsGroup := r.Group("/events")
	eventsGroup.Use(auth)
	{
		eventsGroup.POST("", controllers.CreateEvent(cfg, events, users, badges))
		eventsGroup.GET("", controllers.ListEvents(cfg, events, users))
		eventsGroup.GET("/:eventId", controllers.GetEventByID(cfg, events, users))
		eventsGroup.GET("/:eventId/voting-details", controllers.GetInvitedEventDetails(cfg, events, users, groups))
		eventsGroup.POST("/:eventId/vote", controllers.VoteOnEvent(wf))
		eventsGroup.GET("/:eventId/voters", controllers.GetVotersByDate(cfg, wf, users))
		eventsGroup.POST("/:eventId/finalize", controllers.FinalizeEventDate(wf))
	}

	return wf
}
