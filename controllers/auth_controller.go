package controllers

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	config "github.com/muchiri/planvote-go/config"
	models "github.com/muchiri/planvote-go/models"
	store "github.com/muchiri/planvote-go/store"
	utils "github.com/muchiri/planvote-go/utils"
)

const otpTTL = 10 * time.Minute

// generateOTP returns a 4-digit one-time code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()+1000), nil
}

// ---------------- SIGNUP ----------------
// Signup creates an unverified user, emails an OTP, and returns a
// long-lived token the client uses through the verify/create-password
// steps.
func Signup(cfg *config.Config, users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			FirstName string `json:"first_name" binding:"required"`
			LastName  string `json:"last_name" binding:"required"`
			Email     string `json:"email" binding:"required,email"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		otp, err := generateOTP()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "Server error"})
			return
		}

		now := time.Now()
		user := models.User{
			ID:               primitive.NewObjectID(),
			FirstName:        input.FirstName,
			LastName:         input.LastName,
			Email:            input.Email,
			OTP:              otp,
			OTPExpiry:        now.Add(otpTTL),
			AllNotifications: true,
			CreatedAt:        now,
			UpdatedAt:        now,
		}

		if err := users.Create(ctx, &user); err != nil {
			if errors.Is(err, store.ErrEmailTaken) {
				c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": "User already exists with this email."})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "Server error"})
			return
		}

		go func() {
			if err := utils.SendEmail(cfg, user.Email, user.FirstName, "Confirm your email", "Your OTP is: "+otp); err != nil {
				log.Printf("signup OTP email to %s failed: %v", user.Email, err)
			}
		}()

		token, err := utils.GenerateToken(user.ID, user.Email, cfg.JWTSecret, 30*24*time.Hour)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "Server error"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"status":  true,
			"message": "User Created Successfully! Please verify your email to continue.",
			"token":   token,
		})
	}
}

// ---------------- VERIFY OTP ----------------
func VerifyOTP(cfg *config.Config, users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Email string `json:"email" binding:"required,email"`
			OTP   string `json:"otp" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		user, err := users.GetByEmail(ctx, input.Email)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": "User not found"})
			return
		}

		if user.OTP != input.OTP {
			c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": "Invalid OTP"})
			return
		}
		if !user.OTPExpiry.After(time.Now()) {
			c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": "OTP has expired"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": true, "message": "OTP verified successfully"})
	}
}

// ---------------- RESEND OTP ----------------
func ResendOTP(cfg *config.Config, users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Email string `json:"email" binding:"required,email"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": "Email is required"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		user, err := users.GetByEmail(ctx, input.Email)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"status": false, "message": "User not found"})
			return
		}

		otp, err := generateOTP()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "Server error"})
			return
		}
		if err := users.SetOTP(ctx, user.ID, otp, time.Now().Add(otpTTL)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "Server error"})
			return
		}

		go func() {
			if err := utils.SendEmail(cfg, user.Email, user.FirstName, "Password Reset OTP", "Your OTP is: "+otp); err != nil {
				log.Printf("resend OTP email to %s failed: %v", user.Email, err)
			}
		}()

		c.JSON(http.StatusOK, gin.H{"status": true, "message": "OTP resent successfully"})
	}
}

// ---------------- CREATE PASSWORD ----------------
// CreatePassword completes signup: the bearer token issued at signup
// identifies the user, and setting a password marks them verified.
func CreatePassword(cfg *config.Config, users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requestUserID(c)
		if !ok {
			return
		}

		var input struct {
			Password        string `json:"password"`
			ConfirmPassword string `json:"confirmPassword"`
		}
		_ = c.ShouldBindJSON(&input)

		if input.Password == "" || input.ConfirmPassword == "" {
			c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": "Password and confirm password are required."})
			return
		}
		if input.Password != input.ConfirmPassword {
			c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": "Passwords do not match."})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "Server error"})
			return
		}

		if err := users.SetPassword(ctx, userID, string(hash), true); err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": "User not found."})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "Server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": true, "message": "Password set successfully. You can now log in."})
	}
}

// ---------------- LOGIN ----------------
func Login(cfg *config.Config, users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = c.ShouldBindJSON(&input)

		if input.Email == "" || input.Password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": "Email and password are required."})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		user, err := users.GetByEmail(ctx, input.Email)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": "Invalid email or password"})
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)) != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": "Invalid email or password"})
			return
		}

		if !user.IsVerified {
			c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": "Please verify your email first."})
			return
		}

		token, err := utils.GenerateToken(user.ID, user.Email, cfg.JWTSecret, 7*24*time.Hour)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "Server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": true, "message": "Login successful", "token": token})
	}
}

// ---------------- LOGOUT ----------------
// Tokens are stateless; logout just acknowledges so clients can clear
// their copy.
func Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": true, "message": "Logged out successfully."})
	}
}

// ---------------- PROFILE PICTURE ----------------
func UploadProfilePicture(cfg *config.Config, users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requestUserID(c)
		if !ok {
			return
		}

		fileHeader, err := c.FormFile("profilePicture")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": "No file uploaded"})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "failed to open file"})
			return
		}
		defer file.Close()

		url, err := utils.UploadProfilePicture(cfg, file, fileHeader)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "image upload failed", "details": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// Discard the previous upload before pointing at the new one.
		if existing, err := users.GetByID(ctx, userID); err == nil && existing.ProfilePicture != "" {
			if err := utils.DeleteFromCloudinary(cfg, existing.ProfilePicture); err != nil {
				log.Println("failed to delete old profile picture:", err)
			}
		}

		if err := users.UpdateFields(ctx, userID, bson.M{"profile_picture": url}); err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"status": false, "message": "User not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "Server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":         true,
			"message":        "Profile picture uploaded successfully",
			"profilePicture": url,
		})
	}
}
