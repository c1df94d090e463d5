package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GenerateToken issues an HMAC-signed bearer token carrying the user id.
func GenerateToken(userID primitive.ObjectID, email, secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"id":    userID.Hex(),
		"email": email,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
