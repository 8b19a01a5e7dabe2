package utils

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fleetgrid/fleetgrid-backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

func accessTokenTTL() time.Duration {
	minutes, err := strconv.Atoi(os.Getenv("ACCESS_TOKEN_EXPIRE_MINUTES"))
	if err != nil || minutes <= 0 {
		minutes = 30
	}
	return time.Duration(minutes) * time.Minute
}

func refreshTokenTTL() time.Duration {
	days, err := strconv.Atoi(os.Getenv("REFRESH_TOKEN_EXPIRE_DAYS"))
	if err != nil || days <= 0 {
		days = 7
	}
	return time.Duration(days) * 24 * time.Hour
}

// GenerateAccessToken issues a short-lived token carrying the user's role.
func GenerateAccessToken(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      user.ID.String(),
		"username": user.Username,
		"role":     string(user.Role),
		"type":     "access",
		"iat":      now.Unix(),
		"exp":      now.Add(accessTokenTTL()).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

// GenerateRefreshToken issues a long-lived token usable only to obtain a
// new access token.
func GenerateRefreshToken(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      user.ID.String(),
		"username": user.Username,
		"type":     "refresh",
		"iat":      now.Unix(),
		"exp":      now.Add(refreshTokenTTL()).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

func ValidateToken(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
}
