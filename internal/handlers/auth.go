package handlers

import (
	"github.com/fleetgrid/fleetgrid-backend/internal/models"
	"github.com/fleetgrid/fleetgrid-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"omitempty,oneof=admin fleet_manager user"`
}

type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates a new user account
func Register(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input RegisterInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		role := models.UserRole(input.Role)
		if role == "" {
			role = models.RoleUser
		}

		user := models.User{
			ID:       uuid.New(),
			Username: input.Username,
			Email:    input.Email,
			Role:     role,
			IsActive: true,
		}
		if err := user.SetPassword(input.Password); err != nil {
			c.JSON(500, gin.H{"error": "Failed to hash password"})
			return
		}

		if result := db.Create(&user); result.Error != nil {
			c.JSON(400, gin.H{"error": "Username or email already registered"})
			return
		}

		c.JSON(201, gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"role":     user.Role,
		})
	}
}

// Login verifies credentials and issues access and refresh tokens
func Login(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input LoginInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var user models.User
		if result := db.Where("username = ?", input.Username).First(&user); result.Error != nil {
			c.JSON(401, gin.H{"error": "Invalid credentials"})
			return
		}

		if err := user.CheckPassword(input.Password); err != nil {
			c.JSON(401, gin.H{"error": "Invalid credentials"})
			return
		}

		if !user.IsActive {
			c.JSON(401, gin.H{"error": "Account is disabled"})
			return
		}

		accessToken, err := utils.GenerateAccessToken(&user)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to generate token"})
			return
		}
		refreshToken, err := utils.GenerateRefreshToken(&user)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to generate token"})
			return
		}

		c.JSON(200, gin.H{
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
			"tokenType":    "bearer",
			"user": gin.H{
				"id":       user.ID,
				"username": user.Username,
				"email":    user.Email,
				"role":     user.Role,
			},
		})
	}
}

// RefreshToken exchanges a valid refresh token for a new access token
func RefreshToken(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			RefreshToken string `json:"refreshToken" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		token, err := utils.ValidateToken(input.RefreshToken)
		if err != nil || !token.Valid {
			c.JSON(401, gin.H{"error": "Invalid refresh token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(401, gin.H{"error": "Invalid token claims"})
			return
		}
		if tokenType, _ := claims["type"].(string); tokenType != "refresh" {
			c.JSON(401, gin.H{"error": "Refresh token required"})
			return
		}

		sub, _ := claims["sub"].(string)
		userID, err := uuid.Parse(sub)
		if err != nil {
			c.JSON(401, gin.H{"error": "Invalid token subject"})
			return
		}

		var user models.User
		if result := db.Where("id = ?", userID).First(&user); result.Error != nil {
			c.JSON(401, gin.H{"error": "User not found"})
			return
		}

		accessToken, err := utils.GenerateAccessToken(&user)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to generate token"})
			return
		}

		c.JSON(200, gin.H{"accessToken": accessToken, "tokenType": "bearer"})
	}
}

// GetProfile retrieves the authenticated user's profile
func GetProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User
		if err := db.Where("id = ?", currentUserID(c)).First(&user).Error; err != nil {
			c.JSON(404, gin.H{"error": "User not found"})
			return
		}

		c.JSON(200, gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"role":     user.Role,
			"isActive": user.IsActive,
		})
	}
}
