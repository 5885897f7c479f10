package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/huangang/tripplanner/internal/models"
	"github.com/huangang/tripplanner/internal/utils"
	"github.com/huangang/tripplanner/pkg/response"
)

const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextRole     = "role"
)

// BearerToken extracts the token from "Authorization: Bearer <token>"
func BearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// AuthRequired is a middleware that checks for a valid JWT token
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			response.Unauthorized(c, "authorization header required")
			c.Abort()
			return
		}

		token, ok := BearerToken(c)
		if !ok {
			response.Unauthorized(c, "invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		SetClaims(c, claims)
		c.Next()
	}
}

// UserStatusFunc reports whether the account behind a token is still active.
// A missing account is reported as inactive.
type UserStatusFunc func(userID uint) (bool, error)

// ActiveUserRequired rejects tokens of deactivated accounts. It must run
// after AuthRequired.
func ActiveUserRequired(isActive UserStatusFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		active, err := isActive(GetUserID(c))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if !active {
			response.Forbidden(c, "user is disabled")
			c.Abort()
			return
		}
		c.Next()
	}
}

// SetClaims stores the authenticated user on the request context
func SetClaims(c *gin.Context, claims *utils.Claims) {
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextUsername, claims.Username)
	c.Set(ContextRole, claims.Role)
}

// AdminRequired is a middleware that checks for admin role
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) != models.RoleAdmin {
			response.Forbidden(c, "admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID gets the current user ID from context
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextUserID); exists {
		if uid, ok := id.(uint); ok {
			return uid
		}
	}
	return 0
}

// GetUsername gets the current username from context
func GetUsername(c *gin.Context) string {
	return c.GetString(ContextUsername)
}

// GetRole gets the current user role from context
func GetRole(c *gin.Context) string {
	return c.GetString(ContextRole)
}
