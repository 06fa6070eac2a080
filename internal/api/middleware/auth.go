package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/reimbly/backend/internal/services"
)

const (
	// UserIDKey is the context key holding the authenticated user ID.
	UserIDKey = "userID"
	// RoleKey is the context key holding the authenticated user's role.
	RoleKey = "role"
)

// AuthMiddleware validates the session token from the Authorization header
// (or the auth_token cookie) and places the resolved identity in context.
func AuthMiddleware(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string

		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
		if tokenString == "" {
			if cookie, err := c.Cookie("auth_token"); err == nil {
				tokenString = cookie
			}
		}

		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Authorization header required"})
			return
		}

		claims, err := authService.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid or expired token"})
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(RoleKey, claims.Role)
		c.Next()
	}
}

// RequireRole rejects requests whose authenticated role does not match.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got, exists := c.Get(RoleKey)
		if !exists || got != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "Not authorized to access this route"})
			return
		}
		c.Next()
	}
}

// Identity extracts the resolved identity placed in context by AuthMiddleware.
func Identity(c *gin.Context) services.Identity {
	id, _ := c.Get(UserIDKey)
	role, _ := c.Get(RoleKey)
	out := services.Identity{}
	if v, ok := id.(uint); ok {
		out.ID = v
	}
	if v, ok := role.(string); ok {
		out.Role = v
	}
	return out
}

// Meta captures the request metadata attached to audit records.
func Meta(c *gin.Context) services.RequestMeta {
	return services.RequestMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
