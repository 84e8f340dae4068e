package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rahulhiremath15/serva-mvp/config"
	"github.com/rahulhiremath15/serva-mvp/models"
	"github.com/rahulhiremath15/serva-mvp/services"
	"github.com/rahulhiremath15/serva-mvp/utils"
)

// Context keys set by the auth middleware for downstream handlers
const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
	ContextUserRole  = "user_role"
)

// extractBearerToken pulls the token out of an "Authorization: Bearer <token>"
// header. The second return value distinguishes a missing header from a
// malformed one.
func extractBearerToken(c *gin.Context) (token string, headerPresent bool, ok bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false, false
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", true, false
	}

	return parts[1], true, true
}

// verificationMessage maps a typed token failure to its client-facing message
func verificationMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrTokenExpired):
		return "Token expired"
	case errors.Is(err, services.ErrTokenNotYetValid):
		return "Token not active"
	case errors.Is(err, services.ErrTokenInvalidSignature):
		return "Invalid token"
	default:
		return "Invalid token"
	}
}

// RequireAuth verifies the bearer token on a request, confirms the referenced
// account still exists and is active, and attaches the identity to the Gin
// context. Requests that fail any step never reach the handler.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, headerPresent, ok := extractBearerToken(c)
		if !headerPresent {
			utils.AbortWithError(c, http.StatusUnauthorized, "Access token is required")
			return
		}
		if !ok {
			utils.AbortWithError(c, http.StatusUnauthorized, "Invalid authorization header format. Expected: Bearer <token>")
			return
		}

		claims, err := services.VerifyToken(token)
		if err != nil {
			utils.AbortWithError(c, http.StatusUnauthorized, verificationMessage(err))
			return
		}

		// A token may outlive the account it was issued for, so re-fetch the
		// user to confirm continued existence and active status.
		db := config.GetDB()
		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			utils.AbortWithError(c, http.StatusForbidden, "User account not found")
			return
		}
		if !user.IsActive {
			utils.AbortWithError(c, http.StatusForbidden, "User account is deactivated")
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextUserEmail, user.Email)
		c.Set(ContextUserRole, user.Role)
		c.Next()
	}
}

// OptionalAuth attempts the same verification as RequireAuth but proceeds
// anonymously on any failure. Endpoints behind it degrade gracefully instead
// of rejecting.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _, ok := extractBearerToken(c)
		if !ok {
			c.Next()
			return
		}

		claims, err := services.VerifyToken(token)
		if err != nil {
			c.Next()
			return
		}

		db := config.GetDB()
		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil || !user.IsActive {
			c.Next()
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextUserEmail, user.Email)
		c.Set(ContextUserRole, user.Role)
		c.Next()
	}
}

// RequireRole rejects authenticated requests whose role is not in the allow list.
// Must run after RequireAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := GetUserRole(c)
		if err != nil {
			utils.AbortWithError(c, http.StatusUnauthorized, "Authentication required")
			return
		}

		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		utils.AbortWithError(c, http.StatusForbidden, "Insufficient permissions")
	}
}

// GetUserID extracts the authenticated user's ID from the Gin context
func GetUserID(c *gin.Context) (uint, error) {
	v, exists := c.Get(ContextUserID)
	if !exists {
		return 0, errors.New("user ID not found in context")
	}

	id, ok := v.(uint)
	if !ok {
		return 0, errors.New("user ID has unexpected type")
	}

	return id, nil
}

// GetUserRole extracts the authenticated user's role from the Gin context
func GetUserRole(c *gin.Context) (string, error) {
	v, exists := c.Get(ContextUserRole)
	if !exists {
		return "", errors.New("user role not found in context")
	}

	role, ok := v.(string)
	if !ok {
		return "", errors.New("user role has unexpected type")
	}

	return role, nil
}
