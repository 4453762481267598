package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pulsex/care-service/internal/models"
	"github.com/pulsex/care-service/internal/security"
	"github.com/pulsex/care-service/internal/services"
)

// Authenticator produces the middleware that identifies the caller
type Authenticator interface {
	AuthMiddleware() gin.HandlerFunc
}

// UserResolver maps a verified identity onto an active local user
type UserResolver interface {
	ResolveUser(ctx context.Context, email string) (*models.User, error)
}

// JWTAuthMiddleware authenticates service issued access tokens
type JWTAuthMiddleware struct {
	tokens *security.TokenManager
	users  UserResolver
}

func NewJWTAuthMiddleware(tokens *security.TokenManager, users UserResolver) *JWTAuthMiddleware {
	return &JWTAuthMiddleware{tokens: tokens, users: users}
}

func (m *JWTAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			return
		}

		claims, err := m.tokens.Parse(token)
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		// Deactivation and role changes take effect before the token expires
		user, err := m.users.ResolveUser(c.Request.Context(), claims.Email)
		if err != nil || user.ID != userID {
			abortResolveError(c, err)
			return
		}

		setUser(c, user)
		c.Next()
	}
}

// RequireRoleMiddleware allows only the listed roles through
func RequireRoleMiddleware(requiredRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get(ctxUserRole)
		if !exists {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: "user role not found in context",
			})
			return
		}

		role, ok := userRole.(models.UserRole)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: "invalid user role format",
			})
			return
		}

		for _, requiredRole := range requiredRoles {
			if role == requiredRole {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
			Message: fmt.Sprintf("insufficient permissions, required role: %v", requiredRoles),
		})
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		abortUnauthorized(c, "authorization header missing")
		return "", false
	}

	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" || tokenParts[1] == "" {
		abortUnauthorized(c, "invalid authorization header format")
		return "", false
	}
	return tokenParts[1], true
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: msg})
}

func abortResolveError(c *gin.Context, err error) {
	switch {
	case err == nil, errors.Is(err, services.ErrNotFound):
		abortUnauthorized(c, "unknown user")
	case errors.Is(err, services.ErrAccountDeactivated):
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Message: err.Error()})
	default:
		c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to resolve user"})
	}
}

func setUser(c *gin.Context, user *models.User) {
	c.Set(ctxUserID, user.ID)
	c.Set(ctxUser, user)
	c.Set(ctxUserRole, user.Role)
	c.Set(ctxUserEmail, user.Email)
}
