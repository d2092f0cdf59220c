package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserIDHeader carries the caller identity asserted by the upstream gateway.
const UserIDHeader = "X-User-ID"

// userIDKey is the key used to store the acting user's ID.
const userIDKey = contextKey("userID")

// companyIDKey is the key used to store the company (tenant) scope of the request.
const companyIDKey = contextKey("companyID")

// ActorMiddleware reads the caller identity set by the gateway. Authentication
// itself happens upstream; requests without an identity are rejected.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())
		userID := c.GetHeader(UserIDHeader)
		if userID == "" {
			logger.Warn("Caller identity header missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": UserIDHeader + " header required"})
			return
		}

		ctx := context.WithValue(c.Request.Context(), userIDKey, userID)
		ctx = WithLogger(ctx, logger.With(slog.String("user_id", userID)))
		c.Request = c.Request.WithContext(ctx)
		c.Set(string(userIDKey), userID)
		c.Next()
	}
}

// CompanyScopeMiddleware pins the request to the :company_id path parameter.
func CompanyScopeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		companyID := c.Param("company_id")
		if companyID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "company id is required"})
			return
		}
		logger := GetLoggerFromCtx(c.Request.Context()).With(slog.String("company_id", companyID))
		ctx := context.WithValue(c.Request.Context(), companyIDKey, companyID)
		c.Request = c.Request.WithContext(WithLogger(ctx, logger))
		c.Set(string(companyIDKey), companyID)
		c.Next()
	}
}

// GetUserIDFromContext retrieves the acting user ID from the Gin context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	if userID, ok := c.Get(string(userIDKey)); ok {
		id, ok := userID.(string)
		return id, ok && id != ""
	}
	// check in the request context as well
	if id, ok := c.Request.Context().Value(userIDKey).(string); ok && id != "" {
		return id, true
	}
	return "", false
}

// GetCompanyIDFromContext retrieves the company scope of the request.
func GetCompanyIDFromContext(c *gin.Context) (string, bool) {
	if companyID, ok := c.Get(string(companyIDKey)); ok {
		id, ok := companyID.(string)
		return id, ok && id != ""
	}
	if id := c.Param("company_id"); id != "" {
		return id, true
	}
	return "", false
}
