package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prperemyshlev/reply-assistant/internal/service"
	"github.com/prperemyshlev/reply-assistant/internal/utils"
)

const (
	operatorIDKey   = "operator_id"
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
)

// AuthMiddleware validates the identity provider's session token and adds the operator id to context
func AuthMiddleware(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, service.NewAuthenticationError("Authorization header is required"))
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortWithError(c, service.NewAuthenticationError("Invalid authorization header format"))
			return
		}

		claims, err := jwtManager.ValidateToken(parts[1])
		if err != nil {
			abortWithError(c, service.NewAuthenticationError("Invalid or expired token"))
			return
		}

		c.Set(operatorIDKey, claims.OperatorID)

		c.Next()
	}
}

// AdminMiddleware allows only operators listed in adminIDs. It runs after AuthMiddleware.
func AdminMiddleware(adminIDs []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !utils.ContainsID(adminIDs, OperatorID(c)) {
			abortWithError(c, service.NewAuthorizationError("Admin access required"))
			return
		}

		c.Next()
	}
}

// RequestIDMiddleware tags every request with an id, reusing the caller's X-Request-ID
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)

		c.Next()
	}
}

// OperatorID returns the authenticated operator of the request
func OperatorID(c *gin.Context) string {
	return c.GetString(operatorIDKey)
}

// RequestID returns the id assigned by RequestIDMiddleware
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
