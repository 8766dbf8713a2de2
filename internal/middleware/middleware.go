package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/festora/internal/helpers"
	"github.com/joshua-takyi/festora/internal/models"
)

const (
	// SessionCookie carries the wallet session token for browser clients.
	SessionCookie = "access_token"

	requestIDKey = "request_id"
	sessionKey   = "session"
)

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(requestIDKey, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// GetRequestID returns the id assigned by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	id, _ := c.Get(requestIDKey)
	s, _ := id.(string)
	return s
}

// StructuredLogger provides structured logging middleware
func StructuredLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		logger.Info("HTTP Request",
			"request_id", GetRequestID(c),
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
			"wallet", GetSession(c).GetSafeAddress(),
		)
	}
}

// ErrorHandler provides centralized error handling
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last()
		requestID := GetRequestID(c)
		logger.Error("Request error",
			"request_id", requestID,
			"error", err.Error(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
		if c.Writer.Written() {
			return
		}
		res := models.CodedErrorResponse("internal_error", "Internal server error", false)
		res.RequestID = requestID
		c.JSON(http.StatusInternalServerError, res)
	}
}

// RequireSession rejects requests without a valid wallet session token.
func RequireSession(secret []byte, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			abortUnauthorized(c, "session token not found")
			return
		}
		claims, err := helpers.ValidateSessionToken(secret, token)
		if err != nil {
			logger.Info("Session rejected", "request_id", GetRequestID(c), "error", err)
			abortUnauthorized(c, err.Error())
			return
		}
		c.Set(sessionKey, claims)
		c.Next()
	}
}

// OptionalSession attaches the wallet session when a valid token is present.
func OptionalSession(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := sessionToken(c); token != "" {
			if claims, err := helpers.ValidateSessionToken(secret, token); err == nil {
				c.Set(sessionKey, claims)
			}
		}
		c.Next()
	}
}

// GetSession returns the session attached by RequireSession or OptionalSession.
func GetSession(c *gin.Context) *helpers.SessionClaims {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*helpers.SessionClaims)
	return claims
}

func sessionToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if token, err := c.Cookie(SessionCookie); err == nil {
		return token
	}
	return ""
}

func abortUnauthorized(c *gin.Context, detail string) {
	res := models.CodedErrorResponse("unauthorized", "Unauthorized access", false)
	res.Reason = detail
	res.RequestID = GetRequestID(c)
	c.AbortWithStatusJSON(http.StatusUnauthorized, res)
}
