package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// CorrelationIDHeader is the HTTP header for correlation ID
	CorrelationIDHeader = "X-Correlation-ID"

	// RequestIDHeader is accepted when no correlation id is sent
	RequestIDHeader = "X-Request-ID"

	// CorrelationIDKey is the key used to store correlation ID in the context
	CorrelationIDKey = "correlation_id"

	maxCorrelationIDLength = 128
)

// CorrelationID makes sure every request carries an identifier that follows
// it into operation requests, change events and log lines
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := sanitizeCorrelationID(c.GetHeader(CorrelationIDHeader))
		if correlationID == "" {
			correlationID = sanitizeCorrelationID(c.GetHeader(RequestIDHeader))
		}
		if correlationID == "" {
			correlationID = uuid.New().String()
		}

		c.Header(CorrelationIDHeader, correlationID)
		c.Set(CorrelationIDKey, correlationID)

		c.Next()
	}
}

// GetCorrelationID retrieves the correlation ID from the gin context if present
func GetCorrelationID(c *gin.Context) string {
	if id, exists := c.Get(CorrelationIDKey); exists {
		if correlationID, ok := id.(string); ok {
			return correlationID
		}
	}
	return ""
}

// sanitizeCorrelationID drops ids that are too long or contain control characters
func sanitizeCorrelationID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > maxCorrelationIDLength {
		return ""
	}
	for _, r := range id {
		if r < 0x20 || r == 0x7f {
			return ""
		}
	}
	return id
}
