package middleware

import (
	"log/slog"
	"strings"

	"github.com/SscSPs/club_ledger/internal/core/domain"
	"github.com/gin-gonic/gin"
)

// ActorHeader names the dashboard user performing a request. Authentication
// happens in front of this service; the header is recorded for audit only.
const ActorHeader = "X-Actor-ID"

const actorIDKey = contextKey("actorID")

// ActorMiddleware stores the caller identity from ActorHeader, falling back to domain.SystemActor.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID := strings.TrimSpace(c.GetHeader(ActorHeader))
		if actorID == "" {
			actorID = domain.SystemActor
		}
		c.Set(string(actorIDKey), actorID)
		logger := GetLoggerFromContext(c).With(slog.String("actor_id", actorID))
		c.Set(string(loggerKey), logger)
		c.Request = c.Request.WithContext(WithLogger(c.Request.Context(), logger))
		c.Next()
	}
}

// GetActorIDFromContext retrieves the caller identity from the Gin context.
func GetActorIDFromContext(c *gin.Context) string {
	actorID, ok := c.Get(string(actorIDKey))
	if !ok {
		return domain.SystemActor
	}
	if s, ok := actorID.(string); ok && s != "" {
		return s
	}
	return domain.SystemActor
}
