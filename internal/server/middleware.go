package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/agencydesk/internal/observability/context"
	"github.com/smallbiznis/agencydesk/internal/observability/logger"
	"go.uber.org/zap"
)

// Identity is asserted by the upstream auth gateway.
const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
)

// ActorContext attaches the gateway-asserted actor to the request context.
// Requests without an actor header pass through and fail authorization later.
func ActorContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderActorID))
		role := strings.TrimSpace(c.GetHeader(HeaderActorRole))
		if id != "" || role != "" {
			ctx := obscontext.WithActor(c.Request.Context(), obscontext.Actor{ID: id, Role: role})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := obscontext.ActorFromContext(c.Request.Context())
		if !ok || actor.ID == "" {
			logger.FromContext(c.Request.Context()).Debug("request without actor", zap.String("path", c.FullPath()))
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}
