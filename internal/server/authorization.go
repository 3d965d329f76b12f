package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/agencydesk/internal/observability/context"
)

// authorize checks the actor against object/action. Routes carrying an
// :agent_id parameter are owned by that agent.
func (s *Server) authorize(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.authorizeWithContext(c, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func (s *Server) authorizeWithContext(c *gin.Context, object string, action string) error {
	actor, ok := obscontext.ActorFromContext(c.Request.Context())
	if !ok {
		return ErrUnauthorized
	}
	if s.authzSvc == nil {
		return ErrForbidden
	}
	owner := strings.TrimSpace(c.Param("agent_id"))
	return s.authzSvc.Authorize(c.Request.Context(), actor, strings.TrimSpace(object), strings.TrimSpace(action), owner)
}
