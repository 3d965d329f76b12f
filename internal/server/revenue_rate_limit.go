package server

import (
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/agencydesk/internal/observability/logger"
	"go.uber.org/zap"
)

// RevenueIngestRateLimit throttles revenue submissions per agent. Limiter
// failures reject the request rather than letting it through unthrottled.
func (s *Server) RevenueIngestRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.revenueLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		endpoint := normalizeRateLimitEndpoint(c)
		agentID := strings.ToLower(strings.TrimSpace(c.Param("agent_id")))

		result, err := s.revenueLimiter.AllowAgent(ctx, agentID)
		if err != nil {
			logger.FromContext(ctx).Warn("revenue rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		s.obsMetrics.RecordRateLimit(ctx, endpoint, result.Allowed)

		if !result.Allowed {
			logger.FromContext(ctx).Warn("revenue rate limit exceeded",
				zap.String("endpoint", endpoint),
				zap.String("agent_id", agentID),
			)
			retry := int(math.Ceil(result.RetryAfter.Seconds()))
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
