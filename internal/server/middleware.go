package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/repomart/repomart/internal/usercontext"
)

const contextUserIDKey = "user_id"

// AuthRequired resolves the bearer token to an active user and stores
// the user id on the request context.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		user, err := s.accountSvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextUserIDKey, user.ID.String())
		c.Request = c.Request.WithContext(usercontext.WithUserID(c.Request.Context(), user.ID))
		c.Next()
	}
}

// RateLimit throttles per client IP. With no limiter configured it is
// a no-op.
func (s *Server) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil {
			c.Next()
			return
		}

		res, err := s.limiter.Allow(c.Request.Context(), "ratelimit:api:"+c.ClientIP(), 20, 40)
		if err != nil {
			// The limiter backend being down must not take the API down
			// with it.
			c.Next()
			return
		}
		if !res.Allowed {
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
