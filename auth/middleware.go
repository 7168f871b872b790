package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LoginPath is where unauthenticated callers are sent.
const LoginPath = "/auth"

const identityKey = "auth.identity"

// Require rejects requests without a valid bearer token with 401 and a
// redirect hint to LoginPath.
func (s *Service) Require(logger *zap.Logger) gin.HandlerFunc {
	return s.guard(logger, true)
}

// Optional accepts anonymous requests but still rejects a token that is
// present and invalid.
func (s *Service) Optional(logger *zap.Logger) gin.HandlerFunc {
	return s.guard(logger, false)
}

func (s *Service) guard(logger *zap.Logger, required bool) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			if required {
				unauthorized(c)
				return
			}
			c.Next()
			return
		}

		id, err := s.Parse(token)
		if err != nil {
			logger.Warn("rejected token", zap.String("path", c.FullPath()), zap.Error(err))
			unauthorized(c)
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// FromContext returns the identity the guard attached to c.
func FromContext(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"message": "Unauthorized",
		"data": gin.H{
			"redirect": LoginPath,
			"from":     c.Request.URL.Path,
		},
	})
}
