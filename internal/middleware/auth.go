package middleware

import (
	"strings"

	"studybuddy_backend/internal/config"
	"studybuddy_backend/internal/util"
	"studybuddy_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware validates the parent bearer token and stores the claims in
// the request context.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			logger.Log.Debug("rejected token", zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set("parent", claims)
		c.Next()
	}
}

// AdminMiddleware gates operational endpoints behind a static key. Admin
// access is disabled when no key is configured.
func AdminMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Server.AdminKey == "" || c.GetHeader("X-Admin-Key") != cfg.Server.AdminKey {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
