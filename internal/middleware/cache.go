package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/planwatch/watch-backend/internal/cache"
	"github.com/planwatch/watch-backend/internal/logger"
	"github.com/planwatch/watch-backend/internal/repos"
)

type CacheMiddleware struct {
	log      *logger.Logger
	planRepo repos.PlanRepo
}

func NewCacheMiddleware(log *logger.Logger, planRepo repos.PlanRepo) *CacheMiddleware {
	middlewareLogger := log.With("Middleware", "CacheMiddleware")
	return &CacheMiddleware{log: middlewareLogger, planRepo: planRepo}
}

// RequestCache gives each request its own WatchObjectCache. The cache is
// discarded with the request context, so mutations in one request can never
// serve stale lookup data to the next.
func (cm *CacheMiddleware) RequestCache() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestCache := cache.NewWatchObjectCache(cm.planRepo, cm.log)
		c.Request = c.Request.WithContext(cache.NewContext(c.Request.Context(), requestCache))
		c.Next()
	}
}
