package app

import (
	"github.com/planwatch/watch-backend/internal/logger"
	"github.com/planwatch/watch-backend/internal/middleware"
)

type Middleware struct {
	Auth  *middleware.AuthMiddleware
	Cache *middleware.CacheMiddleware
}

func wireMiddleware(log *logger.Logger, repos Repos, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth:  middleware.NewAuthMiddleware(log, services.Auth),
		Cache: middleware.NewCacheMiddleware(log, repos.Plan),
	}
}
