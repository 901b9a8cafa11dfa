package app

import (
	"github.com/redis/go-redis/v9"

	"github.com/planwatch/watch-backend/internal/logger"
)

type Clients struct {
	Redis *redis.Client
}

// wireClients sets up external connections. Redis is optional; without it
// report exports are rendered on every request.
func wireClients(log *logger.Logger, cfg Config) Clients {
	log.Info("Wiring clients...")

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
	} else {
		log.Warn("REDIS_ADDR not set, report export caching disabled")
	}

	return Clients{Redis: rdb}
}
