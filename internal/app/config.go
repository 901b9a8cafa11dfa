package app

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/planwatch/watch-backend/internal/logger"
	"github.com/planwatch/watch-backend/internal/utils"
)

type Config struct {
	JWTSecretKey string   `yaml:"jwt_secret_key"`
	AllowOrigins []string `yaml:"allow_origins"`
	RedisAddr    string   `yaml:"redis_addr"`
	RedisDB      int      `yaml:"redis_db"`
	Port         string   `yaml:"port"`
}

// LoadConfig reads the optional watch.yaml and lets environment variables
// override it.
func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		Port:         "8080",
	}

	path := utils.GetEnv("WATCH_CONFIG_FILE", "watch.yaml", log)
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Warn("Could not parse config file, continuing with defaults", "path", path, "error", err)
		}
	}

	cfg.JWTSecretKey = utils.GetEnv("JWT_SECRET_KEY", nonEmpty(cfg.JWTSecretKey, "defaultsecret"), log)
	cfg.RedisAddr = utils.GetEnv("REDIS_ADDR", cfg.RedisAddr, log)
	cfg.RedisDB = utils.GetEnvAsInt("REDIS_DB", cfg.RedisDB, log)
	cfg.Port = utils.GetEnv("PORT", cfg.Port, log)
	if origins := os.Getenv("ALLOW_ORIGINS"); origins != "" {
		cfg.AllowOrigins = strings.Split(origins, ",")
	}
	return cfg
}

func nonEmpty(val, fallback string) string {
	if val != "" {
		return val
	}
	return fallback
}
