package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/planwatch/watch-backend/internal/logger"
)

type HealthcheckHandler struct {
	log *logger.Logger
}

func NewHealthcheckHandler(baseLog *logger.Logger) *HealthcheckHandler {
	return &HealthcheckHandler{log: baseLog.With("handler", "HealthcheckHandler")}
}

func (h *HealthcheckHandler) Healthcheck(c *gin.Context) {
	RespondOK(c, gin.H{"status": "ok"})
}
