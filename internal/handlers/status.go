package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/planwatch/watch-backend/internal/logger"
	"github.com/planwatch/watch-backend/internal/services"
)

type StatusHandler struct {
	statusService services.StatusService
	log           *logger.Logger
}

func NewStatusHandler(statusService services.StatusService, baseLog *logger.Logger) *StatusHandler {
	return &StatusHandler{
		statusService: statusService,
		log:           baseLog.With("handler", "StatusHandler"),
	}
}

type recalculateStatusRequest struct {
	ForceUpdate bool `json:"force_update"`
}

func (h *StatusHandler) Recalculate(c *gin.Context) {
	actionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("id must be a valid uuid"))
		return
	}
	// Body is optional; an absent body means no force flag.
	var req recalculateStatusRequest
	_ = c.ShouldBindJSON(&req)
	if err := h.statusService.RecalculateStatus(c.Request.Context(), actionID, req.ForceUpdate); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"recalculated": actionID})
}

func (h *StatusHandler) Summary(c *gin.Context) {
	actionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("id must be a valid uuid"))
		return
	}
	lang := c.Query("lang")
	summary, err := h.statusService.Summary(c.Request.Context(), actionID, lang)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, summary)
}

func (h *StatusHandler) Timeliness(c *gin.Context) {
	actionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("id must be a valid uuid"))
		return
	}
	timeliness, err := h.statusService.Timeliness(c.Request.Context(), actionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, timeliness)
}
