package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/planwatch/watch-backend/internal/logger"
	"github.com/planwatch/watch-backend/internal/services"
	"github.com/planwatch/watch-backend/internal/types"
)

type CategoryHandler struct {
	catService services.CategoryService
	log        *logger.Logger
}

func NewCategoryHandler(catService services.CategoryService, baseLog *logger.Logger) *CategoryHandler {
	return &CategoryHandler{
		catService: catService,
		log:        baseLog.With("handler", "CategoryHandler"),
	}
}

type createCategoryTypeRequest struct {
	PlanID           uuid.UUID          `json:"plan_id" binding:"required"`
	Identifier       string             `json:"identifier" binding:"required"`
	Name             string             `json:"name" binding:"required"`
	SelectWidget     types.SelectWidget `json:"select_widget"`
	UsableForActions bool               `json:"usable_for_actions"`
}

func (h *CategoryHandler) CreateType(c *gin.Context) {
	var req createCategoryTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	created, err := h.catService.CreateType(c.Request.Context(), &types.CategoryType{
		PlanID:           req.PlanID,
		Identifier:       req.Identifier,
		Name:             req.Name,
		SelectWidget:     req.SelectWidget,
		UsableForActions: req.UsableForActions,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, created)
}

func (h *CategoryHandler) ListTypes(c *gin.Context) {
	planID, err := uuid.Parse(c.Query("plan_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("plan_id must be a valid uuid"))
		return
	}
	list, err := h.catService.ListTypes(c.Request.Context(), planID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, list)
}

type addLevelRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *CategoryHandler) AddLevel(c *gin.Context) {
	typeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("id must be a valid uuid"))
		return
	}
	var req addLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	level, err := h.catService.AddLevel(c.Request.Context(), typeID, req.Name)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, level)
}

type createCategoryRequest struct {
	TypeID           uuid.UUID  `json:"type_id" binding:"required"`
	Identifier       string     `json:"identifier" binding:"required"`
	Name             string     `json:"name" binding:"required"`
	ParentID         *uuid.UUID `json:"parent_id"`
	ShortDescription string     `json:"short_description"`
	Color            string     `json:"color"`
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	created, err := h.catService.Create(c.Request.Context(), services.CreateCategoryInput{
		TypeID:           req.TypeID,
		Identifier:       req.Identifier,
		Name:             req.Name,
		ParentID:         req.ParentID,
		ShortDescription: req.ShortDescription,
		Color:            req.Color,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, created)
}

type moveCategoryRequest struct {
	NewParentID *uuid.UUID `json:"new_parent_id"`
}

func (h *CategoryHandler) Move(c *gin.Context) {
	categoryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("id must be a valid uuid"))
		return
	}
	var req moveCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	moved, err := h.catService.Move(c.Request.Context(), categoryID, req.NewParentID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, moved)
}

func (h *CategoryHandler) ListForType(c *gin.Context) {
	typeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("id must be a valid uuid"))
		return
	}
	list, err := h.catService.ListForType(c.Request.Context(), typeID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, list)
}

type reorderSiblingsRequest struct {
	ParentID   *uuid.UUID  `json:"parent_id"`
	OrderedIDs []uuid.UUID `json:"ordered_ids" binding:"required"`
}

func (h *CategoryHandler) ReorderSiblings(c *gin.Context) {
	typeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("id must be a valid uuid"))
		return
	}
	var req reorderSiblingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.catService.ReorderSiblings(c.Request.Context(), typeID, req.ParentID, req.OrderedIDs); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"reordered": len(req.OrderedIDs)})
}
