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

type AttributeTypeHandler struct {
	typeService services.AttributeTypeService
	log         *logger.Logger
}

func NewAttributeTypeHandler(typeService services.AttributeTypeService, baseLog *logger.Logger) *AttributeTypeHandler {
	return &AttributeTypeHandler{
		typeService: typeService,
		log:         baseLog.With("handler", "AttributeTypeHandler"),
	}
}

type createAttributeTypeRequest struct {
	ObjectType types.ObjectKind    `json:"object_type" binding:"required"`
	ScopeType  types.ScopeKind     `json:"scope_type" binding:"required"`
	ScopeID    uuid.UUID           `json:"scope_id" binding:"required"`
	Identifier string              `json:"identifier" binding:"required"`
	Name       types.LocalizedText `json:"name" binding:"required"`
	HelpText   types.LocalizedText `json:"help_text"`
	Format     string              `json:"format" binding:"required"`

	UnitID                  *uuid.UUID `json:"unit_id"`
	AttributeCategoryTypeID *uuid.UUID `json:"attribute_category_type_id"`
	MaxLength               *int       `json:"max_length"`

	InstancesVisibleFor types.VisibleFor `json:"instances_visible_for"`
	InstancesEditableBy types.EditableBy `json:"instances_editable_by"`

	ShowChoiceNames bool `json:"show_choice_names"`
	HasZeroOption   bool `json:"has_zero_option"`
}

func (h *AttributeTypeHandler) Create(c *gin.Context) {
	var req createAttributeTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	created, err := h.typeService.Create(c.Request.Context(), nil, services.CreateAttributeTypeInput{
		ObjectType:              req.ObjectType,
		ScopeType:               req.ScopeType,
		ScopeID:                 req.ScopeID,
		Identifier:              req.Identifier,
		Name:                    req.Name,
		HelpText:                req.HelpText,
		Format:                  types.AttributeFormat(req.Format),
		UnitID:                  req.UnitID,
		AttributeCategoryTypeID: req.AttributeCategoryTypeID,
		MaxLength:               req.MaxLength,
		InstancesVisibleFor:     req.InstancesVisibleFor,
		InstancesEditableBy:     req.InstancesEditableBy,
		ShowChoiceNames:         req.ShowChoiceNames,
		HasZeroOption:           req.HasZeroOption,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, created)
}

func (h *AttributeTypeHandler) List(c *gin.Context) {
	objectType := types.ObjectKind(c.Query("object_type"))
	scopeType := types.ScopeKind(c.Query("scope_type"))
	scopeID, err := uuid.Parse(c.Query("scope_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("scope_id must be a valid uuid"))
		return
	}
	list, err := h.typeService.TypesFor(c.Request.Context(), objectType, scopeType, scopeID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, list)
}

func (h *AttributeTypeHandler) Get(c *gin.Context) {
	typeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("id must be a valid uuid"))
		return
	}
	attributeType, err := h.typeService.GetByID(c.Request.Context(), typeID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, attributeType)
}

func (h *AttributeTypeHandler) Update(c *gin.Context) {
	typeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("id must be a valid uuid"))
		return
	}
	existing, err := h.typeService.GetByID(c.Request.Context(), typeID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if err := c.ShouldBindJSON(existing); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	existing.ID = typeID
	updated, err := h.typeService.Update(c.Request.Context(), existing)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, updated)
}

func (h *AttributeTypeHandler) Delete(c *gin.Context) {
	typeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("id must be a valid uuid"))
		return
	}
	if err := h.typeService.Delete(c.Request.Context(), typeID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": typeID})
}

type addChoiceOptionRequest struct {
	Identifier string              `json:"identifier" binding:"required"`
	Name       types.LocalizedText `json:"name" binding:"required"`
}

func (h *AttributeTypeHandler) AddChoiceOption(c *gin.Context) {
	typeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("id must be a valid uuid"))
		return
	}
	var req addChoiceOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	option, err := h.typeService.AddChoiceOption(c.Request.Context(), nil, typeID, req.Identifier, req.Name)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, option)
}

type reorderTypesRequest struct {
	ObjectType types.ObjectKind `json:"object_type" binding:"required"`
	ScopeType  types.ScopeKind  `json:"scope_type" binding:"required"`
	ScopeID    uuid.UUID        `json:"scope_id" binding:"required"`
	OrderedIDs []uuid.UUID      `json:"ordered_ids" binding:"required"`
}

func (h *AttributeTypeHandler) Reorder(c *gin.Context) {
	var req reorderTypesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.typeService.Reorder(c.Request.Context(), req.ObjectType, req.ScopeType, req.ScopeID, req.OrderedIDs); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"reordered": len(req.OrderedIDs)})
}
