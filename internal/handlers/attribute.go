package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/planwatch/watch-backend/internal/logger"
	"github.com/planwatch/watch-backend/internal/requestdata"
	"github.com/planwatch/watch-backend/internal/services"
	"github.com/planwatch/watch-backend/internal/types"
)

type AttributeHandler struct {
	attrService services.AttributeService
	permService services.PermissionService
	log         *logger.Logger
}

func NewAttributeHandler(attrService services.AttributeService, permService services.PermissionService, baseLog *logger.Logger) *AttributeHandler {
	return &AttributeHandler{
		attrService: attrService,
		permService: permService,
		log:         baseLog.With("handler", "AttributeHandler"),
	}
}

// permissionContext resolves the caller's bands for a plan, optionally in
// the context of a single action.
func (h *AttributeHandler) permissionContext(c *gin.Context, planID uuid.UUID, actionID *uuid.UUID) (types.PermissionContext, error) {
	var userID *uuid.UUID
	if rd := requestdata.GetRequestData(c.Request.Context()); rd != nil && rd.UserID != uuid.Nil {
		id := rd.UserID
		userID = &id
	}
	return h.permService.ContextFor(c.Request.Context(), userID, planID, actionID)
}

type setAttributeRequest struct {
	TypeID     uuid.UUID            `json:"type_id" binding:"required"`
	PlanID     uuid.UUID            `json:"plan_id" binding:"required"`
	ObjectType types.ObjectKind     `json:"object_type" binding:"required"`
	ObjectID   uuid.UUID            `json:"object_id" binding:"required"`
	Value      types.AttributeValue `json:"value" binding:"required"`
}

func (h *AttributeHandler) Set(c *gin.Context) {
	var req setAttributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	var actionID *uuid.UUID
	if req.ObjectType == types.ObjectKindAction {
		id := req.ObjectID
		actionID = &id
	}
	pc, err := h.permissionContext(c, req.PlanID, actionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if err := h.attrService.Set(c.Request.Context(), nil, pc, req.TypeID, req.ObjectType, req.ObjectID, req.Value); err != nil {
		RespondServiceError(c, err)
		return
	}
	value, err := h.attrService.Get(c.Request.Context(), req.TypeID, req.ObjectType, req.ObjectID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"value": value})
}

func (h *AttributeHandler) Get(c *gin.Context) {
	typeID, err := uuid.Parse(c.Query("type_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("type_id must be a valid uuid"))
		return
	}
	objectID, err := uuid.Parse(c.Query("object_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("object_id must be a valid uuid"))
		return
	}
	objectType := types.ObjectKind(c.Query("object_type"))
	value, err := h.attrService.Get(c.Request.Context(), typeID, objectType, objectID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"value": value})
}

type listAttributesRequest struct {
	PlanID     uuid.UUID        `form:"plan_id" binding:"required"`
	ObjectType types.ObjectKind `form:"object_type" binding:"required"`
	ObjectID   uuid.UUID        `form:"object_id" binding:"required"`
	ScopeType  types.ScopeKind  `form:"scope_type" binding:"required"`
	ScopeID    uuid.UUID        `form:"scope_id" binding:"required"`
}

// ListForObject returns every attribute value of an object the caller is
// allowed to see, ordered by the owning types' sort order.
func (h *AttributeHandler) ListForObject(c *gin.Context) {
	var req listAttributesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	var actionID *uuid.UUID
	if req.ObjectType == types.ObjectKindAction {
		id := req.ObjectID
		actionID = &id
	}
	pc, err := h.permissionContext(c, req.PlanID, actionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	values, err := h.attrService.GetAll(c.Request.Context(), &pc, req.ObjectType, req.ObjectID, req.ScopeType, req.ScopeID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"values": values})
}
