package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/planwatch/watch-backend/internal/logger"
	"github.com/planwatch/watch-backend/internal/requestdata"
	"github.com/planwatch/watch-backend/internal/services"
	"github.com/planwatch/watch-backend/internal/types"
)

type ReportHandler struct {
	reportService services.ReportService
	exportService services.ExportService
	log           *logger.Logger
}

func NewReportHandler(reportService services.ReportService, exportService services.ExportService, baseLog *logger.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		exportService: exportService,
		log:           baseLog.With("handler", "ReportHandler"),
	}
}

func currentUserID(c *gin.Context) *uuid.UUID {
	if rd := requestdata.GetRequestData(c.Request.Context()); rd != nil && rd.UserID != uuid.Nil {
		id := rd.UserID
		return &id
	}
	return nil
}

type reportFieldRequest struct {
	Identifier     string                      `json:"identifier" binding:"required"`
	Name           string                      `json:"name" binding:"required"`
	Kind           types.ReportFieldKind       `json:"kind" binding:"required"`
	Format         *types.AttributeFormat      `json:"format"`
	Options        types.ReportFieldOptionList `json:"options"`
	UnitID         *uuid.UUID                  `json:"unit_id"`
	CategoryTypeID *uuid.UUID                  `json:"category_type_id"`
}

type createReportTypeRequest struct {
	PlanID uuid.UUID            `json:"plan_id" binding:"required"`
	Name   string               `json:"name" binding:"required"`
	Fields []reportFieldRequest `json:"fields" binding:"required"`
}

func (h *ReportHandler) CreateType(c *gin.Context) {
	var req createReportTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	fields := make([]services.ReportFieldInput, 0, len(req.Fields))
	for _, f := range req.Fields {
		fields = append(fields, services.ReportFieldInput{
			Identifier:     f.Identifier,
			Name:           f.Name,
			Kind:           f.Kind,
			Format:         f.Format,
			Options:        f.Options,
			UnitID:         f.UnitID,
			CategoryTypeID: f.CategoryTypeID,
		})
	}
	created, err := h.reportService.CreateReportType(c.Request.Context(), req.PlanID, req.Name, fields)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, created)
}

type createReportRequest struct {
	TypeID     uuid.UUID `json:"type_id" binding:"required"`
	Name       string    `json:"name" binding:"required"`
	Identifier string    `json:"identifier" binding:"required"`
	StartDate  time.Time `json:"start_date" binding:"required"`
	EndDate    time.Time `json:"end_date" binding:"required"`
}

func (h *ReportHandler) Create(c *gin.Context) {
	var req createReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	created, err := h.reportService.CreateReport(c.Request.Context(), req.TypeID, req.Name, req.Identifier, req.StartDate, req.EndDate)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, created)
}

func (h *ReportHandler) Get(c *gin.Context) {
	reportID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("id must be a valid uuid"))
		return
	}
	report, err := h.reportService.GetReport(c.Request.Context(), reportID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, report)
}

type snapshotActionRequest struct {
	ActionID uuid.UUID `json:"action_id" binding:"required"`
}

func (h *ReportHandler) SnapshotAction(c *gin.Context) {
	reportID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("id must be a valid uuid"))
		return
	}
	var req snapshotActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	snapshot, err := h.reportService.SnapshotAction(c.Request.Context(), reportID, req.ActionID, currentUserID(c))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, snapshot)
}

func (h *ReportHandler) Complete(c *gin.Context) {
	reportID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("id must be a valid uuid"))
		return
	}
	snapshots, err := h.reportService.Complete(c.Request.Context(), reportID, currentUserID(c))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"snapshots": len(snapshots)})
}

func (h *ReportHandler) UndoComplete(c *gin.Context) {
	reportID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("id must be a valid uuid"))
		return
	}
	if err := h.reportService.UndoComplete(c.Request.Context(), reportID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"undone": reportID})
}

type compareFieldRequest struct {
	FieldID   uuid.UUID `form:"field_id" binding:"required"`
	ActionID  uuid.UUID `form:"action_id" binding:"required"`
	ReportAID uuid.UUID `form:"report_a" binding:"required"`
	ReportBID uuid.UUID `form:"report_b" binding:"required"`
}

func (h *ReportHandler) CompareField(c *gin.Context) {
	var req compareFieldRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	a, b, err := h.reportService.CompareField(c.Request.Context(), req.FieldID, req.ActionID, req.ReportAID, req.ReportBID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"a": a, "b": b, "changed": fmt.Sprintf("%v", a.Value) != fmt.Sprintf("%v", b.Value)})
}

func (h *ReportHandler) ExportXLSX(c *gin.Context) {
	reportID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("id must be a valid uuid"))
		return
	}
	data, err := h.exportService.ExportReportXLSX(c.Request.Context(), reportID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="report-%s.xlsx"`, reportID))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
