package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/planwatch/watch-backend/internal/logger"
	"github.com/planwatch/watch-backend/internal/repos"
	"github.com/planwatch/watch-backend/internal/types"
	"github.com/planwatch/watch-backend/internal/utils"
	"github.com/planwatch/watch-backend/internal/watcherr"
)

// snapshotBuildConcurrency bounds how many action payloads are assembled in
// parallel during report completion.
const snapshotBuildConcurrency = 8

type ReportFieldInput struct {
	Identifier     string
	Name           string
	Kind           types.ReportFieldKind
	Format         *types.AttributeFormat
	Options        types.ReportFieldOptionList
	UnitID         *uuid.UUID
	CategoryTypeID *uuid.UUID
}

// ComparedValue is one side of a field comparison between two reports. Nil
// Value means the action had no snapshot or no value in that report.
type ComparedValue struct {
	ReportID uuid.UUID   `json:"report_id"`
	Value    interface{} `json:"value"`
}

type ReportService interface {
	CreateReportType(ctx context.Context, planID uuid.UUID, name string, fields []ReportFieldInput) (*types.ReportType, error)
	CreateReport(ctx context.Context, typeID uuid.UUID, name, identifier string, startDate, endDate time.Time) (*types.Report, error)
	GetReport(ctx context.Context, reportID uuid.UUID) (*types.Report, error)
	MaterializeAttributeTypes(ctx context.Context, tx *gorm.DB, reportID uuid.UUID) ([]*types.AttributeType, error)
	SnapshotAction(ctx context.Context, reportID, actionID uuid.UUID, userID *uuid.UUID) (*types.ActionSnapshot, error)
	Complete(ctx context.Context, reportID uuid.UUID, userID *uuid.UUID) ([]*types.ActionSnapshot, error)
	UndoComplete(ctx context.Context, reportID uuid.UUID) error
	CompareField(ctx context.Context, fieldID, actionID, reportAID, reportBID uuid.UUID) (ComparedValue, ComparedValue, error)
}

type reportService struct {
	db          *gorm.DB
	reportRepo  repos.ReportRepo
	actRepo     repos.ActionRepo
	catRepo     repos.CategoryRepo
	typeRepo    repos.AttributeTypeRepo
	planRepo    repos.PlanRepo
	userRepo    repos.UserRepo
	attrService AttributeService
	typeService AttributeTypeService
	log         *logger.Logger
	now         func() time.Time
}

func NewReportService(db *gorm.DB, reportRepo repos.ReportRepo, actRepo repos.ActionRepo, catRepo repos.CategoryRepo, typeRepo repos.AttributeTypeRepo, planRepo repos.PlanRepo, userRepo repos.UserRepo, attrService AttributeService, typeService AttributeTypeService, baseLog *logger.Logger) ReportService {
	serviceLog := baseLog.With("service", "ReportService")
	return &reportService{
		db:          db,
		reportRepo:  reportRepo,
		actRepo:     actRepo,
		catRepo:     catRepo,
		typeRepo:    typeRepo,
		planRepo:    planRepo,
		userRepo:    userRepo,
		attrService: attrService,
		typeService: typeService,
		log:         serviceLog,
		now:         time.Now,
	}
}

func (rs *reportService) CreateReportType(ctx context.Context, planID uuid.UUID, name string, fields []ReportFieldInput) (*types.ReportType, error) {
	if name == "" {
		return nil, watcherr.ConstraintViolation("report type name must not be empty")
	}
	for _, field := range fields {
		if err := utils.ValidateIdentifier(field.Identifier); err != nil {
			return nil, watcherr.Wrap(watcherr.KindConstraintViolation, err, "report field identifier")
		}
		switch field.Kind {
		case types.ReportFieldAttributeType:
			if field.Format == nil || !field.Format.Valid() {
				return nil, watcherr.ConstraintViolation("attribute-typed report field %s needs a valid format", field.Identifier)
			}
			if *field.Format == types.FormatNumeric && field.UnitID == nil {
				return nil, watcherr.ConstraintViolation("numeric report field %s needs a unit", field.Identifier)
			}
		case types.ReportFieldCategory:
			if field.CategoryTypeID == nil {
				return nil, watcherr.ConstraintViolation("category report field %s needs a category type", field.Identifier)
			}
		case types.ReportFieldImplementationPhase, types.ReportFieldStatus, types.ReportFieldResponsibleParty:
		default:
			return nil, watcherr.ConstraintViolation("unknown report field kind %q", field.Kind)
		}
	}

	var created *types.ReportType
	err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reportType := &types.ReportType{PlanID: planID, Name: name}
		createdTypes, err := rs.reportRepo.CreateTypes(ctx, tx, []*types.ReportType{reportType})
		if err != nil {
			return err
		}
		created = createdTypes[0]

		rows := make([]*types.ReportField, 0, len(fields))
		for position, field := range fields {
			rows = append(rows, &types.ReportField{
				ReportTypeID:   created.ID,
				Identifier:     field.Identifier,
				Name:           field.Name,
				Kind:           field.Kind,
				Format:         field.Format,
				Options:        field.Options,
				UnitID:         field.UnitID,
				CategoryTypeID: field.CategoryTypeID,
				SortOrder:      position,
			})
		}
		createdFields, err := rs.reportRepo.CreateFields(ctx, tx, rows)
		if err != nil {
			return err
		}
		created.Fields = make([]types.ReportField, 0, len(createdFields))
		for _, field := range createdFields {
			created.Fields = append(created.Fields, *field)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// CreateReport creates a reporting period and materializes the type's
// attribute-typed fields, in one transaction.
func (rs *reportService) CreateReport(ctx context.Context, typeID uuid.UUID, name, identifier string, startDate, endDate time.Time) (*types.Report, error) {
	if err := utils.ValidateIdentifier(identifier); err != nil {
		return nil, watcherr.Wrap(watcherr.KindConstraintViolation, err, "report identifier")
	}
	if name == "" {
		return nil, watcherr.ConstraintViolation("report name must not be empty")
	}
	if endDate.Before(startDate) {
		return nil, watcherr.ConstraintViolation("report end date precedes start date")
	}

	var created *types.Report
	err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		report := &types.Report{
			TypeID:     typeID,
			Name:       name,
			Identifier: identifier,
			StartDate:  startDate,
			EndDate:    endDate,
		}
		reports, err := rs.reportRepo.CreateReports(ctx, tx, []*types.Report{report})
		if err != nil {
			return err
		}
		created = reports[0]

		_, err = rs.MaterializeAttributeTypes(ctx, tx, created.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (rs *reportService) GetReport(ctx context.Context, reportID uuid.UUID) (*types.Report, error) {
	return rs.reportRepo.GetReportByID(ctx, nil, reportID)
}

// MaterializeAttributeTypes creates one attribute type per attribute-typed
// field of the report's type, with identifier
// "{report.identifier}_{field.identifier}". Already materialized fields are
// skipped, so the operation is idempotent.
func (rs *reportService) MaterializeAttributeTypes(ctx context.Context, tx *gorm.DB, reportID uuid.UUID) ([]*types.AttributeType, error) {
	report, err := rs.reportRepo.GetReportByID(ctx, tx, reportID)
	if err != nil {
		return nil, err
	}
	if report.Type == nil {
		return nil, watcherr.Internal(nil, "report loaded without type")
	}
	plan, err := rs.planRepo.GetByID(ctx, tx, report.Type.PlanID)
	if err != nil {
		return nil, err
	}

	var materialized []*types.AttributeType
	for i := range report.Type.Fields {
		field := report.Type.Fields[i]
		if field.Kind != types.ReportFieldAttributeType || field.Format == nil {
			continue
		}

		identifier := field.AttributeTypeIdentifier(report.Identifier)
		existing, err := rs.typeRepo.GetByIdentifier(ctx, tx, types.ObjectKindAction, types.ScopeKindPlan, plan.ID, identifier)
		if err == nil {
			materialized = append(materialized, existing)
			continue
		}
		if !watcherr.IsKind(err, watcherr.KindNotFound) {
			return nil, err
		}

		created, err := rs.typeService.Create(ctx, tx, CreateAttributeTypeInput{
			ObjectType: types.ObjectKindAction,
			ScopeType:  types.ScopeKindPlan,
			ScopeID:    plan.ID,
			Identifier: identifier,
			Name:       types.LocalizedText{plan.PrimaryLanguage: field.Name},
			Format:     *field.Format,
			UnitID:     field.UnitID,
			// Report fields are filled in by contact persons during the
			// reporting period.
			InstancesVisibleFor: types.VisibleForPublic,
			InstancesEditableBy: types.EditableByContactPersons,
			ShowChoiceNames:     true,
		})
		if err != nil {
			return nil, err
		}

		for _, option := range field.Options {
			optionIdentifier := option.Identifier
			if optionIdentifier == "" {
				optionIdentifier = utils.Slugify(option.Name)
			}
			if _, err := rs.typeService.AddChoiceOption(ctx, tx, created.ID, optionIdentifier, types.LocalizedText{plan.PrimaryLanguage: option.Name}); err != nil {
				return nil, err
			}
		}
		materialized = append(materialized, created)
	}
	return materialized, nil
}

// buildPayload assembles the write-once copy of one action and its related
// rows.
func (rs *reportService) buildPayload(ctx context.Context, plan *types.Plan, action *types.Action, createdBy string) (*types.SnapshotPayload, error) {
	tasks, err := rs.actRepo.ListTasks(ctx, nil, action.ID)
	if err != nil {
		return nil, err
	}
	parties, err := rs.actRepo.ListResponsibleParties(ctx, nil, action.ID)
	if err != nil {
		return nil, err
	}
	contacts, err := rs.actRepo.ListContactPersons(ctx, nil, action.ID)
	if err != nil {
		return nil, err
	}
	links, err := rs.actRepo.ListLinks(ctx, nil, action.ID)
	if err != nil {
		return nil, err
	}
	actionCategories, err := rs.actRepo.ListCategories(ctx, nil, action.ID)
	if err != nil {
		return nil, err
	}
	attributes, err := rs.attrService.Serialize(ctx, types.ObjectKindAction, action.ID, types.ScopeKindPlan, plan.ID)
	if err != nil {
		return nil, err
	}

	payload := &types.SnapshotPayload{
		Action: types.SnapshotAction{
			ID:                    action.ID,
			Identifier:            action.Identifier,
			Name:                  action.Name,
			OfficialName:          action.OfficialName,
			Description:           action.Description,
			StatusID:              action.StatusID,
			ImplementationPhaseID: action.ImplementationPhaseID,
			ManualStatus:          action.ManualStatus,
			Completion:            action.Completion,
			MergedWithID:          action.MergedWithID,
			SortOrder:             action.SortOrder,
			UpdatedAt:             action.UpdatedAt,
		},
		Attributes: attributes,
		CreatedAt:  rs.now(),
		CreatedBy:  createdBy,
	}

	for _, task := range tasks {
		payload.Tasks = append(payload.Tasks, types.SnapshotTask{
			ID:          task.ID,
			Name:        task.Name,
			State:       task.State,
			DueAt:       task.DueAt,
			CompletedAt: task.CompletedAt,
			SortOrder:   task.SortOrder,
		})
	}
	for _, party := range parties {
		row := types.SnapshotResponsibleParty{
			ID:             party.ID,
			OrganizationID: party.OrganizationID,
			Role:           party.Role,
			SortOrder:      party.SortOrder,
		}
		if party.Organization != nil {
			row.OrganizationName = party.Organization.Name
		}
		payload.ResponsibleParties = append(payload.ResponsibleParties, row)
	}
	for _, contact := range contacts {
		row := types.SnapshotContactPerson{
			ID:        contact.ID,
			UserID:    contact.UserID,
			Role:      contact.Role,
			SortOrder: contact.SortOrder,
		}
		if contact.User != nil {
			row.UserName = contact.User.Name
		}
		payload.ContactPersons = append(payload.ContactPersons, row)
	}
	for _, link := range links {
		payload.Links = append(payload.Links, types.SnapshotLink{
			ID:        link.ID,
			URL:       link.URL,
			Title:     link.Title,
			SortOrder: link.SortOrder,
		})
	}
	for _, ac := range actionCategories {
		payload.CategoryIDs = append(payload.CategoryIDs, ac.CategoryID)
	}

	return payload, nil
}

func (rs *reportService) resolveUserName(ctx context.Context, userID *uuid.UUID) string {
	if userID == nil {
		return ""
	}
	user, err := rs.userRepo.GetByID(ctx, nil, *userID)
	if err != nil {
		return ""
	}
	return user.Name
}

// SnapshotAction captures one action into an open report ahead of
// completion. The snapshot survives a later undo of the report completion.
func (rs *reportService) SnapshotAction(ctx context.Context, reportID, actionID uuid.UUID, userID *uuid.UUID) (*types.ActionSnapshot, error) {
	report, err := rs.reportRepo.GetReportByID(ctx, nil, reportID)
	if err != nil {
		return nil, err
	}
	if report.IsComplete {
		return nil, watcherr.Conflict("report %s is complete; snapshots are read-only", report.Identifier)
	}
	existing, err := rs.reportRepo.GetSnapshot(ctx, nil, reportID, actionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, watcherr.Conflict("action already has a snapshot in report %s", report.Identifier)
	}

	action, err := rs.actRepo.GetByID(ctx, nil, actionID)
	if err != nil {
		return nil, err
	}
	plan, err := rs.planRepo.GetByID(ctx, nil, report.Type.PlanID)
	if err != nil {
		return nil, err
	}
	if action.PlanID != plan.ID {
		return nil, watcherr.ConstraintViolation("action %s is not in the report's plan", action.Identifier)
	}

	payload, err := rs.buildPayload(ctx, plan, action, rs.resolveUserName(ctx, userID))
	if err != nil {
		return nil, err
	}
	encoded, err := types.EncodeSnapshotPayload(payload)
	if err != nil {
		return nil, watcherr.Internal(err, "encode snapshot payload")
	}

	snapshot := &types.ActionSnapshot{
		ReportID:          reportID,
		ActionID:          actionID,
		Payload:           encoded,
		CreatedExplicitly: true,
		CreatedByID:       userID,
	}
	created, err := rs.reportRepo.CreateSnapshots(ctx, nil, []*types.ActionSnapshot{snapshot})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

// Complete closes the report: every action in the plan gets a snapshot,
// actions snapshotted explicitly beforehand keep theirs. Completing an
// already complete report returns the existing snapshots.
func (rs *reportService) Complete(ctx context.Context, reportID uuid.UUID, userID *uuid.UUID) ([]*types.ActionSnapshot, error) {
	report, err := rs.reportRepo.GetReportByID(ctx, nil, reportID)
	if err != nil {
		return nil, err
	}
	if report.IsComplete {
		return rs.reportRepo.ListSnapshots(ctx, nil, reportID)
	}
	plan, err := rs.planRepo.GetByID(ctx, nil, report.Type.PlanID)
	if err != nil {
		return nil, err
	}
	actions, err := rs.actRepo.ListByPlan(ctx, nil, plan.ID)
	if err != nil {
		return nil, err
	}

	createdBy := rs.resolveUserName(ctx, userID)

	// Payload assembly is read-only and dominated by queries; build the
	// payloads in parallel before opening the write transaction.
	payloads := make([]*types.SnapshotPayload, len(actions))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(snapshotBuildConcurrency)
	for i, action := range actions {
		i, action := i, action
		group.Go(func() error {
			payload, err := rs.buildPayload(groupCtx, plan, action, createdBy)
			if err != nil {
				return err
			}
			payloads[i] = payload
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	var snapshots []*types.ActionSnapshot
	err = rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the report row so a concurrent completion waits here and then
		// takes the idempotent branch instead of racing the snapshot inserts.
		current, err := rs.reportRepo.GetReportByIDForUpdate(ctx, tx, reportID)
		if err != nil {
			return err
		}
		if current.IsComplete {
			snapshots, err = rs.reportRepo.ListSnapshots(ctx, tx, reportID)
			return err
		}

		var newRows []*types.ActionSnapshot
		for i, action := range actions {
			existing, err := rs.reportRepo.GetSnapshot(ctx, tx, reportID, action.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				snapshots = append(snapshots, existing)
				continue
			}
			encoded, err := types.EncodeSnapshotPayload(payloads[i])
			if err != nil {
				return watcherr.Internal(err, "encode snapshot payload")
			}
			newRows = append(newRows, &types.ActionSnapshot{
				ReportID:          reportID,
				ActionID:          action.ID,
				Payload:           encoded,
				CreatedExplicitly: false,
				CreatedByID:       userID,
			})
		}
		created, err := rs.reportRepo.CreateSnapshots(ctx, tx, newRows)
		if err != nil {
			return err
		}
		snapshots = append(snapshots, created...)

		completedAt := rs.now()
		current.IsComplete = true
		current.CompletedAt = &completedAt
		current.CompletedByID = userID
		_, err = rs.reportRepo.UpdateReport(ctx, tx, current)
		return err
	})
	if err != nil {
		return nil, err
	}

	rs.log.Info("report completed", "report", report.Identifier, "snapshots", len(snapshots))
	return snapshots, nil
}

// UndoComplete reopens a report: implicit snapshots are removed, explicit
// ones stay.
func (rs *reportService) UndoComplete(ctx context.Context, reportID uuid.UUID) error {
	return rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		report, err := rs.reportRepo.GetReportByIDForUpdate(ctx, tx, reportID)
		if err != nil {
			return err
		}
		if !report.IsComplete {
			return watcherr.Conflict("report %s is not complete", report.Identifier)
		}
		if err := rs.reportRepo.DeleteImplicitSnapshots(ctx, tx, reportID); err != nil {
			return err
		}
		report.IsComplete = false
		report.CompletedAt = nil
		report.CompletedByID = nil
		_, err = rs.reportRepo.UpdateReport(ctx, tx, report)
		return err
	})
}

// CompareField resolves one field's value for an action in two reports,
// each side read from that report's snapshot.
func (rs *reportService) CompareField(ctx context.Context, fieldID, actionID, reportAID, reportBID uuid.UUID) (ComparedValue, ComparedValue, error) {
	field, err := rs.reportRepo.GetFieldByID(ctx, nil, fieldID)
	if err != nil {
		return ComparedValue{}, ComparedValue{}, err
	}

	valueA, err := rs.fieldValueInReport(ctx, field, actionID, reportAID)
	if err != nil {
		return ComparedValue{}, ComparedValue{}, err
	}
	valueB, err := rs.fieldValueInReport(ctx, field, actionID, reportBID)
	if err != nil {
		return ComparedValue{}, ComparedValue{}, err
	}
	return ComparedValue{ReportID: reportAID, Value: valueA},
		ComparedValue{ReportID: reportBID, Value: valueB}, nil
}

func (rs *reportService) fieldValueInReport(ctx context.Context, field *types.ReportField, actionID, reportID uuid.UUID) (interface{}, error) {
	report, err := rs.reportRepo.GetReportByID(ctx, nil, reportID)
	if err != nil {
		return nil, err
	}
	if report.Type == nil || report.Type.ID != field.ReportTypeID {
		return nil, watcherr.ConstraintViolation("field %s does not belong to the report's type", field.Identifier)
	}

	snapshot, err := rs.reportRepo.GetSnapshot(ctx, nil, reportID, actionID)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, nil
	}
	payload, err := snapshot.DecodePayload()
	if err != nil {
		return nil, watcherr.Internal(err, "decode snapshot payload")
	}

	switch field.Kind {
	case types.ReportFieldImplementationPhase:
		return payload.Action.ImplementationPhaseID, nil
	case types.ReportFieldStatus:
		return payload.Action.StatusID, nil
	case types.ReportFieldResponsibleParty:
		return payload.ResponsibleParties, nil
	case types.ReportFieldCategory:
		return rs.categoriesOfType(ctx, payload.CategoryIDs, field.CategoryTypeID)
	case types.ReportFieldAttributeType:
		return rs.attributeValueFromPayload(ctx, field, report, payload)
	}
	return nil, watcherr.ConstraintViolation("unknown report field kind %q", field.Kind)
}

func (rs *reportService) categoriesOfType(ctx context.Context, categoryIDs []uuid.UUID, categoryTypeID *uuid.UUID) (interface{}, error) {
	if categoryTypeID == nil || len(categoryIDs) == 0 {
		return []uuid.UUID{}, nil
	}
	categories, err := rs.catRepo.GetCategoriesByIDs(ctx, nil, categoryIDs)
	if err != nil {
		return nil, err
	}
	matched := []uuid.UUID{}
	for _, category := range categories {
		if category.TypeID == *categoryTypeID {
			matched = append(matched, category.ID)
		}
	}
	return matched, nil
}

// attributeValueFromPayload looks up the materialized attribute type for
// this report and pulls its serialized value out of the payload. A missing
// type or value renders as nil.
func (rs *reportService) attributeValueFromPayload(ctx context.Context, field *types.ReportField, report *types.Report, payload *types.SnapshotPayload) (interface{}, error) {
	identifier := field.AttributeTypeIdentifier(report.Identifier)
	attributeType, err := rs.typeRepo.GetByIdentifier(ctx, nil, types.ObjectKindAction, types.ScopeKindPlan, report.Type.PlanID, identifier)
	if err != nil {
		if watcherr.IsKind(err, watcherr.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}

	key := attributeType.ID.String()
	switch attributeType.Format {
	case types.FormatOrderedChoice:
		if v, ok := payload.Attributes.OrderedChoice[key]; ok {
			return v, nil
		}
	case types.FormatUnorderedChoice:
		if v, ok := payload.Attributes.UnorderedChoice[key]; ok {
			return v, nil
		}
	case types.FormatCategoryChoice:
		if v, ok := payload.Attributes.CategoryChoice[key]; ok {
			return v, nil
		}
	case types.FormatOptionalChoiceWithText:
		if v, ok := payload.Attributes.OptionalChoiceWithText[key]; ok {
			return v, nil
		}
	case types.FormatText:
		if v, ok := payload.Attributes.Text[key]; ok {
			return v, nil
		}
	case types.FormatRichText:
		if v, ok := payload.Attributes.RichText[key]; ok {
			return v, nil
		}
	case types.FormatNumeric:
		if v, ok := payload.Attributes.Numeric[key]; ok {
			return v, nil
		}
	}
	return nil, nil
}
