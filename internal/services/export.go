package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/xuri/excelize/v2"

	"github.com/planwatch/watch-backend/internal/cache"
	"github.com/planwatch/watch-backend/internal/logger"
	"github.com/planwatch/watch-backend/internal/repos"
	"github.com/planwatch/watch-backend/internal/types"
	"github.com/planwatch/watch-backend/internal/watcherr"
)

const (
	actionSheetName = "Actions"
	pivotSheetName  = "Responsibilities"

	// Completed reports are immutable, so rendered workbooks can be cached
	// indefinitely; the TTL just bounds memory on the redis side.
	xlsxCacheTTL = 30 * 24 * time.Hour
)

func xlsxCacheKey(reportID uuid.UUID) string {
	return "watch:report:xlsx:" + reportID.String()
}

// ExportService renders a report into a spreadsheet: one row per action,
// one column block per declared field, plus a pivot sheet grouping actions
// by responsible organization and implementation phase.
type ExportService interface {
	ExportReportXLSX(ctx context.Context, reportID uuid.UUID) ([]byte, error)
}

type exportService struct {
	reportRepo  repos.ReportRepo
	actRepo     repos.ActionRepo
	catRepo     repos.CategoryRepo
	typeRepo    repos.AttributeTypeRepo
	planRepo    repos.PlanRepo
	attrService AttributeService
	rdb         *redis.Client
	log         *logger.Logger
}

func NewExportService(reportRepo repos.ReportRepo, actRepo repos.ActionRepo, catRepo repos.CategoryRepo, typeRepo repos.AttributeTypeRepo, planRepo repos.PlanRepo, attrService AttributeService, rdb *redis.Client, baseLog *logger.Logger) ExportService {
	serviceLog := baseLog.With("service", "ExportService")
	return &exportService{
		reportRepo:  reportRepo,
		actRepo:     actRepo,
		catRepo:     catRepo,
		typeRepo:    typeRepo,
		planRepo:    planRepo,
		attrService: attrService,
		rdb:         rdb,
		log:         serviceLog,
	}
}

// lookupCache returns the request-scoped cache when the middleware installed
// one, or a fresh cache bounded to this export.
func (es *exportService) lookupCache(ctx context.Context) *cache.WatchObjectCache {
	if c, ok := cache.FromContext(ctx); ok {
		return c
	}
	return cache.NewWatchObjectCache(es.planRepo, es.log)
}

// exportRow is the per-action input to the sheet writer, sourced either
// from live state or from a snapshot payload.
type exportRow struct {
	Identifier         string
	Name               string
	StatusID           *uuid.UUID
	PhaseID            *uuid.UUID
	Attributes         types.SerializedAttributes
	ResponsibleParties []types.SnapshotResponsibleParty
	CategoryIDs        []uuid.UUID
	CompletedBy        string
	CompletedAt        string
}

func (es *exportService) ExportReportXLSX(ctx context.Context, reportID uuid.UUID) ([]byte, error) {
	report, err := es.reportRepo.GetReportByID(ctx, nil, reportID)
	if err != nil {
		return nil, err
	}

	if report.IsComplete && es.rdb != nil {
		cached, err := es.rdb.Get(ctx, xlsxCacheKey(reportID)).Bytes()
		if err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	lookup := es.lookupCache(ctx)
	plan, err := lookup.Plan(ctx, report.Type.PlanID)
	if err != nil {
		return nil, err
	}

	rows, err := es.collectRows(ctx, report, plan)
	if err != nil {
		return nil, err
	}

	data, err := es.render(ctx, lookup, report, plan, rows)
	if err != nil {
		return nil, err
	}

	if report.IsComplete && es.rdb != nil {
		if err := es.rdb.Set(ctx, xlsxCacheKey(reportID), data, xlsxCacheTTL).Err(); err != nil {
			es.log.Warn("failed to cache rendered workbook", "report", report.Identifier, "error", err)
		}
	}
	return data, nil
}

func (es *exportService) collectRows(ctx context.Context, report *types.Report, plan *types.Plan) ([]exportRow, error) {
	if report.IsComplete {
		return es.rowsFromSnapshots(ctx, report)
	}
	return es.rowsFromLiveState(ctx, plan)
}

func (es *exportService) rowsFromSnapshots(ctx context.Context, report *types.Report) ([]exportRow, error) {
	snapshots, err := es.reportRepo.ListSnapshots(ctx, nil, report.ID)
	if err != nil {
		return nil, err
	}

	rows := make([]exportRow, 0, len(snapshots))
	for _, snapshot := range snapshots {
		payload, err := snapshot.DecodePayload()
		if err != nil {
			es.log.Warn("skipping undecodable snapshot", "snapshot", snapshot.ID, "error", err)
			continue
		}
		rows = append(rows, exportRow{
			Identifier:         payload.Action.Identifier,
			Name:               payload.Action.Name,
			StatusID:           payload.Action.StatusID,
			PhaseID:            payload.Action.ImplementationPhaseID,
			Attributes:         payload.Attributes,
			ResponsibleParties: payload.ResponsibleParties,
			CategoryIDs:        payload.CategoryIDs,
			CompletedBy:        payload.CreatedBy,
			CompletedAt:        payload.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	return rows, nil
}

func (es *exportService) rowsFromLiveState(ctx context.Context, plan *types.Plan) ([]exportRow, error) {
	actions, err := es.actRepo.ListByPlan(ctx, nil, plan.ID)
	if err != nil {
		return nil, err
	}

	rows := make([]exportRow, 0, len(actions))
	for _, action := range actions {
		attributes, err := es.attrService.Serialize(ctx, types.ObjectKindAction, action.ID, types.ScopeKindPlan, plan.ID)
		if err != nil {
			return nil, err
		}
		parties, err := es.actRepo.ListResponsibleParties(ctx, nil, action.ID)
		if err != nil {
			return nil, err
		}
		actionCategories, err := es.actRepo.ListCategories(ctx, nil, action.ID)
		if err != nil {
			return nil, err
		}

		row := exportRow{
			Identifier: action.Identifier,
			Name:       action.Name,
			StatusID:   action.StatusID,
			PhaseID:    action.ImplementationPhaseID,
			Attributes: attributes,
		}
		for _, party := range parties {
			snapshotParty := types.SnapshotResponsibleParty{
				OrganizationID: party.OrganizationID,
				Role:           party.Role,
				SortOrder:      party.SortOrder,
			}
			if party.Organization != nil {
				snapshotParty.OrganizationName = party.Organization.Name
			}
			row.ResponsibleParties = append(row.ResponsibleParties, snapshotParty)
		}
		for _, ac := range actionCategories {
			row.CategoryIDs = append(row.CategoryIDs, ac.CategoryID)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// exportContext carries the lookup tables cell rendering needs.
type exportContext struct {
	plan       *types.Plan
	statusName map[uuid.UUID]string
	phaseName  map[uuid.UUID]string
	attrTypes  map[string]*types.AttributeType
	choiceName map[uuid.UUID]string
	categories map[uuid.UUID]*types.Category
	hideIdents map[uuid.UUID]bool
}

func (es *exportService) buildContext(ctx context.Context, lookup *cache.WatchObjectCache, plan *types.Plan) (*exportContext, error) {
	ec := &exportContext{
		plan:       plan,
		statusName: map[uuid.UUID]string{},
		phaseName:  map[uuid.UUID]string{},
		attrTypes:  map[string]*types.AttributeType{},
		choiceName: map[uuid.UUID]string{},
		categories: map[uuid.UUID]*types.Category{},
		hideIdents: map[uuid.UUID]bool{},
	}

	statuses, err := lookup.Statuses(ctx, plan.ID)
	if err != nil {
		return nil, err
	}
	for _, status := range statuses {
		ec.statusName[status.ID] = status.Name.Resolve(plan.PrimaryLanguage, plan.PrimaryLanguage)
	}

	phases, err := lookup.Phases(ctx, plan.ID)
	if err != nil {
		return nil, err
	}
	for _, phase := range phases {
		ec.phaseName[phase.ID] = phase.Name.Resolve(plan.PrimaryLanguage, plan.PrimaryLanguage)
	}

	attrTypes, err := es.typeRepo.List(ctx, nil, types.ObjectKindAction, types.ScopeKindPlan, plan.ID)
	if err != nil {
		return nil, err
	}
	for _, attrType := range attrTypes {
		ec.attrTypes[attrType.Identifier] = attrType
		for i := range attrType.ChoiceOptions {
			option := attrType.ChoiceOptions[i]
			ec.choiceName[option.ID] = option.Name.Resolve(plan.PrimaryLanguage, plan.PrimaryLanguage)
		}
	}

	categoryTypes, err := es.catRepo.ListTypes(ctx, nil, plan.ID)
	if err != nil {
		return nil, err
	}
	for _, categoryType := range categoryTypes {
		ec.hideIdents[categoryType.ID] = categoryType.HideCategoryIdentifiers
		categories, err := es.catRepo.ListCategories(ctx, nil, categoryType.ID)
		if err != nil {
			return nil, err
		}
		for _, category := range categories {
			ec.categories[category.ID] = category
		}
	}
	return ec, nil
}

func (es *exportService) render(ctx context.Context, lookup *cache.WatchObjectCache, report *types.Report, plan *types.Plan, rows []exportRow) ([]byte, error) {
	ec, err := es.buildContext(ctx, lookup, plan)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), actionSheetName); err != nil {
		return nil, watcherr.Internal(err, "rename sheet")
	}

	headers := []string{"Identifier", "Name"}
	for i := range report.Type.Fields {
		headers = append(headers, fieldColumnLabels(&report.Type.Fields[i])...)
	}
	headers = append(headers, "Marked as complete by", "Marked as complete at")

	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(actionSheetName, cell, header); err != nil {
			return nil, watcherr.Internal(err, "write header cell")
		}
	}

	for rowIdx, row := range rows {
		values := []interface{}{row.Identifier, row.Name}
		for i := range report.Type.Fields {
			values = append(values, es.fieldCellValues(ec, report, &report.Type.Fields[i], row)...)
		}
		values = append(values, row.CompletedBy, row.CompletedAt)

		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err := f.SetCellValue(actionSheetName, cell, value); err != nil {
				// Formatting problems degrade to blank cells, never abort
				// the export.
				es.log.Warn("failed to write cell", "cell", cell, "error", err)
			}
		}
	}

	if err := es.renderPivot(f, ec, rows); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, watcherr.Internal(err, "serialize workbook")
	}
	return buf.Bytes(), nil
}

// fieldColumnLabels returns the column headers one field block contributes.
func fieldColumnLabels(field *types.ReportField) []string {
	if field.Kind == types.ReportFieldAttributeType && field.Format != nil && *field.Format == types.FormatOptionalChoiceWithText {
		return []string{field.Name, field.Name + " (comment)"}
	}
	return []string{field.Name}
}

// fieldCellValues renders one field block for one action row. Missing
// referenced objects render as blank cells.
func (es *exportService) fieldCellValues(ec *exportContext, report *types.Report, field *types.ReportField, row exportRow) []interface{} {
	switch field.Kind {
	case types.ReportFieldImplementationPhase:
		if row.PhaseID != nil {
			return []interface{}{ec.phaseName[*row.PhaseID]}
		}
		return []interface{}{""}

	case types.ReportFieldStatus:
		if row.StatusID != nil {
			return []interface{}{ec.statusName[*row.StatusID]}
		}
		return []interface{}{""}

	case types.ReportFieldResponsibleParty:
		for _, party := range row.ResponsibleParties {
			if party.Role == types.ResponsiblePartyPrimary {
				return []interface{}{party.OrganizationName}
			}
		}
		if len(row.ResponsibleParties) > 0 {
			return []interface{}{row.ResponsibleParties[0].OrganizationName}
		}
		return []interface{}{""}

	case types.ReportFieldCategory:
		var labels []string
		for _, categoryID := range row.CategoryIDs {
			category, ok := ec.categories[categoryID]
			if !ok {
				continue
			}
			if field.CategoryTypeID != nil && category.TypeID != *field.CategoryTypeID {
				continue
			}
			labels = append(labels, category.Label(ec.hideIdents[category.TypeID]))
		}
		return []interface{}{strings.Join(labels, "; ")}

	case types.ReportFieldAttributeType:
		return es.attributeCellValues(ec, report, field, row)
	}
	return []interface{}{""}
}

func (es *exportService) attributeCellValues(ec *exportContext, report *types.Report, field *types.ReportField, row exportRow) []interface{} {
	withComment := field.Format != nil && *field.Format == types.FormatOptionalChoiceWithText
	blank := []interface{}{""}
	if withComment {
		blank = []interface{}{"", ""}
	}

	attrType, ok := ec.attrTypes[field.AttributeTypeIdentifier(report.Identifier)]
	if !ok || field.Format == nil {
		return blank
	}
	key := attrType.ID.String()

	switch *field.Format {
	case types.FormatOrderedChoice, types.FormatUnorderedChoice:
		if choiceID, ok := row.Attributes.OrderedChoice[key]; ok && choiceID != nil {
			return []interface{}{ec.choiceName[*choiceID]}
		}
		if choiceID, ok := row.Attributes.UnorderedChoice[key]; ok && choiceID != nil {
			return []interface{}{ec.choiceName[*choiceID]}
		}
		return blank

	case types.FormatOptionalChoiceWithText:
		value, ok := row.Attributes.OptionalChoiceWithText[key]
		if !ok {
			return blank
		}
		choice := ""
		if value.Choice != nil {
			choice = ec.choiceName[*value.Choice]
		}
		return []interface{}{choice, value.Text["text"]}

	case types.FormatText:
		if value, ok := row.Attributes.Text[key]; ok {
			return []interface{}{value["text"]}
		}
		return blank

	case types.FormatRichText:
		if value, ok := row.Attributes.RichText[key]; ok {
			return []interface{}{value["text"]}
		}
		return blank

	case types.FormatNumeric:
		if value, ok := row.Attributes.Numeric[key]; ok && value != nil {
			return []interface{}{*value}
		}
		return blank

	case types.FormatCategoryChoice:
		if categoryIDs, ok := row.Attributes.CategoryChoice[key]; ok {
			var labels []string
			for _, categoryID := range categoryIDs {
				if category, found := ec.categories[categoryID]; found {
					labels = append(labels, category.Label(ec.hideIdents[category.TypeID]))
				}
			}
			return []interface{}{strings.Join(labels, "; ")}
		}
		return blank
	}
	return blank
}

// renderPivot writes the second sheet: action counts by responsible
// organization and implementation phase, with a column chart.
func (es *exportService) renderPivot(f *excelize.File, ec *exportContext, rows []exportRow) error {
	if _, err := f.NewSheet(pivotSheetName); err != nil {
		return watcherr.Internal(err, "create pivot sheet")
	}

	type pivotKey struct {
		organization string
		phase        string
	}
	counts := map[pivotKey]int{}
	var order []pivotKey
	for _, row := range rows {
		organization := ""
		for _, party := range row.ResponsibleParties {
			if party.Role == types.ResponsiblePartyPrimary {
				organization = party.OrganizationName
				break
			}
		}
		phase := ""
		if row.PhaseID != nil {
			phase = ec.phaseName[*row.PhaseID]
		}
		key := pivotKey{organization: organization, phase: phase}
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}

	f.SetCellValue(pivotSheetName, "A1", "Organization")
	f.SetCellValue(pivotSheetName, "B1", "Implementation phase")
	f.SetCellValue(pivotSheetName, "C1", "Actions")
	for i, key := range order {
		rowNum := i + 2
		f.SetCellValue(pivotSheetName, fmt.Sprintf("A%d", rowNum), key.organization)
		f.SetCellValue(pivotSheetName, fmt.Sprintf("B%d", rowNum), key.phase)
		f.SetCellValue(pivotSheetName, fmt.Sprintf("C%d", rowNum), counts[key])
	}

	if len(order) == 0 {
		return nil
	}

	chart := &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       pivotSheetName + "!$C$1",
			Categories: fmt.Sprintf("%s!$A$2:$B$%d", pivotSheetName, len(order)+1),
			Values:     fmt.Sprintf("%s!$C$2:$C$%d", pivotSheetName, len(order)+1),
		}},
		Title: []excelize.RichTextRun{{Text: "Actions by organization and phase"}},
	}
	if err := f.AddChart(pivotSheetName, "E2", chart); err != nil {
		es.log.Warn("failed to add pivot chart", "error", err)
	}
	return nil
}
