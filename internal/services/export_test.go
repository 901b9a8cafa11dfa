package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/planwatch/watch-backend/internal/logger"
	"github.com/planwatch/watch-backend/internal/types"
)

func TestExportReportXLSX(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pc := superuserContext()
	exportService := NewExportService(f.reportRepo, f.actRepo, f.catRepo, f.typeRepo, f.planRepo, f.attrService, nil, logger.NewNop())

	textFormat := types.FormatText
	optionalFormat := types.FormatOptionalChoiceWithText
	reportType, err := f.reportService.CreateReportType(ctx, f.plan.ID, "Annual", []ReportFieldInput{
		{Identifier: "status", Name: "Status", Kind: types.ReportFieldStatus},
		{Identifier: "phase", Name: "Phase", Kind: types.ReportFieldImplementationPhase},
		{Identifier: "owner", Name: "Responsible", Kind: types.ReportFieldResponsibleParty},
		{Identifier: "comment", Name: "Comment", Kind: types.ReportFieldAttributeType, Format: &textFormat},
		{Identifier: "review", Name: "Review", Kind: types.ReportFieldAttributeType, Format: &optionalFormat},
	})
	if err != nil {
		t.Fatalf("create report type: %v", err)
	}
	report, err := f.reportService.CreateReport(ctx, reportType.ID, "Annual 2026", "annual_2026", dateAt(2026, 1, 1), dateAt(2026, 12, 31))
	if err != nil {
		t.Fatalf("create report: %v", err)
	}

	action := f.createAction(t, "a1")
	action.StatusID = &f.statuses["on_time"].ID
	action.ImplementationPhaseID = &f.phases["implementation"].ID
	if _, err := f.actRepo.Update(ctx, nil, action); err != nil {
		t.Fatalf("update action: %v", err)
	}

	orgs, err := f.actRepo.CreateOrganizations(ctx, nil, []*types.Organization{{Name: "City of Springfield"}})
	if err != nil {
		t.Fatalf("create organization: %v", err)
	}
	if _, err := f.actRepo.CreateResponsibleParties(ctx, nil, []*types.ActionResponsibleParty{
		{ActionID: action.ID, OrganizationID: orgs[0].ID, Role: types.ResponsiblePartyPrimary},
	}); err != nil {
		t.Fatalf("create responsible party: %v", err)
	}

	materialized, err := f.typeRepo.GetByIdentifier(ctx, nil, types.ObjectKindAction, types.ScopeKindPlan, f.plan.ID, "annual_2026_comment")
	if err != nil {
		t.Fatalf("materialized type missing: %v", err)
	}
	if err := f.attrService.Set(ctx, nil, pc, materialized.ID, types.ObjectKindAction, action.ID, types.AttributeValue{
		Format: types.FormatText, Text: types.LocalizedText{"en": "on track"},
	}); err != nil {
		t.Fatalf("set attribute: %v", err)
	}

	data, err := exportService.ExportReportXLSX(ctx, report.ID)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer workbook.Close()

	cell := func(sheet, ref string) string {
		t.Helper()
		value, err := workbook.GetCellValue(sheet, ref)
		if err != nil {
			t.Fatalf("read %s!%s: %v", sheet, ref, err)
		}
		return value
	}

	// An optional-choice field contributes two columns.
	wantHeaders := []string{"Identifier", "Name", "Status", "Phase", "Responsible", "Comment", "Review", "Review (comment)", "Marked as complete by", "Marked as complete at"}
	for i, want := range wantHeaders {
		ref, _ := excelize.CoordinatesToCellName(i+1, 1)
		if got := cell("Actions", ref); got != want {
			t.Errorf("header %s = %q, want %q", ref, got, want)
		}
	}

	wantRow := []string{"a1", "Action a1", "On time", "Implementation", "City of Springfield", "on track"}
	for i, want := range wantRow {
		ref, _ := excelize.CoordinatesToCellName(i+1, 2)
		if got := cell("Actions", ref); got != want {
			t.Errorf("row cell %s = %q, want %q", ref, got, want)
		}
	}

	if got := cell("Responsibilities", "A1"); got != "Organization" {
		t.Errorf("pivot A1 = %q", got)
	}
	if got := cell("Responsibilities", "A2"); got != "City of Springfield" {
		t.Errorf("pivot A2 = %q", got)
	}
	if got := cell("Responsibilities", "C2"); got != "1" {
		t.Errorf("pivot C2 = %q", got)
	}
}
