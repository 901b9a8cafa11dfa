package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/planwatch/watch-backend/internal/types"
	"github.com/planwatch/watch-backend/internal/watcherr"
)

func TestAttributeTypeCreateDefaultsAndOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.createActionType(t, "impact", types.FormatOrderedChoice, nil)
	if first.InstancesVisibleFor != types.VisibleForPublic {
		t.Errorf("default visibility = %s", first.InstancesVisibleFor)
	}
	if first.InstancesEditableBy != types.EditableByAuthenticated {
		t.Errorf("default editability = %s", first.InstancesEditableBy)
	}
	if first.PrimaryLanguage != "en" {
		t.Errorf("primary language not copied from plan: %s", first.PrimaryLanguage)
	}
	if !first.OtherLanguages.Contains("fi") {
		t.Error("other languages not copied from plan")
	}
	if first.SortOrder != 0 {
		t.Errorf("first sort order = %d", first.SortOrder)
	}

	second := f.createActionType(t, "comment", types.FormatText, nil)
	if second.SortOrder != 1 {
		t.Errorf("second sort order = %d", second.SortOrder)
	}

	listed, err := f.typeService.TypesFor(ctx, types.ObjectKindAction, types.ScopeKindPlan, f.plan.ID)
	if err != nil {
		t.Fatalf("TypesFor: %v", err)
	}
	if len(listed) != 2 || listed[0].Identifier != "impact" || listed[1].Identifier != "comment" {
		t.Errorf("unexpected listing order: %v", listed)
	}
}

func TestAttributeTypeCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	unit := f.createUnit(t, "tCO2e")
	catType := f.createCategoryType(t, "themes")

	cases := []struct {
		name     string
		input    CreateAttributeTypeInput
		wantKind watcherr.Kind
	}{
		{
			"bad identifier",
			CreateAttributeTypeInput{
				ObjectType: types.ObjectKindAction, ScopeType: types.ScopeKindPlan, ScopeID: f.plan.ID,
				Identifier: "Has Spaces", Name: types.LocalizedText{"en": "x"}, Format: types.FormatText,
			},
			watcherr.KindConstraintViolation,
		},
		{
			"unknown format",
			CreateAttributeTypeInput{
				ObjectType: types.ObjectKindAction, ScopeType: types.ScopeKindPlan, ScopeID: f.plan.ID,
				Identifier: "x", Name: types.LocalizedText{"en": "x"}, Format: "bogus",
			},
			watcherr.KindUnsupportedFormat,
		},
		{
			"numeric without unit",
			CreateAttributeTypeInput{
				ObjectType: types.ObjectKindAction, ScopeType: types.ScopeKindPlan, ScopeID: f.plan.ID,
				Identifier: "x", Name: types.LocalizedText{"en": "x"}, Format: types.FormatNumeric,
			},
			watcherr.KindConstraintViolation,
		},
		{
			"unit on text type",
			CreateAttributeTypeInput{
				ObjectType: types.ObjectKindAction, ScopeType: types.ScopeKindPlan, ScopeID: f.plan.ID,
				Identifier: "x", Name: types.LocalizedText{"en": "x"}, Format: types.FormatText, UnitID: &unit.ID,
			},
			watcherr.KindConstraintViolation,
		},
		{
			"category choice without category type",
			CreateAttributeTypeInput{
				ObjectType: types.ObjectKindAction, ScopeType: types.ScopeKindPlan, ScopeID: f.plan.ID,
				Identifier: "x", Name: types.LocalizedText{"en": "x"}, Format: types.FormatCategoryChoice,
			},
			watcherr.KindConstraintViolation,
		},
		{
			"category type on choice format",
			CreateAttributeTypeInput{
				ObjectType: types.ObjectKindAction, ScopeType: types.ScopeKindPlan, ScopeID: f.plan.ID,
				Identifier: "x", Name: types.LocalizedText{"en": "x"}, Format: types.FormatOrderedChoice,
				AttributeCategoryTypeID: &catType.ID,
			},
			watcherr.KindConstraintViolation,
		},
		{
			"action attributes cannot hang off a category type",
			CreateAttributeTypeInput{
				ObjectType: types.ObjectKindAction, ScopeType: types.ScopeKindCategoryType, ScopeID: catType.ID,
				Identifier: "x", Name: types.LocalizedText{"en": "x"}, Format: types.FormatText,
			},
			watcherr.KindConstraintViolation,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.typeService.Create(ctx, nil, tc.input)
			if !watcherr.IsKind(err, tc.wantKind) {
				t.Errorf("err = %v, want kind %v", err, tc.wantKind)
			}
		})
	}
}

func TestAttributeTypeCategoryScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	catType := f.createCategoryType(t, "themes")

	created, err := f.typeService.Create(ctx, nil, CreateAttributeTypeInput{
		ObjectType: types.ObjectKindCategory,
		ScopeType:  types.ScopeKindCategoryType,
		ScopeID:    catType.ID,
		Identifier: "color_note",
		Name:       types.LocalizedText{"en": "Color note"},
		Format:     types.FormatText,
	})
	if err != nil {
		t.Fatalf("create category-scoped type: %v", err)
	}
	if created.PrimaryLanguage != "en" {
		t.Errorf("plan not resolved through category type, language = %s", created.PrimaryLanguage)
	}

	listed, err := f.typeService.TypesFor(ctx, types.ObjectKindCategory, types.ScopeKindCategoryType, catType.ID)
	if err != nil {
		t.Fatalf("TypesFor: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 type, got %d", len(listed))
	}
}

func TestAddChoiceOption(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	choiceType := f.createActionType(t, "impact", types.FormatOrderedChoice, nil)
	textType := f.createActionType(t, "comment", types.FormatText, nil)

	first, err := f.typeService.AddChoiceOption(ctx, nil, choiceType.ID, "low", types.LocalizedText{"en": "Low"})
	if err != nil {
		t.Fatalf("add option: %v", err)
	}
	if first.SortOrder != 0 {
		t.Errorf("first option sort order = %d", first.SortOrder)
	}
	second, err := f.typeService.AddChoiceOption(ctx, nil, choiceType.ID, "high", types.LocalizedText{"en": "High"})
	if err != nil {
		t.Fatalf("add second option: %v", err)
	}
	if second.SortOrder != 1 {
		t.Errorf("second option sort order = %d", second.SortOrder)
	}

	_, err = f.typeService.AddChoiceOption(ctx, nil, textType.ID, "low", types.LocalizedText{"en": "Low"})
	if !watcherr.IsKind(err, watcherr.KindUnsupportedFormat) {
		t.Errorf("text type accepted a choice option: %v", err)
	}

	_, err = f.typeService.AddChoiceOption(ctx, nil, choiceType.ID, "Bad Id", types.LocalizedText{"en": "x"})
	if !watcherr.IsKind(err, watcherr.KindConstraintViolation) {
		t.Errorf("invalid option identifier accepted: %v", err)
	}

	// A gap in the order sequence: the next slot follows the highest
	// existing order, not the option count.
	if _, err := f.typeRepo.CreateChoiceOptions(ctx, nil, []*types.AttributeTypeChoiceOption{
		{TypeID: choiceType.ID, Identifier: "severe", Name: types.LocalizedText{"en": "Severe"}, SortOrder: 5},
	}); err != nil {
		t.Fatalf("create gapped option: %v", err)
	}
	fourth, err := f.typeService.AddChoiceOption(ctx, nil, choiceType.ID, "extreme", types.LocalizedText{"en": "Extreme"})
	if err != nil {
		t.Fatalf("add option after gap: %v", err)
	}
	if fourth.SortOrder != 6 {
		t.Errorf("post-gap option sort order = %d", fourth.SortOrder)
	}

	_, err = f.typeRepo.CreateChoiceOptions(ctx, nil, []*types.AttributeTypeChoiceOption{
		{TypeID: choiceType.ID, Identifier: "dup", Name: types.LocalizedText{"en": "Dup"}, SortOrder: 6},
	})
	if !watcherr.IsKind(err, watcherr.KindConflict) {
		t.Errorf("duplicate option order accepted: %v", err)
	}
}

func TestAttributeTypeReorder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.createActionType(t, "a", types.FormatText, nil)
	b := f.createActionType(t, "b", types.FormatText, nil)
	c := f.createActionType(t, "c", types.FormatText, nil)

	err := f.typeService.Reorder(ctx, types.ObjectKindAction, types.ScopeKindPlan, f.plan.ID, []uuid.UUID{c.ID, a.ID, b.ID})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	listed, err := f.typeService.TypesFor(ctx, types.ObjectKindAction, types.ScopeKindPlan, f.plan.ID)
	if err != nil {
		t.Fatalf("TypesFor: %v", err)
	}
	gotOrder := []string{listed[0].Identifier, listed[1].Identifier, listed[2].Identifier}
	if gotOrder[0] != "c" || gotOrder[1] != "a" || gotOrder[2] != "b" {
		t.Errorf("order after reorder = %v", gotOrder)
	}

	// Short list.
	err = f.typeService.Reorder(ctx, types.ObjectKindAction, types.ScopeKindPlan, f.plan.ID, []uuid.UUID{a.ID, b.ID})
	if !watcherr.IsKind(err, watcherr.KindConstraintViolation) {
		t.Errorf("short reorder list accepted: %v", err)
	}
	// Duplicate entry.
	err = f.typeService.Reorder(ctx, types.ObjectKindAction, types.ScopeKindPlan, f.plan.ID, []uuid.UUID{a.ID, a.ID, b.ID})
	if !watcherr.IsKind(err, watcherr.KindConstraintViolation) {
		t.Errorf("duplicate reorder entry accepted: %v", err)
	}
	// Foreign entry.
	err = f.typeService.Reorder(ctx, types.ObjectKindAction, types.ScopeKindPlan, f.plan.ID, []uuid.UUID{a.ID, b.ID, uuid.New()})
	if !watcherr.IsKind(err, watcherr.KindConstraintViolation) {
		t.Errorf("foreign reorder entry accepted: %v", err)
	}
}

func TestAttributeTypeFrozenAfterReportCompletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	format := types.FormatText
	reportType, err := f.reportService.CreateReportType(ctx, f.plan.ID, "Annual report", []ReportFieldInput{
		{Identifier: "comment", Name: "Progress comment", Kind: types.ReportFieldAttributeType, Format: &format},
	})
	if err != nil {
		t.Fatalf("create report type: %v", err)
	}
	report, err := f.reportService.CreateReport(ctx, reportType.ID, "Annual 2026", "annual_2026", dateAt(2026, 1, 1), dateAt(2026, 12, 31))
	if err != nil {
		t.Fatalf("create report: %v", err)
	}

	materialized, err := f.typeRepo.GetByIdentifier(ctx, nil, types.ObjectKindAction, types.ScopeKindPlan, f.plan.ID, "annual_2026_comment")
	if err != nil {
		t.Fatalf("materialized type missing: %v", err)
	}

	// Before completion structural edits pass.
	materialized.HelpText = types.LocalizedText{"en": "fill me in"}
	if _, err := f.typeService.Update(ctx, materialized); err != nil {
		t.Fatalf("pre-completion update: %v", err)
	}

	if _, err := f.reportService.Complete(ctx, report.ID, nil); err != nil {
		t.Fatalf("complete report: %v", err)
	}

	frozen, err := f.typeRepo.GetByID(ctx, nil, materialized.ID)
	if err != nil {
		t.Fatalf("reload type: %v", err)
	}
	frozen.Identifier = "renamed"
	if _, err := f.typeService.Update(ctx, frozen); !watcherr.IsKind(err, watcherr.KindConflict) {
		t.Errorf("structural edit of frozen type: err = %v, want conflict", err)
	}
	if err := f.typeService.Delete(ctx, materialized.ID); !watcherr.IsKind(err, watcherr.KindConflict) {
		t.Errorf("delete of frozen type: err = %v, want conflict", err)
	}

	// Label edits stay possible.
	relabel, err := f.typeRepo.GetByID(ctx, nil, materialized.ID)
	if err != nil {
		t.Fatalf("reload type: %v", err)
	}
	relabel.Name = types.LocalizedText{"en": "New label"}
	if _, err := f.typeService.Update(ctx, relabel); err != nil {
		t.Errorf("label edit of frozen type rejected: %v", err)
	}
}
