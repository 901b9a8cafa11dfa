package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/planwatch/watch-backend/internal/types"
	"github.com/planwatch/watch-backend/internal/watcherr"
)

func TestOrderedChoiceLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pc := superuserContext()
	action := f.createAction(t, "a1")
	choiceType := f.createActionType(t, "impact", types.FormatOrderedChoice, nil)

	low, err := f.typeService.AddChoiceOption(ctx, nil, choiceType.ID, "low", types.LocalizedText{"en": "Low"})
	if err != nil {
		t.Fatalf("add option: %v", err)
	}
	high, err := f.typeService.AddChoiceOption(ctx, nil, choiceType.ID, "high", types.LocalizedText{"en": "High"})
	if err != nil {
		t.Fatalf("add option: %v", err)
	}

	set := func(choiceID *uuid.UUID) error {
		return f.attrService.Set(ctx, nil, pc, choiceType.ID, types.ObjectKindAction, action.ID, types.AttributeValue{
			Format:   types.FormatOrderedChoice,
			ChoiceID: choiceID,
		})
	}

	if err := set(&low.ID); err != nil {
		t.Fatalf("set low: %v", err)
	}
	got, err := f.attrService.Get(ctx, choiceType.ID, types.ObjectKindAction, action.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.ChoiceID == nil || *got.ChoiceID != low.ID {
		t.Fatalf("got %v, want choice %s", got, low.ID)
	}

	// Overwrite keeps one row per (type, object).
	if err := set(&high.ID); err != nil {
		t.Fatalf("set high: %v", err)
	}
	got, err = f.attrService.Get(ctx, choiceType.ID, types.ObjectKindAction, action.ID)
	if err != nil {
		t.Fatalf("get after overwrite: %v", err)
	}
	if got == nil || *got.ChoiceID != high.ID {
		t.Fatalf("overwrite did not stick: %v", got)
	}

	// Setting the empty value deletes the row.
	if err := set(nil); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, err = f.attrService.Get(ctx, choiceType.ID, types.ObjectKindAction, action.ID)
	if err != nil {
		t.Fatalf("get after clear: %v", err)
	}
	if got != nil {
		t.Errorf("value survived clear: %v", got)
	}

	// Clearing twice stays fine.
	if err := set(nil); err != nil {
		t.Errorf("second clear errored: %v", err)
	}
}

func TestSetRejectsForeignChoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pc := superuserContext()
	action := f.createAction(t, "a1")
	typeA := f.createActionType(t, "impact", types.FormatOrderedChoice, nil)
	typeB := f.createActionType(t, "cost", types.FormatOrderedChoice, nil)

	foreign, err := f.typeService.AddChoiceOption(ctx, nil, typeB.ID, "cheap", types.LocalizedText{"en": "Cheap"})
	if err != nil {
		t.Fatalf("add option: %v", err)
	}

	err = f.attrService.Set(ctx, nil, pc, typeA.ID, types.ObjectKindAction, action.ID, types.AttributeValue{
		Format:   types.FormatOrderedChoice,
		ChoiceID: &foreign.ID,
	})
	if !watcherr.IsKind(err, watcherr.KindConstraintViolation) {
		t.Errorf("foreign choice accepted: %v", err)
	}
}

func TestSetFormatMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pc := superuserContext()
	action := f.createAction(t, "a1")
	textType := f.createActionType(t, "comment", types.FormatText, nil)

	number := 5.0
	err := f.attrService.Set(ctx, nil, pc, textType.ID, types.ObjectKindAction, action.ID, types.AttributeValue{
		Format: types.FormatNumeric,
		Number: &number,
	})
	if !watcherr.IsKind(err, watcherr.KindUnsupportedFormat) {
		t.Errorf("format mismatch accepted: %v", err)
	}
}

func TestSetPermissionBand(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	action := f.createAction(t, "a1")
	adminOnly := f.createActionType(t, "internal_note", types.FormatText, func(in *CreateAttributeTypeInput) {
		in.InstancesEditableBy = types.EditableByPlanAdmins
	})

	value := types.AttributeValue{Format: types.FormatText, Text: types.LocalizedText{"en": "secret"}}

	authenticated := types.PermissionContext{Authenticated: true, HasAction: true}
	err := f.attrService.Set(ctx, nil, authenticated, adminOnly.ID, types.ObjectKindAction, action.ID, value)
	if !watcherr.IsKind(err, watcherr.KindPermissionDenied) {
		t.Errorf("plain user wrote admin-only attribute: %v", err)
	}

	admin := types.PermissionContext{Authenticated: true, PlanAdmin: true, HasAction: true}
	if err := f.attrService.Set(ctx, nil, admin, adminOnly.ID, types.ObjectKindAction, action.ID, value); err != nil {
		t.Errorf("plan admin rejected: %v", err)
	}
}

func TestTextMaxLengthAndTrim(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pc := superuserContext()
	action := f.createAction(t, "a1")
	maxLength := 5
	textType := f.createActionType(t, "comment", types.FormatText, func(in *CreateAttributeTypeInput) {
		in.MaxLength = &maxLength
	})

	err := f.attrService.Set(ctx, nil, pc, textType.ID, types.ObjectKindAction, action.ID, types.AttributeValue{
		Format: types.FormatText,
		Text:   types.LocalizedText{"en": "much too long"},
	})
	if !watcherr.IsKind(err, watcherr.KindConstraintViolation) {
		t.Errorf("overlong text accepted: %v", err)
	}

	// Empty per-language strings are dropped on write.
	err = f.attrService.Set(ctx, nil, pc, textType.ID, types.ObjectKindAction, action.ID, types.AttributeValue{
		Format: types.FormatText,
		Text:   types.LocalizedText{"en": "ok", "fi": ""},
	})
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := f.attrService.Get(ctx, textType.ID, types.ObjectKindAction, action.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, ok := got.Text["fi"]; ok {
		t.Errorf("empty language kept: %v", got.Text)
	}
	if got.Text["en"] != "ok" {
		t.Errorf("text = %v", got.Text)
	}
}

func TestOptionalChoiceWithTextHalves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pc := superuserContext()
	action := f.createAction(t, "a1")
	optType := f.createActionType(t, "assessment", types.FormatOptionalChoiceWithText, nil)
	yes, err := f.typeService.AddChoiceOption(ctx, nil, optType.ID, "yes", types.LocalizedText{"en": "Yes"})
	if err != nil {
		t.Fatalf("add option: %v", err)
	}

	// Text only.
	err = f.attrService.Set(ctx, nil, pc, optType.ID, types.ObjectKindAction, action.ID, types.AttributeValue{
		Format: types.FormatOptionalChoiceWithText,
		Text:   types.LocalizedText{"en": "explanation", "fi": "selitys"},
	})
	if err != nil {
		t.Fatalf("set text only: %v", err)
	}
	got, err := f.attrService.Get(ctx, optType.ID, types.ObjectKindAction, action.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ChoiceID != nil || got.Text["fi"] != "selitys" {
		t.Errorf("text-only value = %+v", got)
	}

	// Choice plus text.
	err = f.attrService.Set(ctx, nil, pc, optType.ID, types.ObjectKindAction, action.ID, types.AttributeValue{
		Format:   types.FormatOptionalChoiceWithText,
		ChoiceID: &yes.ID,
		Text:     types.LocalizedText{"en": "confirmed"},
	})
	if err != nil {
		t.Fatalf("set both halves: %v", err)
	}
	got, err = f.attrService.Get(ctx, optType.ID, types.ObjectKindAction, action.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ChoiceID == nil || *got.ChoiceID != yes.ID || got.Text["en"] != "confirmed" {
		t.Errorf("combined value = %+v", got)
	}

	// Both halves empty means delete.
	err = f.attrService.Set(ctx, nil, pc, optType.ID, types.ObjectKindAction, action.ID, types.AttributeValue{
		Format: types.FormatOptionalChoiceWithText,
	})
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, err = f.attrService.Get(ctx, optType.ID, types.ObjectKindAction, action.ID)
	if err != nil {
		t.Fatalf("get after clear: %v", err)
	}
	if got != nil {
		t.Errorf("value survived clear: %+v", got)
	}
}

func TestCategoryChoiceMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pc := superuserContext()
	action := f.createAction(t, "a1")

	themes := f.createCategoryType(t, "themes")
	other := f.createCategoryType(t, "sectors")
	theme, err := f.catService.Create(ctx, CreateCategoryInput{TypeID: themes.ID, Identifier: "c1", Name: "Mobility"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	stranger, err := f.catService.Create(ctx, CreateCategoryInput{TypeID: other.ID, Identifier: "s1", Name: "Energy"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	catType := f.createActionType(t, "theme_links", types.FormatCategoryChoice, func(in *CreateAttributeTypeInput) {
		in.AttributeCategoryTypeID = &themes.ID
	})

	err = f.attrService.Set(ctx, nil, pc, catType.ID, types.ObjectKindAction, action.ID, types.AttributeValue{
		Format:      types.FormatCategoryChoice,
		CategoryIDs: []uuid.UUID{stranger.ID},
	})
	if !watcherr.IsKind(err, watcherr.KindConstraintViolation) {
		t.Errorf("category of wrong type accepted: %v", err)
	}

	err = f.attrService.Set(ctx, nil, pc, catType.ID, types.ObjectKindAction, action.ID, types.AttributeValue{
		Format:      types.FormatCategoryChoice,
		CategoryIDs: []uuid.UUID{theme.ID, uuid.New()},
	})
	if !watcherr.IsKind(err, watcherr.KindNotFound) {
		t.Errorf("unknown category accepted: %v", err)
	}

	err = f.attrService.Set(ctx, nil, pc, catType.ID, types.ObjectKindAction, action.ID, types.AttributeValue{
		Format:      types.FormatCategoryChoice,
		CategoryIDs: []uuid.UUID{theme.ID},
	})
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := f.attrService.Get(ctx, catType.ID, types.ObjectKindAction, action.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.CategoryIDs) != 1 || got.CategoryIDs[0] != theme.ID {
		t.Errorf("category ids = %v", got.CategoryIDs)
	}
}

func TestGetAllOrderingAndVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pc := superuserContext()
	action := f.createAction(t, "a1")

	public := f.createActionType(t, "public_note", types.FormatText, nil)
	hidden := f.createActionType(t, "admin_note", types.FormatText, func(in *CreateAttributeTypeInput) {
		in.InstancesVisibleFor = types.VisibleForPlanAdmins
	})
	number := f.createActionType(t, "budget", types.FormatNumeric, func(in *CreateAttributeTypeInput) {
		unit := f.createUnit(t, "eur")
		in.UnitID = &unit.ID
	})

	if err := f.attrService.Set(ctx, nil, pc, public.ID, types.ObjectKindAction, action.ID, types.AttributeValue{
		Format: types.FormatText, Text: types.LocalizedText{"en": "visible"},
	}); err != nil {
		t.Fatalf("set text: %v", err)
	}
	amount := 12000.0
	if err := f.attrService.Set(ctx, nil, pc, number.ID, types.ObjectKindAction, action.ID, types.AttributeValue{
		Format: types.FormatNumeric, Number: &amount,
	}); err != nil {
		t.Fatalf("set numeric: %v", err)
	}

	// Anonymous caller: the admin-only type disappears entirely.
	anon := types.PermissionContext{}
	values, err := f.attrService.GetAll(ctx, &anon, types.ObjectKindAction, action.ID, types.ScopeKindPlan, f.plan.ID)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(values) != 2 {
		t.Fatalf("anon sees %d types, want 2", len(values))
	}
	if values[0].Type.Identifier != "public_note" || values[1].Type.Identifier != "budget" {
		t.Errorf("order = %s, %s", values[0].Type.Identifier, values[1].Type.Identifier)
	}
	if values[0].Value == nil || values[0].Value.Format != types.FormatText {
		t.Errorf("text value missing format: %+v", values[0].Value)
	}
	if values[1].Value == nil || values[1].Value.Number == nil || *values[1].Value.Number != amount {
		t.Errorf("numeric value = %+v", values[1].Value)
	}

	// Superuser sees everything, valueless types included.
	all, err := f.attrService.GetAll(ctx, &pc, types.ObjectKindAction, action.ID, types.ScopeKindPlan, f.plan.ID)
	if err != nil {
		t.Fatalf("GetAll superuser: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("superuser sees %d types, want 3", len(all))
	}
	for _, tv := range all {
		if tv.Type.ID == hidden.ID && tv.Value != nil {
			t.Errorf("admin-only type has unexpected value: %+v", tv.Value)
		}
	}
}

func TestSerializeLayout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pc := superuserContext()
	action := f.createAction(t, "a1")

	textType := f.createActionType(t, "comment", types.FormatText, nil)
	if err := f.attrService.Set(ctx, nil, pc, textType.ID, types.ObjectKindAction, action.ID, types.AttributeValue{
		Format: types.FormatText, Text: types.LocalizedText{"en": "hello", "fi": "hei"},
	}); err != nil {
		t.Fatalf("set: %v", err)
	}

	serialized, err := f.attrService.Serialize(ctx, types.ObjectKindAction, action.ID, types.ScopeKindPlan, f.plan.ID)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	entry, ok := serialized.Text[textType.ID.String()]
	if !ok {
		t.Fatalf("text entry missing, got %+v", serialized.Text)
	}
	if entry["text"] != "hello" || entry["text_fi"] != "hei" {
		t.Errorf("serialized text = %v", entry)
	}
	if len(serialized.Numeric) != 0 {
		t.Errorf("valueless formats should be empty, numeric = %v", serialized.Numeric)
	}
}
