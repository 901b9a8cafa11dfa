package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/planwatch/watch-backend/internal/types"
)

func TestContextForAssemblesBands(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	action := f.createAction(t, "a1")

	plain := f.createUser(t, "plain@example.org", false)
	admin := f.createUser(t, "admin@example.org", false)
	if _, err := f.userRepo.AddPlanAdmin(ctx, nil, f.plan.ID, admin.ID); err != nil {
		t.Fatalf("add plan admin: %v", err)
	}
	moderator := f.createUser(t, "mod@example.org", false)
	if _, err := f.actRepo.CreateContactPersons(ctx, nil, []*types.ActionContactPerson{
		{ActionID: action.ID, UserID: moderator.ID, Role: types.ContactRoleModerator},
	}); err != nil {
		t.Fatalf("add contact person: %v", err)
	}

	// Anonymous.
	pc, err := f.permService.ContextFor(ctx, nil, f.plan.ID, nil)
	if err != nil {
		t.Fatalf("ContextFor anonymous: %v", err)
	}
	if pc.Authenticated || pc.HasAction {
		t.Errorf("anonymous context = %+v", pc)
	}

	// Unknown user id degrades to anonymous.
	unknown := uuid.New()
	pc, err = f.permService.ContextFor(ctx, &unknown, f.plan.ID, nil)
	if err != nil {
		t.Fatalf("ContextFor unknown: %v", err)
	}
	if pc.Authenticated {
		t.Errorf("unknown user authenticated: %+v", pc)
	}

	pc, err = f.permService.ContextFor(ctx, &plain.ID, f.plan.ID, &action.ID)
	if err != nil {
		t.Fatalf("ContextFor plain: %v", err)
	}
	if !pc.Authenticated || pc.PlanAdmin || pc.ContactRole != "" || !pc.HasAction {
		t.Errorf("plain user context = %+v", pc)
	}

	pc, err = f.permService.ContextFor(ctx, &admin.ID, f.plan.ID, nil)
	if err != nil {
		t.Fatalf("ContextFor admin: %v", err)
	}
	if !pc.PlanAdmin {
		t.Errorf("admin context = %+v", pc)
	}

	pc, err = f.permService.ContextFor(ctx, &moderator.ID, f.plan.ID, &action.ID)
	if err != nil {
		t.Fatalf("ContextFor moderator: %v", err)
	}
	if pc.ContactRole != types.ContactRoleModerator {
		t.Errorf("moderator context = %+v", pc)
	}
}
