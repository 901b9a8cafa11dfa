package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/planwatch/watch-backend/internal/logger"
	"github.com/planwatch/watch-backend/internal/repos"
	"github.com/planwatch/watch-backend/internal/types"
	"github.com/planwatch/watch-backend/internal/watcherr"
)

// PermissionService assembles the per-request PermissionContext the
// attribute visibility and editability bands check against.
type PermissionService interface {
	ContextFor(ctx context.Context, userID *uuid.UUID, planID uuid.UUID, actionID *uuid.UUID) (types.PermissionContext, error)
}

type permissionService struct {
	userRepo   repos.UserRepo
	actionRepo repos.ActionRepo
	log        *logger.Logger
}

func NewPermissionService(userRepo repos.UserRepo, actionRepo repos.ActionRepo, baseLog *logger.Logger) PermissionService {
	serviceLog := baseLog.With("service", "PermissionService")
	return &permissionService{userRepo: userRepo, actionRepo: actionRepo, log: serviceLog}
}

func (ps *permissionService) ContextFor(ctx context.Context, userID *uuid.UUID, planID uuid.UUID, actionID *uuid.UUID) (types.PermissionContext, error) {
	pc := types.PermissionContext{HasAction: actionID != nil}

	if userID == nil {
		return pc, nil
	}

	user, err := ps.userRepo.GetByID(ctx, nil, *userID)
	if err != nil {
		if watcherr.IsKind(err, watcherr.KindNotFound) {
			return pc, nil
		}
		return pc, err
	}

	pc.Authenticated = true
	pc.Superuser = user.IsSuperuser

	isAdmin, err := ps.userRepo.IsPlanAdmin(ctx, nil, planID, user.ID)
	if err != nil {
		return pc, err
	}
	pc.PlanAdmin = isAdmin

	if actionID != nil {
		role, ok, err := ps.actionRepo.GetContactRole(ctx, nil, *actionID, user.ID)
		if err != nil {
			return pc, err
		}
		if ok {
			pc.ContactRole = role
		}
	}

	return pc, nil
}
