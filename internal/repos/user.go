package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/planwatch/watch-backend/internal/logger"
	"github.com/planwatch/watch-backend/internal/types"
)

type UserRepo interface {
	Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error)
	GetByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error)
	AddPlanAdmin(ctx context.Context, tx *gorm.DB, planID, userID uuid.UUID) (*types.PlanAdmin, error)
	IsPlanAdmin(ctx context.Context, tx *gorm.DB, planID, userID uuid.UUID) (bool, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	if len(users) == 0 {
		return []*types.User{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&users).Error; err != nil {
		return nil, translateDBError(err, "create users")
	}
	return users, nil
}

func (ur *userRepo) GetByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	var result types.User
	if err := transaction.WithContext(ctx).
		Where("id = ?", userID).
		First(&result).Error; err != nil {
		return nil, translateDBError(err, "get user")
	}
	return &result, nil
}

func (ur *userRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	var result types.User
	if err := transaction.WithContext(ctx).
		Where("email = ?", email).
		First(&result).Error; err != nil {
		return nil, translateDBError(err, "get user by email")
	}
	return &result, nil
}

func (ur *userRepo) AddPlanAdmin(ctx context.Context, tx *gorm.DB, planID, userID uuid.UUID) (*types.PlanAdmin, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	admin := &types.PlanAdmin{PlanID: planID, UserID: userID}
	if err := transaction.WithContext(ctx).Create(admin).Error; err != nil {
		return nil, translateDBError(err, "add plan admin")
	}
	return admin, nil
}

func (ur *userRepo) IsPlanAdmin(ctx context.Context, tx *gorm.DB, planID, userID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	var admin types.PlanAdmin
	err := transaction.WithContext(ctx).
		Where("plan_id = ? AND user_id = ?", planID, userID).
		First(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, translateDBError(err, "check plan admin")
	}
	return true, nil
}
