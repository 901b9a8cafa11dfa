package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/planwatch/watch-backend/internal/logger"
	"github.com/planwatch/watch-backend/internal/types"
)

type ActionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, actions []*types.Action) ([]*types.Action, error)
	GetByID(ctx context.Context, tx *gorm.DB, actionID uuid.UUID) (*types.Action, error)
	GetByIdentifier(ctx context.Context, tx *gorm.DB, planID uuid.UUID, identifier string) (*types.Action, error)
	ListByPlan(ctx context.Context, tx *gorm.DB, planID uuid.UUID) ([]*types.Action, error)
	Update(ctx context.Context, tx *gorm.DB, action *types.Action) (*types.Action, error)
	UpdateColumns(ctx context.Context, tx *gorm.DB, actionID uuid.UUID, columns map[string]interface{}) error
	CreateTasks(ctx context.Context, tx *gorm.DB, tasks []*types.ActionTask) ([]*types.ActionTask, error)
	UpdateTask(ctx context.Context, tx *gorm.DB, task *types.ActionTask) (*types.ActionTask, error)
	ListTasks(ctx context.Context, tx *gorm.DB, actionID uuid.UUID) ([]*types.ActionTask, error)
	CreateResponsibleParties(ctx context.Context, tx *gorm.DB, parties []*types.ActionResponsibleParty) ([]*types.ActionResponsibleParty, error)
	ListResponsibleParties(ctx context.Context, tx *gorm.DB, actionID uuid.UUID) ([]*types.ActionResponsibleParty, error)
	CreateContactPersons(ctx context.Context, tx *gorm.DB, contacts []*types.ActionContactPerson) ([]*types.ActionContactPerson, error)
	ListContactPersons(ctx context.Context, tx *gorm.DB, actionID uuid.UUID) ([]*types.ActionContactPerson, error)
	GetContactRole(ctx context.Context, tx *gorm.DB, actionID, userID uuid.UUID) (types.ContactRole, bool, error)
	CreateLinks(ctx context.Context, tx *gorm.DB, links []*types.ActionLink) ([]*types.ActionLink, error)
	ListLinks(ctx context.Context, tx *gorm.DB, actionID uuid.UUID) ([]*types.ActionLink, error)
	CreateOrganizations(ctx context.Context, tx *gorm.DB, orgs []*types.Organization) ([]*types.Organization, error)
	AddToCategories(ctx context.Context, tx *gorm.DB, actionID uuid.UUID, categoryIDs []uuid.UUID) error
	ListCategories(ctx context.Context, tx *gorm.DB, actionID uuid.UUID) ([]*types.ActionCategory, error)
}

type actionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActionRepo(db *gorm.DB, baseLog *logger.Logger) ActionRepo {
	repoLog := baseLog.With("repo", "ActionRepo")
	return &actionRepo{db: db, log: repoLog}
}

func (ar *actionRepo) Create(ctx context.Context, tx *gorm.DB, actions []*types.Action) ([]*types.Action, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	if len(actions) == 0 {
		return []*types.Action{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&actions).Error; err != nil {
		return nil, translateDBError(err, "create actions")
	}
	return actions, nil
}

func (ar *actionRepo) GetByID(ctx context.Context, tx *gorm.DB, actionID uuid.UUID) (*types.Action, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var result types.Action
	if err := transaction.WithContext(ctx).
		Preload("Status").
		Preload("ImplementationPhase").
		Where("id = ?", actionID).
		First(&result).Error; err != nil {
		return nil, translateDBError(err, "get action")
	}
	return &result, nil
}

func (ar *actionRepo) GetByIdentifier(ctx context.Context, tx *gorm.DB, planID uuid.UUID, identifier string) (*types.Action, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var result types.Action
	if err := transaction.WithContext(ctx).
		Preload("Status").
		Preload("ImplementationPhase").
		Where("plan_id = ? AND identifier = ?", planID, identifier).
		First(&result).Error; err != nil {
		return nil, translateDBError(err, "get action by identifier")
	}
	return &result, nil
}

func (ar *actionRepo) ListByPlan(ctx context.Context, tx *gorm.DB, planID uuid.UUID) ([]*types.Action, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var results []*types.Action
	if err := transaction.WithContext(ctx).
		Preload("Status").
		Preload("ImplementationPhase").
		Where("plan_id = ?", planID).
		Order("sort_order ASC, identifier ASC").
		Find(&results).Error; err != nil {
		return nil, translateDBError(err, "list actions")
	}
	return results, nil
}

func (ar *actionRepo) Update(ctx context.Context, tx *gorm.DB, action *types.Action) (*types.Action, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	if err := transaction.WithContext(ctx).
		Omit("Tasks", "ResponsibleParties", "ContactPersons", "Links").
		Save(action).Error; err != nil {
		return nil, translateDBError(err, "update action")
	}
	return action, nil
}

// UpdateColumns writes the given columns without touching updated_at unless
// the caller includes it; status derivation controls that timestamp itself.
func (ar *actionRepo) UpdateColumns(ctx context.Context, tx *gorm.DB, actionID uuid.UUID, columns map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	if len(columns) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Model(&types.Action{}).
		Where("id = ?", actionID).
		UpdateColumns(columns).Error; err != nil {
		return translateDBError(err, "update action columns")
	}
	return nil
}

func (ar *actionRepo) CreateTasks(ctx context.Context, tx *gorm.DB, tasks []*types.ActionTask) ([]*types.ActionTask, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	if len(tasks) == 0 {
		return []*types.ActionTask{}, nil
	}

	for _, task := range tasks {
		if err := validateTaskState(task); err != nil {
			return nil, err
		}
	}

	if err := transaction.WithContext(ctx).Create(&tasks).Error; err != nil {
		return nil, translateDBError(err, "create tasks")
	}
	return tasks, nil
}

func (ar *actionRepo) UpdateTask(ctx context.Context, tx *gorm.DB, task *types.ActionTask) (*types.ActionTask, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	if err := validateTaskState(task); err != nil {
		return nil, err
	}

	if err := transaction.WithContext(ctx).Save(task).Error; err != nil {
		return nil, translateDBError(err, "update task")
	}
	return task, nil
}

func (ar *actionRepo) ListTasks(ctx context.Context, tx *gorm.DB, actionID uuid.UUID) ([]*types.ActionTask, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var results []*types.ActionTask
	if err := transaction.WithContext(ctx).
		Where("action_id = ?", actionID).
		Order("due_at ASC, sort_order ASC").
		Find(&results).Error; err != nil {
		return nil, translateDBError(err, "list tasks")
	}
	return results, nil
}

func (ar *actionRepo) CreateResponsibleParties(ctx context.Context, tx *gorm.DB, parties []*types.ActionResponsibleParty) ([]*types.ActionResponsibleParty, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	if len(parties) == 0 {
		return []*types.ActionResponsibleParty{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&parties).Error; err != nil {
		return nil, translateDBError(err, "create responsible parties")
	}
	return parties, nil
}

func (ar *actionRepo) ListResponsibleParties(ctx context.Context, tx *gorm.DB, actionID uuid.UUID) ([]*types.ActionResponsibleParty, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var results []*types.ActionResponsibleParty
	if err := transaction.WithContext(ctx).
		Preload("Organization").
		Where("action_id = ?", actionID).
		Order("sort_order ASC").
		Find(&results).Error; err != nil {
		return nil, translateDBError(err, "list responsible parties")
	}
	return results, nil
}

func (ar *actionRepo) CreateContactPersons(ctx context.Context, tx *gorm.DB, contacts []*types.ActionContactPerson) ([]*types.ActionContactPerson, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	if len(contacts) == 0 {
		return []*types.ActionContactPerson{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&contacts).Error; err != nil {
		return nil, translateDBError(err, "create contact persons")
	}
	return contacts, nil
}

func (ar *actionRepo) ListContactPersons(ctx context.Context, tx *gorm.DB, actionID uuid.UUID) ([]*types.ActionContactPerson, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var results []*types.ActionContactPerson
	if err := transaction.WithContext(ctx).
		Preload("User").
		Where("action_id = ?", actionID).
		Order("sort_order ASC").
		Find(&results).Error; err != nil {
		return nil, translateDBError(err, "list contact persons")
	}
	return results, nil
}

func (ar *actionRepo) GetContactRole(ctx context.Context, tx *gorm.DB, actionID, userID uuid.UUID) (types.ContactRole, bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var contact types.ActionContactPerson
	err := transaction.WithContext(ctx).
		Where("action_id = ? AND user_id = ?", actionID, userID).
		First(&contact).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, translateDBError(err, "get contact role")
	}
	return contact.Role, true, nil
}

func (ar *actionRepo) CreateLinks(ctx context.Context, tx *gorm.DB, links []*types.ActionLink) ([]*types.ActionLink, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	if len(links) == 0 {
		return []*types.ActionLink{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&links).Error; err != nil {
		return nil, translateDBError(err, "create links")
	}
	return links, nil
}

func (ar *actionRepo) ListLinks(ctx context.Context, tx *gorm.DB, actionID uuid.UUID) ([]*types.ActionLink, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var results []*types.ActionLink
	if err := transaction.WithContext(ctx).
		Where("action_id = ?", actionID).
		Order("sort_order ASC").
		Find(&results).Error; err != nil {
		return nil, translateDBError(err, "list links")
	}
	return results, nil
}

func (ar *actionRepo) CreateOrganizations(ctx context.Context, tx *gorm.DB, orgs []*types.Organization) ([]*types.Organization, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	if len(orgs) == 0 {
		return []*types.Organization{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&orgs).Error; err != nil {
		return nil, translateDBError(err, "create organizations")
	}
	return orgs, nil
}

func (ar *actionRepo) AddToCategories(ctx context.Context, tx *gorm.DB, actionID uuid.UUID, categoryIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	if len(categoryIDs) == 0 {
		return nil
	}

	rows := make([]*types.ActionCategory, 0, len(categoryIDs))
	for _, categoryID := range categoryIDs {
		rows = append(rows, &types.ActionCategory{ActionID: actionID, CategoryID: categoryID})
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return translateDBError(err, "add action to categories")
	}
	return nil
}

func (ar *actionRepo) ListCategories(ctx context.Context, tx *gorm.DB, actionID uuid.UUID) ([]*types.ActionCategory, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var results []*types.ActionCategory
	if err := transaction.WithContext(ctx).
		Preload("Category").
		Where("action_id = ?", actionID).
		Find(&results).Error; err != nil {
		return nil, translateDBError(err, "list action categories")
	}
	return results, nil
}

// validateTaskState enforces the task integrity rule: completed state and
// completed_at must agree, and completions cannot lie in the future.
func validateTaskState(task *types.ActionTask) error {
	completed := task.State == types.TaskCompleted
	hasDate := task.CompletedAt != nil
	if completed != hasDate {
		return errTaskStateMismatch
	}
	if hasDate && task.CompletedAt.After(time.Now()) {
		return errTaskCompletedInFuture
	}
	return nil
}
