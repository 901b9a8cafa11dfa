package services

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/planwatch/watch-backend/internal/cache"
	"github.com/planwatch/watch-backend/internal/logger"
	"github.com/planwatch/watch-backend/internal/repos"
	"github.com/planwatch/watch-backend/internal/types"
	"github.com/planwatch/watch-backend/internal/watcherr"
)

// SummaryResult is a derived status summary with its per-plan label
// resolved.
type SummaryResult struct {
	Summary   types.ActionStatusSummary `json:"summary"`
	Label     string                    `json:"label"`
	Color     string                    `json:"color"`
	Sentiment types.Sentiment           `json:"sentiment"`
}

// TimelinessResult is a derived timeliness classification with its label.
type TimelinessResult struct {
	Timeliness types.ActionTimeliness `json:"timeliness"`
	Label      string                 `json:"label"`
	Color      string                 `json:"color"`
	Sentiment  types.Sentiment        `json:"sentiment"`
}

// StatusService maintains Action.status, Action.completion and
// Action.updated_at, and derives the summary and timeliness
// classifications read paths use.
type StatusService interface {
	RecalculateStatus(ctx context.Context, actionID uuid.UUID, forceUpdate bool) error
	Summary(ctx context.Context, actionID uuid.UUID, lang string) (SummaryResult, error)
	Timeliness(ctx context.Context, actionID uuid.UUID) (TimelinessResult, error)
}

type statusService struct {
	db       *gorm.DB
	actRepo  repos.ActionRepo
	indRepo  repos.IndicatorRepo
	planRepo repos.PlanRepo
	log      *logger.Logger

	// now is swappable for tests.
	now func() time.Time
}

func NewStatusService(db *gorm.DB, actRepo repos.ActionRepo, indRepo repos.IndicatorRepo, planRepo repos.PlanRepo, baseLog *logger.Logger) StatusService {
	serviceLog := baseLog.With("service", "StatusService")
	return &statusService{
		db:       db,
		actRepo:  actRepo,
		indRepo:  indRepo,
		planRepo: planRepo,
		log:      serviceLog,
		now:      time.Now,
	}
}

// lookupCache returns the request-scoped cache when the middleware installed
// one, or a fresh cache bounded to this call.
func (ss *statusService) lookupCache(ctx context.Context) *cache.WatchObjectCache {
	if c, ok := cache.FromContext(ctx); ok {
		return c
	}
	return cache.NewWatchObjectCache(ss.planRepo, ss.log)
}

// indicatorDerivation is the outcome of the indicator completion pass.
type indicatorDerivation struct {
	completion *int
	isLate     bool
}

func (ss *statusService) RecalculateStatus(ctx context.Context, actionID uuid.UUID, forceUpdate bool) error {
	return ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		action, err := ss.actRepo.GetByID(ctx, tx, actionID)
		if err != nil {
			return err
		}
		plan, err := ss.lookupCache(ctx).Plan(ctx, action.PlanID)
		if err != nil {
			return err
		}

		// Merged actions and actions in a completed status are terminal:
		// the only adjustment is pinning completion to 100 for the
		// canonical "completed" status.
		if action.IsMerged() || (action.Status != nil && action.Status.IsCompleted) {
			if action.Status != nil && action.Status.IsCompleted && action.Status.Identifier == "completed" {
				if action.Completion == nil || *action.Completion != 100 {
					full := 100
					return ss.actRepo.UpdateColumns(ctx, tx, action.ID, map[string]interface{}{
						"completion": full,
						"updated_at": ss.now(),
					})
				}
			}
			return nil
		}

		derived, err := ss.deriveFromIndicators(ctx, tx, action.ID)
		if err != nil {
			return err
		}

		tasks, err := ss.actRepo.ListTasks(ctx, tx, action.ID)
		if err != nil {
			return err
		}
		// Plans without progress indicators fall back to the share of
		// completed tasks.
		if derived.completion == nil {
			derived.completion = completionFromTasks(tasks)
		}

		if completionChanged(action.Completion, derived.completion) || forceUpdate {
			columns := map[string]interface{}{"updated_at": ss.now()}
			if derived.completion != nil {
				columns["completion"] = *derived.completion
			} else {
				columns["completion"] = nil
			}
			if err := ss.actRepo.UpdateColumns(ctx, tx, action.ID, columns); err != nil {
				return err
			}
		}

		if plan.StatusesUpdatedManually || action.ManualStatus {
			return nil
		}

		target := ss.statusFromTasks(tasks, derived.isLate)

		currentIdentifier := ""
		if action.Status != nil {
			currentIdentifier = action.Status.Identifier
		}
		if target == currentIdentifier {
			return nil
		}

		status, err := ss.planRepo.GetStatusByIdentifier(ctx, tx, plan.ID, target)
		if err != nil {
			if watcherr.IsKind(err, watcherr.KindNotFound) {
				ss.log.Warn("plan lacks action status for automatic transition", "plan", plan.Identifier, "status", target)
				return nil
			}
			return err
		}

		return ss.actRepo.UpdateColumns(ctx, tx, action.ID, map[string]interface{}{
			"status_id":  status.ID,
			"updated_at": ss.now(),
		})
	})
}

// statusFromTasks runs the automatic state machine over the action's tasks.
func (ss *statusService) statusFromTasks(tasks []*types.ActionTask, indicatorLate bool) string {
	today := ss.now()
	anyLate := false
	anyCompleted := false
	for _, task := range tasks {
		if task.State == types.TaskCancelled {
			continue
		}
		if task.IsLate(today) {
			anyLate = true
		}
		if task.State == types.TaskCompleted {
			anyCompleted = true
		}
	}
	if anyLate || indicatorLate {
		return "late"
	}
	if anyCompleted {
		return "on_time"
	}
	return "not_started"
}

// deriveFromIndicators averages each progress indicator's travel from its
// baseline toward its latest goal, and flags lateness against the closest
// goal already due.
func (ss *statusService) deriveFromIndicators(ctx context.Context, tx *gorm.DB, actionID uuid.UUID) (indicatorDerivation, error) {
	links, err := ss.indRepo.ListForAction(ctx, tx, actionID)
	if err != nil {
		return indicatorDerivation{}, err
	}

	now := ss.now()
	var contributions []float64
	isLate := false

	for _, link := range links {
		if !link.IndicatesActionProgress || link.Indicator == nil {
			continue
		}
		indicator := link.Indicator
		if len(indicator.Values) == 0 || len(indicator.Goals) == 0 {
			continue
		}

		baseline := indicator.Values[0].Value
		latest := indicator.Values[len(indicator.Values)-1].Value
		goal := indicator.Goals[len(indicator.Goals)-1].Value

		if goal != baseline {
			contributions = append(contributions, (latest-baseline)/(goal-baseline))
		}

		// Closest goal with a due date in the past; direction comes from
		// where the goal sits relative to the baseline.
		var priorGoal *types.IndicatorGoal
		for i := range indicator.Goals {
			if indicator.Goals[i].Date.After(now) {
				break
			}
			priorGoal = &indicator.Goals[i]
		}
		if priorGoal != nil {
			increasing := goal >= baseline
			if increasing && latest < priorGoal.Value {
				isLate = true
			}
			if !increasing && latest > priorGoal.Value {
				isLate = true
			}
		}
	}

	if len(contributions) == 0 {
		return indicatorDerivation{completion: nil, isLate: isLate}, nil
	}

	sum := 0.0
	for _, c := range contributions {
		sum += c
	}
	completion := int(math.Round(100 * sum / float64(len(contributions))))
	return indicatorDerivation{completion: &completion, isLate: isLate}, nil
}

// completionFromTasks is the fallback completion measure: the share of
// completed tasks among non-cancelled ones. Nil when there is nothing to
// measure.
func completionFromTasks(tasks []*types.ActionTask) *int {
	total := 0
	completed := 0
	for _, task := range tasks {
		if task.State == types.TaskCancelled {
			continue
		}
		total++
		if task.State == types.TaskCompleted {
			completed++
		}
	}
	if total == 0 {
		return nil
	}
	completion := int(math.Round(100 * float64(completed) / float64(total)))
	return &completion
}

func completionChanged(current, derived *int) bool {
	if current == nil || derived == nil {
		return current != derived
	}
	return *current != *derived
}

func (ss *statusService) Summary(ctx context.Context, actionID uuid.UUID, lang string) (SummaryResult, error) {
	action, err := ss.actRepo.GetByID(ctx, nil, actionID)
	if err != nil {
		return SummaryResult{}, err
	}
	statuses, err := ss.lookupCache(ctx).Statuses(ctx, action.PlanID)
	if err != nil {
		return SummaryResult{}, err
	}

	summary := types.SummaryForAction(action)
	flat := make([]types.ActionStatus, 0, len(statuses))
	for _, status := range statuses {
		flat = append(flat, *status)
	}
	return SummaryResult{
		Summary:   summary,
		Label:     summary.Label(flat, lang),
		Color:     summary.Color(),
		Sentiment: summary.Sentiment(),
	}, nil
}

func (ss *statusService) Timeliness(ctx context.Context, actionID uuid.UUID) (TimelinessResult, error) {
	action, err := ss.actRepo.GetByID(ctx, nil, actionID)
	if err != nil {
		return TimelinessResult{}, err
	}
	plan, err := ss.lookupCache(ctx).Plan(ctx, action.PlanID)
	if err != nil {
		return TimelinessResult{}, err
	}

	timeliness := types.TimelinessForAction(action, plan, ss.now())
	return TimelinessResult{
		Timeliness: timeliness,
		Label:      timeliness.Label(plan),
		Color:      timeliness.Color(),
		Sentiment:  timeliness.Sentiment(),
	}, nil
}
