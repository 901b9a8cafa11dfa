package services

import (
	"context"
	"testing"
	"time"

	"github.com/planwatch/watch-backend/internal/cache"
	"github.com/planwatch/watch-backend/internal/logger"
	"github.com/planwatch/watch-backend/internal/types"
)

func (f *fixture) freezeClock(t *testing.T, at time.Time) {
	t.Helper()
	f.statusService.(*statusService).now = func() time.Time { return at }
}

func (f *fixture) reloadAction(t *testing.T, action *types.Action) *types.Action {
	t.Helper()
	reloaded, err := f.actRepo.GetByID(context.Background(), nil, action.ID)
	if err != nil {
		t.Fatalf("reload action: %v", err)
	}
	return reloaded
}

func TestRecalculateStatusFromTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	today := dateAt(2026, 6, 15)
	f.freezeClock(t, today)

	pastDue := dateAt(2026, 5, 1)
	futureDue := dateAt(2026, 9, 1)
	doneAt := dateAt(2026, 4, 1)

	cases := []struct {
		name       string
		tasks      []*types.ActionTask
		wantStatus string
	}{
		{
			"no tasks",
			nil,
			"not_started",
		},
		{
			"completed task on time",
			[]*types.ActionTask{
				{Name: "t1", State: types.TaskCompleted, DueAt: &futureDue, CompletedAt: &doneAt},
			},
			"on_time",
		},
		{
			"overdue task",
			[]*types.ActionTask{
				{Name: "t1", State: types.TaskCompleted, DueAt: &futureDue, CompletedAt: &doneAt},
				{Name: "t2", State: types.TaskInProgress, DueAt: &pastDue},
			},
			"late",
		},
		{
			"cancelled overdue task is ignored",
			[]*types.ActionTask{
				{Name: "t1", State: types.TaskCancelled, DueAt: &pastDue},
			},
			"not_started",
		},
	}
	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			action := f.createAction(t, string(rune('a'+i)))
			for _, task := range tc.tasks {
				task.ActionID = action.ID
			}
			if _, err := f.actRepo.CreateTasks(ctx, nil, tc.tasks); err != nil {
				t.Fatalf("create tasks: %v", err)
			}
			if err := f.statusService.RecalculateStatus(ctx, action.ID, false); err != nil {
				t.Fatalf("recalculate: %v", err)
			}
			reloaded := f.reloadAction(t, action)
			if reloaded.Status == nil || reloaded.Status.Identifier != tc.wantStatus {
				t.Errorf("status = %v, want %s", reloaded.Status, tc.wantStatus)
			}
		})
	}
}

func TestCompletionFallsBackToTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	today := dateAt(2026, 6, 15)
	f.freezeClock(t, today)

	action := f.createAction(t, "a1")
	doneAt := dateAt(2026, 3, 1)
	futureDue := dateAt(2026, 9, 1)
	if _, err := f.actRepo.CreateTasks(ctx, nil, []*types.ActionTask{
		{ActionID: action.ID, Name: "t1", State: types.TaskCompleted, DueAt: &futureDue, CompletedAt: &doneAt},
		{ActionID: action.ID, Name: "t2", State: types.TaskInProgress, DueAt: &futureDue},
		{ActionID: action.ID, Name: "t3", State: types.TaskCancelled},
	}); err != nil {
		t.Fatalf("create tasks: %v", err)
	}

	if err := f.statusService.RecalculateStatus(ctx, action.ID, false); err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	reloaded := f.reloadAction(t, action)
	// One completed of two non-cancelled tasks.
	if reloaded.Completion == nil || *reloaded.Completion != 50 {
		t.Errorf("completion = %v, want 50", reloaded.Completion)
	}
}

func TestRecalculateCompletionFromIndicators(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	today := dateAt(2026, 6, 15)
	f.freezeClock(t, today)
	action := f.createAction(t, "a1")

	indicators, err := f.indRepo.Create(ctx, nil, []*types.Indicator{{PlanID: f.plan.ID, Name: "Emissions cut"}})
	if err != nil {
		t.Fatalf("create indicator: %v", err)
	}
	indicator := indicators[0]
	_, err = f.indRepo.CreateValues(ctx, nil, []*types.IndicatorValue{
		{IndicatorID: indicator.ID, Date: dateAt(2025, 1, 1), Value: 0},
		{IndicatorID: indicator.ID, Date: dateAt(2026, 6, 1), Value: 50},
	})
	if err != nil {
		t.Fatalf("create values: %v", err)
	}
	_, err = f.indRepo.CreateGoals(ctx, nil, []*types.IndicatorGoal{
		{IndicatorID: indicator.ID, Date: dateAt(2026, 12, 31), Value: 100},
	})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	_, err = f.indRepo.LinkToAction(ctx, nil, &types.ActionIndicator{
		ActionID: action.ID, IndicatorID: indicator.ID, IndicatesActionProgress: true,
	})
	if err != nil {
		t.Fatalf("link indicator: %v", err)
	}

	if err := f.statusService.RecalculateStatus(ctx, action.ID, false); err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	reloaded := f.reloadAction(t, action)
	if reloaded.Completion == nil || *reloaded.Completion != 50 {
		t.Errorf("completion = %v, want 50", reloaded.Completion)
	}
	// A single future goal cannot be late yet.
	if reloaded.Status == nil || reloaded.Status.Identifier != "not_started" {
		t.Errorf("status = %v, want not_started", reloaded.Status)
	}
}

func TestIndicatorLatenessAgainstPastGoal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	today := dateAt(2026, 6, 15)
	f.freezeClock(t, today)

	seed := func(t *testing.T, actionIdent string, baseline, latest, pastGoal, finalGoal float64) *types.Action {
		t.Helper()
		action := f.createAction(t, actionIdent)
		indicators, err := f.indRepo.Create(ctx, nil, []*types.Indicator{{PlanID: f.plan.ID, Name: "Metric " + actionIdent}})
		if err != nil {
			t.Fatalf("create indicator: %v", err)
		}
		indicator := indicators[0]
		_, err = f.indRepo.CreateValues(ctx, nil, []*types.IndicatorValue{
			{IndicatorID: indicator.ID, Date: dateAt(2025, 1, 1), Value: baseline},
			{IndicatorID: indicator.ID, Date: dateAt(2026, 6, 1), Value: latest},
		})
		if err != nil {
			t.Fatalf("create values: %v", err)
		}
		_, err = f.indRepo.CreateGoals(ctx, nil, []*types.IndicatorGoal{
			{IndicatorID: indicator.ID, Date: dateAt(2026, 1, 1), Value: pastGoal},
			{IndicatorID: indicator.ID, Date: dateAt(2027, 1, 1), Value: finalGoal},
		})
		if err != nil {
			t.Fatalf("create goals: %v", err)
		}
		_, err = f.indRepo.LinkToAction(ctx, nil, &types.ActionIndicator{
			ActionID: action.ID, IndicatorID: indicator.ID, IndicatesActionProgress: true,
		})
		if err != nil {
			t.Fatalf("link indicator: %v", err)
		}
		return action
	}

	// Increasing indicator behind its due goal.
	behind := seed(t, "behind", 0, 50, 60, 100)
	if err := f.statusService.RecalculateStatus(ctx, behind.ID, false); err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	reloaded := f.reloadAction(t, behind)
	if reloaded.Status == nil || reloaded.Status.Identifier != "late" {
		t.Errorf("increasing behind goal: status = %v, want late", reloaded.Status)
	}

	// Decreasing indicator above its due goal is late too.
	above := seed(t, "above", 100, 80, 70, 0)
	if err := f.statusService.RecalculateStatus(ctx, above.ID, false); err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	reloaded = f.reloadAction(t, above)
	if reloaded.Status == nil || reloaded.Status.Identifier != "late" {
		t.Errorf("decreasing above goal: status = %v, want late", reloaded.Status)
	}
	if reloaded.Completion == nil || *reloaded.Completion != 20 {
		t.Errorf("decreasing completion = %v, want 20", reloaded.Completion)
	}

	// Ahead of the due goal stays on track.
	ahead := seed(t, "ahead", 0, 70, 60, 100)
	if err := f.statusService.RecalculateStatus(ctx, ahead.ID, false); err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	reloaded = f.reloadAction(t, ahead)
	if reloaded.Status != nil && reloaded.Status.Identifier == "late" {
		t.Errorf("ahead of goal flagged late")
	}
}

func TestMergedAndCompletedAreTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	today := dateAt(2026, 6, 15)
	f.freezeClock(t, today)

	target := f.createAction(t, "target")
	merged := f.createAction(t, "merged")
	merged.MergedWithID = &target.ID
	merged.StatusID = &f.statuses["late"].ID
	if _, err := f.actRepo.Update(ctx, nil, merged); err != nil {
		t.Fatalf("merge action: %v", err)
	}
	pastDue := dateAt(2026, 1, 1)
	if _, err := f.actRepo.CreateTasks(ctx, nil, []*types.ActionTask{
		{ActionID: merged.ID, Name: "t", State: types.TaskInProgress, DueAt: &pastDue},
	}); err != nil {
		t.Fatalf("create task: %v", err)
	}
	if err := f.statusService.RecalculateStatus(ctx, merged.ID, false); err != nil {
		t.Fatalf("recalculate merged: %v", err)
	}
	reloaded := f.reloadAction(t, merged)
	if reloaded.Status == nil || reloaded.Status.Identifier != "late" {
		t.Errorf("merged action status changed to %v", reloaded.Status)
	}

	done := f.createAction(t, "done")
	done.StatusID = &f.statuses["completed"].ID
	if _, err := f.actRepo.Update(ctx, nil, done); err != nil {
		t.Fatalf("complete action: %v", err)
	}
	if err := f.statusService.RecalculateStatus(ctx, done.ID, false); err != nil {
		t.Fatalf("recalculate done: %v", err)
	}
	reloaded = f.reloadAction(t, done)
	if reloaded.Completion == nil || *reloaded.Completion != 100 {
		t.Errorf("completed action completion = %v, want pinned 100", reloaded.Completion)
	}
	if reloaded.Status == nil || reloaded.Status.Identifier != "completed" {
		t.Errorf("completed action status changed to %v", reloaded.Status)
	}
}

func TestManualStatusBlocksAutomaticTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	today := dateAt(2026, 6, 15)
	f.freezeClock(t, today)

	action := f.createAction(t, "a1")
	action.ManualStatus = true
	action.StatusID = &f.statuses["on_time"].ID
	if _, err := f.actRepo.Update(ctx, nil, action); err != nil {
		t.Fatalf("set manual status: %v", err)
	}
	pastDue := dateAt(2026, 1, 1)
	if _, err := f.actRepo.CreateTasks(ctx, nil, []*types.ActionTask{
		{ActionID: action.ID, Name: "t", State: types.TaskInProgress, DueAt: &pastDue},
	}); err != nil {
		t.Fatalf("create task: %v", err)
	}

	if err := f.statusService.RecalculateStatus(ctx, action.ID, false); err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	reloaded := f.reloadAction(t, action)
	if reloaded.Status == nil || reloaded.Status.Identifier != "on_time" {
		t.Errorf("manual status overridden, got %v", reloaded.Status)
	}
}

func TestForceUpdateTouchesUpdatedAt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	today := dateAt(2026, 6, 15)
	f.freezeClock(t, today)

	action := f.createAction(t, "a1")
	action.StatusID = &f.statuses["not_started"].ID
	if _, err := f.actRepo.Update(ctx, nil, action); err != nil {
		t.Fatalf("set status: %v", err)
	}
	stale := dateAt(2026, 1, 1)
	if err := f.actRepo.UpdateColumns(ctx, nil, action.ID, map[string]interface{}{"updated_at": stale}); err != nil {
		t.Fatalf("backdate: %v", err)
	}

	// Nothing derived changes, so without force the timestamp stays put.
	if err := f.statusService.RecalculateStatus(ctx, action.ID, false); err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	reloaded := f.reloadAction(t, action)
	if !reloaded.UpdatedAt.Equal(stale) {
		t.Errorf("updated_at moved without force: %v", reloaded.UpdatedAt)
	}

	if err := f.statusService.RecalculateStatus(ctx, action.ID, true); err != nil {
		t.Fatalf("forced recalculate: %v", err)
	}
	reloaded = f.reloadAction(t, action)
	if !reloaded.UpdatedAt.Equal(today) {
		t.Errorf("forced updated_at = %v, want %v", reloaded.UpdatedAt, today)
	}
}

func TestSummaryAndTimelinessViaService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	today := dateAt(2026, 6, 15)
	f.freezeClock(t, today)

	action := f.createAction(t, "a1")
	action.StatusID = &f.statuses["late"].ID
	if _, err := f.actRepo.Update(ctx, nil, action); err != nil {
		t.Fatalf("set status: %v", err)
	}
	updatedAt := dateAt(2026, 5, 1)
	if err := f.actRepo.UpdateColumns(ctx, nil, action.ID, map[string]interface{}{"updated_at": updatedAt}); err != nil {
		t.Fatalf("backdate: %v", err)
	}

	summary, err := f.statusService.Summary(ctx, action.ID, "en")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.Summary != types.SummaryLate {
		t.Errorf("summary = %v", summary.Summary)
	}
	if summary.Label != "Late" {
		t.Errorf("label = %q", summary.Label)
	}
	if summary.Sentiment != types.SentimentNegative {
		t.Errorf("sentiment = %v", summary.Sentiment)
	}

	// 45 days since last update: past the 30-day target, inside 60 days.
	timeliness, err := f.statusService.Timeliness(ctx, action.ID)
	if err != nil {
		t.Fatalf("Timeliness: %v", err)
	}
	if timeliness.Timeliness != types.TimelinessAcceptable {
		t.Errorf("timeliness = %v", timeliness.Timeliness)
	}
}

func TestSummaryLabelsAreRequestScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	action := f.createAction(t, "a1")
	action.StatusID = &f.statuses["late"].ID
	if _, err := f.actRepo.Update(ctx, nil, action); err != nil {
		t.Fatalf("set status: %v", err)
	}

	reqCtx := cache.NewContext(ctx, cache.NewWatchObjectCache(f.planRepo, logger.NewNop()))
	summary, err := f.statusService.Summary(reqCtx, action.ID, "en")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.Label != "Late" {
		t.Errorf("label = %q", summary.Label)
	}

	late := f.statuses["late"]
	late.Name = types.LocalizedText{"en": "Behind schedule"}
	if _, err := f.planRepo.UpdateStatus(ctx, nil, late); err != nil {
		t.Fatalf("rename status: %v", err)
	}

	// Within the same request the lookup stays memoized.
	summary, err = f.statusService.Summary(reqCtx, action.ID, "en")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.Label != "Late" {
		t.Errorf("label within request = %q", summary.Label)
	}

	// A later request sees the rename.
	summary, err = f.statusService.Summary(ctx, action.ID, "en")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.Label != "Behind schedule" {
		t.Errorf("label after rename = %q", summary.Label)
	}
}
