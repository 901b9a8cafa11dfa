package types

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSummaryForAction(t *testing.T) {
	mergedID := uuid.New()

	cases := []struct {
		name   string
		action Action
		want   ActionStatusSummary
	}{
		{
			"merged wins over everything",
			Action{
				MergedWithID:        &mergedID,
				ImplementationPhase: &ActionImplementationPhase{Identifier: "completed"},
				Status:              &ActionStatus{Identifier: "late"},
			},
			SummaryMerged,
		},
		{
			"completed phase wins over status",
			Action{
				ImplementationPhase: &ActionImplementationPhase{Identifier: "completed"},
				Status:              &ActionStatus{Identifier: "late"},
			},
			SummaryCompleted,
		},
		{
			"status identifier matches case insensitively",
			Action{Status: &ActionStatus{Identifier: "On_Time"}},
			SummaryOnTime,
		},
		{
			"unknown status with not_started phase",
			Action{
				ImplementationPhase: &ActionImplementationPhase{Identifier: "not_started"},
				Status:              &ActionStatus{Identifier: "something_custom"},
			},
			SummaryNotStarted,
		},
		{
			"nothing set",
			Action{},
			SummaryUndefined,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SummaryForAction(&tc.action); got != tc.want {
				t.Errorf("SummaryForAction = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestSummaryMetadata(t *testing.T) {
	if !SummaryCompleted.IsCompleted() || SummaryCompleted.Color() != "green090" {
		t.Error("completed metadata wrong")
	}
	if !SummaryMerged.IsCompleted() {
		t.Error("merged counts as completed")
	}
	if SummaryLate.Sentiment() != SentimentNegative {
		t.Error("late should be negative")
	}
	if SummaryUndefined.DefaultLabel() != "Unknown" {
		t.Errorf("undefined label = %q", SummaryUndefined.DefaultLabel())
	}
	if SummaryCompleted.SortKey() >= SummaryUndefined.SortKey() {
		t.Error("completed must sort before undefined")
	}
}

func TestSummaryLabelUsesPlanStatuses(t *testing.T) {
	statuses := []ActionStatus{
		{Identifier: "LATE", Name: LocalizedText{"fi": "Myöhässä", "en": "Running late"}},
	}
	if got := SummaryLate.Label(statuses, "fi"); got != "Myöhässä" {
		t.Errorf("Label(fi) = %q", got)
	}
	if got := SummaryLate.Label(nil, "en"); got != "Late" {
		t.Errorf("default label = %q", got)
	}
}

func TestTimelinessForAction(t *testing.T) {
	plan := &Plan{
		ActionUpdateTargetInterval:     30,
		ActionUpdateAcceptableInterval: 60,
		ActionStaleAfterDays:           180,
	}
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		ageDays int
		want    ActionTimeliness
	}{
		{"fresh", 5, TimelinessOptimal},
		{"exactly on target boundary", 30, TimelinessOptimal},
		{"acceptable", 45, TimelinessAcceptable},
		{"late", 90, TimelinessLate},
		{"very old still reported late", 400, TimelinessLate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			action := &Action{UpdatedAt: now.AddDate(0, 0, -tc.ageDays)}
			if got := TimelinessForAction(action, plan, now); got != tc.want {
				t.Errorf("age %d days = %s, want %s", tc.ageDays, got, tc.want)
			}
		})
	}
}

func TestTimelinessLabels(t *testing.T) {
	plan := &Plan{
		ActionUpdateTargetInterval:     30,
		ActionUpdateAcceptableInterval: 60,
		ActionStaleAfterDays:           180,
	}
	if got := TimelinessOptimal.Label(plan); got != "Under 30 days" {
		t.Errorf("optimal label = %q", got)
	}
	if got := TimelinessAcceptable.Label(plan); got != "Under 60 days" {
		t.Errorf("acceptable label = %q", got)
	}
	if got := TimelinessLate.Label(plan); got != "Over 60 days" {
		t.Errorf("late label = %q", got)
	}
	if got := TimelinessStale.Label(plan); got != "Over 180 days" {
		t.Errorf("stale label = %q", got)
	}
}
