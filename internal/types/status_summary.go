package types

import (
	"fmt"
	"strings"
	"time"
)

// Sentiment classifies a derived status for presentation.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// ActionStatusSummary is the closed, cross-plan classification of an
// action, derived from (merged_with, implementation_phase, status). The
// declaration order is significant and is the canonical sort order.
type ActionStatusSummary string

const (
	SummaryCompleted  ActionStatusSummary = "completed"
	SummaryOnTime     ActionStatusSummary = "on_time"
	SummaryInProgress ActionStatusSummary = "in_progress"
	SummaryNotStarted ActionStatusSummary = "not_started"
	SummaryLate       ActionStatusSummary = "late"
	SummaryCancelled  ActionStatusSummary = "cancelled"
	SummaryOutOfScope ActionStatusSummary = "out_of_scope"
	SummaryMerged     ActionStatusSummary = "merged"
	SummaryPostponed  ActionStatusSummary = "postponed"
	SummaryUndefined  ActionStatusSummary = "undefined"
)

var AllActionStatusSummaries = []ActionStatusSummary{
	SummaryCompleted,
	SummaryOnTime,
	SummaryInProgress,
	SummaryNotStarted,
	SummaryLate,
	SummaryCancelled,
	SummaryOutOfScope,
	SummaryMerged,
	SummaryPostponed,
	SummaryUndefined,
}

type summaryMeta struct {
	defaultLabel string
	color        string
	isCompleted  bool
	isActive     bool
	sentiment    Sentiment
}

var summaryMetadata = map[ActionStatusSummary]summaryMeta{
	SummaryCompleted:  {"Completed", "green090", true, false, SentimentPositive},
	SummaryOnTime:     {"On time", "green050", false, true, SentimentPositive},
	SummaryInProgress: {"In progress", "green050", false, true, SentimentPositive},
	SummaryNotStarted: {"Not started", "green010", false, true, SentimentNeutral},
	SummaryLate:       {"Late", "yellow050", false, true, SentimentNegative},
	SummaryCancelled:  {"Cancelled", "grey030", false, false, SentimentNeutral},
	SummaryOutOfScope: {"Out of scope", "grey030", false, false, SentimentNeutral},
	SummaryMerged:     {"Merged", "grey030", true, false, SentimentNeutral},
	SummaryPostponed:  {"Postponed", "blue030", false, false, SentimentNeutral},
	SummaryUndefined:  {"Unknown", "grey010", false, true, SentimentNeutral},
}

func (s ActionStatusSummary) Color() string        { return summaryMetadata[s].color }
func (s ActionStatusSummary) IsCompleted() bool    { return summaryMetadata[s].isCompleted }
func (s ActionStatusSummary) IsActive() bool       { return summaryMetadata[s].isActive }
func (s ActionStatusSummary) Sentiment() Sentiment { return summaryMetadata[s].sentiment }
func (s ActionStatusSummary) DefaultLabel() string { return summaryMetadata[s].defaultLabel }

// SortKey returns the canonical position of the summary; unknown values
// sort last.
func (s ActionStatusSummary) SortKey() int {
	for i, v := range AllActionStatusSummaries {
		if v == s {
			return i
		}
	}
	return len(AllActionStatusSummaries)
}

// Label resolves the display label against the plan's own action statuses
// so plans with customized status names keep their wording. Falls back to
// the cross-plan default label.
func (s ActionStatusSummary) Label(statuses []ActionStatus, lang string) string {
	for i := range statuses {
		if strings.EqualFold(statuses[i].Identifier, string(s)) {
			if name := statuses[i].Name.Resolve(lang, ""); name != "" {
				return name
			}
		}
	}
	return summaryMetadata[s].defaultLabel
}

// SummaryForStatus maps a plan-level status to a summary by identifier.
// Some plans carry capitalized identifiers, so matching is case
// insensitive.
func SummaryForStatus(status *ActionStatus) ActionStatusSummary {
	if status == nil {
		return SummaryUndefined
	}
	identifier := strings.ToLower(status.Identifier)
	for _, s := range AllActionStatusSummaries {
		if string(s) == identifier {
			return s
		}
	}
	return SummaryUndefined
}

// SummaryForAction derives the summary for an action. Status and
// ImplementationPhase must be loaded when set.
func SummaryForAction(action *Action) ActionStatusSummary {
	if action.IsMerged() {
		return SummaryMerged
	}
	var phase string
	if action.ImplementationPhase != nil {
		phase = strings.ToLower(action.ImplementationPhase.Identifier)
	}
	if phase == "completed" {
		return SummaryCompleted
	}
	summary := SummaryForStatus(action.Status)
	if summary == SummaryUndefined && phase == "not_started" {
		return SummaryNotStarted
	}
	return summary
}

// ActionTimeliness classifies how recently an action was updated relative
// to the plan's update intervals.
type ActionTimeliness string

const (
	TimelinessOptimal    ActionTimeliness = "optimal"
	TimelinessAcceptable ActionTimeliness = "acceptable"
	TimelinessLate       ActionTimeliness = "late"
	// TimelinessStale is declared for actions past the plan's stale
	// threshold but the read path reports it as late for now.
	TimelinessStale ActionTimeliness = "stale"
)

type timelinessMeta struct {
	color     string
	sentiment Sentiment
	underDays bool
}

var timelinessMetadata = map[ActionTimeliness]timelinessMeta{
	TimelinessOptimal:    {"green070", SentimentPositive, true},
	TimelinessAcceptable: {"green030", SentimentNeutral, true},
	TimelinessLate:       {"yellow050", SentimentNegative, false},
	TimelinessStale:      {"red050", SentimentNegative, false},
}

func (t ActionTimeliness) Color() string        { return timelinessMetadata[t].color }
func (t ActionTimeliness) Sentiment() Sentiment { return timelinessMetadata[t].sentiment }

// BoundaryDays returns the plan-level day threshold this classification
// compares against.
func (t ActionTimeliness) BoundaryDays(plan *Plan) int {
	switch t {
	case TimelinessOptimal:
		return plan.ActionUpdateTargetInterval
	case TimelinessAcceptable, TimelinessLate:
		return plan.ActionUpdateAcceptableInterval
	case TimelinessStale:
		return plan.ActionStaleAfterDays
	}
	return 0
}

// Label renders the threshold the action falls on, e.g. "Under 30 days".
func (t ActionTimeliness) Label(plan *Plan) string {
	if timelinessMetadata[t].underDays {
		return fmt.Sprintf("Under %d days", t.BoundaryDays(plan))
	}
	return fmt.Sprintf("Over %d days", t.BoundaryDays(plan))
}

// TimelinessForAction classifies an action by the age of its last update.
// Late and stale are not distinguished on this path.
func TimelinessForAction(action *Action, plan *Plan, now time.Time) ActionTimeliness {
	age := now.Sub(action.UpdatedAt)
	if age <= time.Duration(plan.ActionUpdateTargetInterval)*24*time.Hour {
		return TimelinessOptimal
	}
	if age <= time.Duration(plan.ActionUpdateAcceptableInterval)*24*time.Hour {
		return TimelinessAcceptable
	}
	return TimelinessLate
}
