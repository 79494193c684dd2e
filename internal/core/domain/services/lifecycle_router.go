package services

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"tradeerp/internal/core/domain/model/workflow"
	"tradeerp/internal/pkg/errs"
)

const daysPassedPrefix = string(EventDaysPassed) + ":"

type timeEdge struct {
	to   workflow.StatusID
	days int
}

// LifecycleRouter derives the target status of a lifecycle event from the
// order's current status. It is built once from the graph and never does I/O.
//
// Event rules are keyed by their condition, which must name an event type.
// Time rules carry "DAYS_PASSED:<n>" and match DAYS_PASSED events whose days
// payload is at least n.
type LifecycleRouter struct {
	events map[EventType]map[workflow.StatusID]workflow.StatusID
	timed  map[workflow.StatusID]timeEdge
}

// NewLifecycleRouter indexes the legal event and time rules of graph.
//
// Construction fails if a condition names an unknown event, a time condition
// is malformed, or a status has two edges for the same trigger, since the
// derivation would then be ambiguous.
func NewLifecycleRouter(graph *workflow.Graph) (*LifecycleRouter, error) {
	if err := graph.Validate(); err != nil {
		return nil, err
	}

	r := &LifecycleRouter{
		events: make(map[EventType]map[workflow.StatusID]workflow.StatusID),
		timed:  make(map[workflow.StatusID]timeEdge),
	}

	var problems []error
	for _, rule := range graph.RulesByTrigger(workflow.TriggerEvent) {
		if !graph.IsLegalTransition(rule.From(), rule.To()) {
			continue
		}
		et, err := ParseEventType(rule.TriggerCondition())
		if err != nil || et == EventDaysPassed {
			problems = append(problems, errs.NewValueIsInvalidErrorWithCause(
				"event rule", fmt.Errorf("rule %s has unusable condition %q", rule, rule.TriggerCondition())))
			continue
		}
		byStatus, ok := r.events[et]
		if !ok {
			byStatus = make(map[workflow.StatusID]workflow.StatusID)
			r.events[et] = byStatus
		}
		if prev, dup := byStatus[rule.From()]; dup {
			problems = append(problems, errs.NewValueIsInvalidErrorWithCause(
				"event rule", fmt.Errorf("%s from %s leads to both %s and %s", et, rule.From(), prev, rule.To())))
			continue
		}
		byStatus[rule.From()] = rule.To()
	}

	for _, rule := range graph.RulesByTrigger(workflow.TriggerTime) {
		if !graph.IsLegalTransition(rule.From(), rule.To()) {
			continue
		}
		days, err := ParseDaysCondition(rule.TriggerCondition())
		if err != nil {
			problems = append(problems, fmt.Errorf("time rule %s: %w", rule, err))
			continue
		}
		if prev, dup := r.timed[rule.From()]; dup {
			problems = append(problems, errs.NewValueIsInvalidErrorWithCause(
				"time rule", fmt.Errorf("%s has time edges to both %s and %s", rule.From(), prev.to, rule.To())))
			continue
		}
		r.timed[rule.From()] = timeEdge{to: rule.To(), days: days}
	}

	if err := errors.Join(problems...); err != nil {
		return nil, err
	}
	return r, nil
}

// ParseDaysCondition reads "DAYS_PASSED:<n>" with n >= 0.
func ParseDaysCondition(condition string) (int, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(condition), daysPassedPrefix)
	if !ok {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"time condition", fmt.Errorf("%q does not start with %s", condition, daysPassedPrefix))
	}
	days, err := strconv.Atoi(rest)
	if err != nil || days < 0 {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"time condition", fmt.Errorf("%q is not a non-negative day count", rest))
	}
	return days, nil
}

// Derive returns the status event should move an order in current to, or
// false when the event has no edge from current. A false result is a
// deliberate skip, not an error.
func (r *LifecycleRouter) Derive(current workflow.StatusID, event LifecycleEvent) (workflow.StatusID, bool) {
	if event.Type == EventDaysPassed {
		edge, ok := r.timed[current]
		if !ok {
			return "", false
		}
		days, ok := event.Days()
		if !ok || days < edge.days {
			return "", false
		}
		return edge.to, true
	}

	to, ok := r.events[event.Type][current]
	return to, ok
}

// TimeTriggeredStatuses lists the statuses that have an outgoing time edge,
// with the days each one waits for.
func (r *LifecycleRouter) TimeTriggeredStatuses() map[workflow.StatusID]int {
	out := make(map[workflow.StatusID]int, len(r.timed))
	for from, edge := range r.timed {
		out[from] = edge.days
	}
	return out
}

// HandledEvents lists the event types with at least one edge.
func (r *LifecycleRouter) HandledEvents() []EventType {
	out := make([]EventType, 0, len(r.events)+1)
	for t := range r.events {
		out = append(out, t)
	}
	if len(r.timed) > 0 {
		out = append(out, EventDaysPassed)
	}
	slices.Sort(out)
	return out
}
