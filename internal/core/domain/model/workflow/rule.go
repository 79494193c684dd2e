package workflow

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/pkg/errs"
)

// TriggerType says what may fire a rule.
type TriggerType int

const (
	TriggerUnknown TriggerType = iota
	// TriggerManual rules are requested by a user.
	TriggerManual
	// TriggerEvent rules are fired by a lifecycle event whose type equals the condition.
	TriggerEvent
	// TriggerTime rules are fired by the elapsed-time poller, condition "DAYS_PASSED:<n>".
	TriggerTime
)

func getTriggerStrings() map[TriggerType]string {
	return map[TriggerType]string{
		TriggerManual: "manual",
		TriggerEvent:  "event",
		TriggerTime:   "time",
	}
}

// ParseTriggerType maps "manual", "event" and "time" to a TriggerType.
func ParseTriggerType(raw string) (TriggerType, error) {
	needle := strings.ToLower(strings.TrimSpace(raw))
	for t, s := range getTriggerStrings() {
		if s == needle {
			return t, nil
		}
	}
	return TriggerUnknown, errs.NewValueIsInvalidErrorWithCause(
		"trigger type",
		fmt.Errorf("%q is not one of manual, event, time", raw),
	)
}

func (t TriggerType) String() string {
	if s, ok := getTriggerStrings()[t]; ok {
		return s
	}
	return "unknown"
}

func (t TriggerType) Validate() error {
	if _, ok := getTriggerStrings()[t]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("trigger type", fmt.Errorf("%d is not a valid trigger type", t))
	}
	return nil
}

// RuleParams carries the raw attributes of an edge into NewRule.
type RuleParams struct {
	From             StatusID
	To               StatusID
	Trigger          TriggerType
	TriggerCondition string
	RequireApproval  bool
	ApprovalRoles    []kernel.Role
	NotifyRoles      []kernel.Role
	IsActive         bool
}

// Rule is a directed edge between two statuses.
type Rule struct {
	from             StatusID
	to               StatusID
	trigger          TriggerType
	triggerCondition string
	requireApproval  bool
	approvalRoles    []kernel.Role
	notifyRoles      []kernel.Role
	isActive         bool
}

// NewRule validates an edge in isolation. Whether its endpoints exist is
// checked by NewGraph.
func NewRule(p RuleParams) (Rule, error) {
	var problems []error

	if strings.TrimSpace(string(p.From)) == "" {
		problems = append(problems, errs.NewValueIsRequiredError("rule from"))
	}
	if strings.TrimSpace(string(p.To)) == "" {
		problems = append(problems, errs.NewValueIsRequiredError("rule to"))
	}
	if err := p.Trigger.Validate(); err != nil {
		problems = append(problems, err)
	}

	condition := strings.TrimSpace(p.TriggerCondition)
	if (p.Trigger == TriggerEvent || p.Trigger == TriggerTime) && condition == "" {
		problems = append(problems, errs.NewValueIsRequiredErrorWithCause(
			"trigger condition",
			fmt.Errorf("%s rule %s -> %s has no condition", p.Trigger, p.From, p.To),
		))
	}
	if p.RequireApproval && len(p.ApprovalRoles) == 0 {
		problems = append(problems, errs.NewValueIsRequiredErrorWithCause(
			"approval roles",
			fmt.Errorf("rule %s -> %s requires approval but names no roles", p.From, p.To),
		))
	}
	for _, role := range slices.Concat(p.ApprovalRoles, p.NotifyRoles) {
		if _, err := kernel.NewRole(string(role)); err != nil {
			problems = append(problems, err)
		}
	}

	if err := errors.Join(problems...); err != nil {
		return Rule{}, err
	}

	return Rule{
		from:             p.From,
		to:               p.To,
		trigger:          p.Trigger,
		triggerCondition: condition,
		requireApproval:  p.RequireApproval,
		approvalRoles:    slices.Clone(p.ApprovalRoles),
		notifyRoles:      slices.Clone(p.NotifyRoles),
		isActive:         p.IsActive,
	}, nil
}

func (r Rule) From() StatusID           { return r.from }
func (r Rule) To() StatusID             { return r.to }
func (r Rule) Trigger() TriggerType     { return r.trigger }
func (r Rule) TriggerCondition() string { return r.triggerCondition }
func (r Rule) RequireApproval() bool    { return r.requireApproval }
func (r Rule) IsActive() bool           { return r.isActive }

func (r Rule) ApprovalRoles() []kernel.Role {
	return slices.Clone(r.approvalRoles)
}

func (r Rule) NotifyRoles() []kernel.Role {
	return slices.Clone(r.notifyRoles)
}

// Permits reports whether actor may take this edge. Ungated edges permit everyone.
func (r Rule) Permits(actor kernel.Actor) bool {
	return !r.requireApproval || actor.HasAnyRole(r.approvalRoles)
}

func (r Rule) String() string {
	return fmt.Sprintf("%s -> %s (%s)", r.from, r.to, r.trigger)
}
