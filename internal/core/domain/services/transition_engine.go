package services

import (
	"errors"
	"time"

	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/core/domain/model/order"
	"tradeerp/internal/core/domain/model/workflow"
	"tradeerp/internal/pkg/errs"
)

var ErrTransitionEngineIsNotConstructed = errors.New("TransitionEngine must be created via NewTransitionEngine")

// TransitionEngine applies status transitions to orders.
//
// Business rules:
//   - The source is always the order's current derived status
//   - A transition is legal iff the graph has an active edge between active
//     statuses; self-transitions and terminal sources are therefore illegal
//     unless modelled explicitly
//   - A gated edge needs an actor holding one of its approval roles
//   - An accepted transition appends exactly one history entry
//
// Example usage:
//
//	engine, _ := NewTransitionEngine(graph)
//	entry, rule, err := engine.Transition(o, workflow.StatusInProgress, actor, "確認訂單", time.Now())
//	var illegal *errs.IllegalTransitionError
//	if errors.As(err, &illegal) {
//	    // offer illegal.LegalTargets to the user
//	}
type TransitionEngine struct {
	graph *workflow.Graph
}

func NewTransitionEngine(graph *workflow.Graph) (TransitionEngine, error) {
	if err := graph.Validate(); err != nil {
		return TransitionEngine{}, err
	}
	return TransitionEngine{graph: graph}, nil
}

func (e TransitionEngine) Graph() *workflow.Graph {
	return e.graph
}

// Check validates a transition without changing the order. It returns the
// rule that would be taken.
func (e TransitionEngine) Check(o *order.Order, to workflow.StatusID, actor kernel.Actor) (workflow.Rule, error) {
	if e.graph == nil {
		return workflow.Rule{}, ErrTransitionEngineIsNotConstructed
	}
	if err := o.Validate(); err != nil {
		return workflow.Rule{}, err
	}

	from := o.CurrentStatus()
	rule, ok := e.graph.LegalRule(from, to)
	if !ok {
		return workflow.Rule{}, errs.NewIllegalTransitionError(
			from.String(),
			to.String(),
			statusStrings(e.graph.LegalTargetIDs(from)),
		)
	}
	if !rule.Permits(actor) {
		return workflow.Rule{}, errs.NewApprovalRequiredError(
			from.String(),
			to.String(),
			kernel.RoleStrings(rule.ApprovalRoles()),
		)
	}
	return rule, nil
}

// Transition validates and applies a transition to o.
//
// Returns:
//   - the appended history entry and the rule taken on success
//   - IllegalTransitionError carrying the legal targets if no legal edge exists
//   - ApprovalRequiredError if the edge is gated and actor lacks the roles
//
// now is clamped to the latest transition time so that history stays ordered
// under clock skew between application instances.
func (e TransitionEngine) Transition(
	o *order.Order,
	to workflow.StatusID,
	actor kernel.Actor,
	reason string,
	now time.Time,
) (order.HistoryEntry, workflow.Rule, error) {
	rule, err := e.Check(o, to, actor)
	if err != nil {
		return order.HistoryEntry{}, workflow.Rule{}, err
	}

	if last := o.LastTransitionAt(); now.Before(last) {
		now = last
	}

	entry, err := order.NewHistoryEntry(o.ID(), o.CurrentStatus(), to, actor, reason, now)
	if err != nil {
		return order.HistoryEntry{}, workflow.Rule{}, err
	}
	if err := o.AppendHistory(entry); err != nil {
		return order.HistoryEntry{}, workflow.Rule{}, err
	}
	return entry, rule, nil
}

func statusStrings(ids []workflow.StatusID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
