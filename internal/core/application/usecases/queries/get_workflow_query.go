package queries

import (
	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/core/domain/model/workflow"
)

// RuleView is one workflow edge.
type RuleView struct {
	From            string
	To              string
	Trigger         string
	Condition       string
	RequireApproval bool
	ApprovalRoles   []string
	NotifyRoles     []string
	IsActive        bool
}

// WorkflowView is the whole configured workflow graph.
type WorkflowView struct {
	DefaultStatus string
	Statuses      []StatusView
	Rules         []RuleView
}

// GetWorkflowQueryHandler describes the workflow graph the service runs on.
// The graph is loaded at startup, so there is no query value to validate.
type GetWorkflowQueryHandler struct {
	graph *workflow.Graph
}

func NewGetWorkflowQueryHandler(graph *workflow.Graph) GetWorkflowQueryHandler {
	return GetWorkflowQueryHandler{graph: graph}
}

func (h GetWorkflowQueryHandler) Handle() (WorkflowView, error) {
	if err := h.graph.Validate(); err != nil {
		return WorkflowView{}, err
	}

	statuses := h.graph.Statuses()
	view := WorkflowView{
		DefaultStatus: h.graph.DefaultStatus().ID().String(),
		Statuses:      make([]StatusView, 0, len(statuses)),
	}
	for _, s := range statuses {
		view.Statuses = append(view.Statuses, NewStatusView(h.graph, s.ID()))
	}

	rules := h.graph.Rules()
	view.Rules = make([]RuleView, 0, len(rules))
	for _, r := range rules {
		view.Rules = append(view.Rules, RuleView{
			From:            r.From().String(),
			To:              r.To().String(),
			Trigger:         r.Trigger().String(),
			Condition:       r.TriggerCondition(),
			RequireApproval: r.RequireApproval(),
			ApprovalRoles:   kernel.RoleStrings(r.ApprovalRoles()),
			NotifyRoles:     kernel.RoleStrings(r.NotifyRoles()),
			IsActive:        r.IsActive(),
		})
	}
	return view, nil
}
