package workflow

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"tradeerp/internal/core/domain/model/kernel"

	"gopkg.in/yaml.v3"
)

//go:embed default_graph.yaml
var defaultGraphYAML []byte

// Status ids of the embedded default workflow.
const (
	StatusPendingConfirmation StatusID = "pending_confirmation"
	StatusInProgress          StatusID = "in_progress"
	StatusQCPassed            StatusID = "qc_passed"
	StatusShipped             StatusID = "shipped"
	StatusInvoiced            StatusID = "invoiced"
	StatusPaid                StatusID = "paid"
	StatusClosed              StatusID = "closed"
	StatusCancelled           StatusID = "cancelled"
	StatusOnHold              StatusID = "on_hold"
)

type graphDocument struct {
	Statuses []statusDocument `yaml:"statuses"`
	Rules    []ruleDocument   `yaml:"rules"`
}

type statusDocument struct {
	ID          string `yaml:"id"`
	DisplayName string `yaml:"displayName"`
	Default     bool   `yaml:"default"`
	Active      *bool  `yaml:"active"`
}

type ruleDocument struct {
	From            string   `yaml:"from"`
	To              string   `yaml:"to"`
	Trigger         string   `yaml:"trigger"`
	Condition       string   `yaml:"condition"`
	RequireApproval bool     `yaml:"requireApproval"`
	ApprovalRoles   []string `yaml:"approvalRoles"`
	NotifyRoles     []string `yaml:"notifyRoles"`
	Active          *bool    `yaml:"active"`
}

// DefaultGraph returns the embedded trade workflow.
func DefaultGraph() (*Graph, error) {
	return LoadGraph(bytes.NewReader(defaultGraphYAML))
}

// LoadGraphFile reads a workflow definition from disk.
func LoadGraphFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open workflow file: %w", err)
	}
	defer f.Close()

	return LoadGraph(f)
}

// LoadGraph decodes a YAML workflow definition. Unknown keys are rejected.
func LoadGraph(r io.Reader) (*Graph, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc graphDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode workflow: %w", err)
	}

	statuses := make([]Status, 0, len(doc.Statuses))
	var problems []error
	for _, sd := range doc.Statuses {
		s, err := NewStatus(StatusID(sd.ID), sd.DisplayName, sd.Default, boolOr(sd.Active, true))
		if err != nil {
			problems = append(problems, fmt.Errorf("status %q: %w", sd.ID, err))
			continue
		}
		statuses = append(statuses, s)
	}

	rules := make([]Rule, 0, len(doc.Rules))
	for _, rd := range doc.Rules {
		r, err := rd.toRule()
		if err != nil {
			problems = append(problems, fmt.Errorf("rule %s -> %s: %w", rd.From, rd.To, err))
			continue
		}
		rules = append(rules, r)
	}

	if err := errors.Join(problems...); err != nil {
		return nil, err
	}
	return NewGraph(statuses, rules)
}

func (rd ruleDocument) toRule() (Rule, error) {
	trigger, err := ParseTriggerType(rd.Trigger)
	if err != nil {
		return Rule{}, err
	}
	return NewRule(RuleParams{
		From:             StatusID(rd.From),
		To:               StatusID(rd.To),
		Trigger:          trigger,
		TriggerCondition: rd.Condition,
		RequireApproval:  rd.RequireApproval,
		ApprovalRoles:    toRoles(rd.ApprovalRoles),
		NotifyRoles:      toRoles(rd.NotifyRoles),
		IsActive:         boolOr(rd.Active, true),
	})
}

func toRoles(raw []string) []kernel.Role {
	out := make([]kernel.Role, len(raw))
	for i, r := range raw {
		out[i] = kernel.Role(r)
	}
	return out
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
