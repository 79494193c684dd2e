package workflow

import (
	"errors"
	"fmt"
	"slices"

	"tradeerp/internal/pkg/errs"
)

var ErrGraphIsNotConstructed = errors.New("Graph must be created via NewGraph constructor")

type edgeKey struct {
	from StatusID
	to   StatusID
}

// Graph is the immutable workflow definition. It is safe for concurrent use.
type Graph struct {
	statuses  map[StatusID]Status
	order     []StatusID
	rules     []Rule
	edges     map[edgeKey]Rule
	outgoing  map[StatusID][]Rule
	defaultID StatusID
}

// NewGraph validates statuses and rules and builds the graph.
//
// Construction fails on:
//   - zero or more than one default status, or an inactive default
//   - duplicate status ids
//   - rules referencing unknown statuses
//   - more than one rule for the same from -> to pair
func NewGraph(statuses []Status, rules []Rule) (*Graph, error) {
	g := &Graph{
		statuses: make(map[StatusID]Status, len(statuses)),
		order:    make([]StatusID, 0, len(statuses)),
		edges:    make(map[edgeKey]Rule, len(rules)),
		outgoing: make(map[StatusID][]Rule),
	}

	var problems []error
	var defaults []StatusID
	for _, s := range statuses {
		if s.IsZero() {
			problems = append(problems, errs.NewValueIsRequiredError("status id"))
			continue
		}
		if _, dup := g.statuses[s.id]; dup {
			problems = append(problems, errs.NewValueIsInvalidErrorWithCause(
				"status", fmt.Errorf("duplicate status id %q", s.id)))
			continue
		}
		g.statuses[s.id] = s
		g.order = append(g.order, s.id)
		if s.isDefault {
			defaults = append(defaults, s.id)
		}
	}

	switch len(defaults) {
	case 0:
		problems = append(problems, errs.NewValueIsInvalidErrorWithCause(
			"default status", errors.New("graph has no default status")))
	case 1:
		g.defaultID = defaults[0]
		if !g.statuses[g.defaultID].isActive {
			problems = append(problems, errs.NewValueIsInvalidErrorWithCause(
				"default status", fmt.Errorf("default status %q is inactive", g.defaultID)))
		}
	default:
		problems = append(problems, errs.NewValueIsInvalidErrorWithCause(
			"default status", fmt.Errorf("graph has %d default statuses %v", len(defaults), defaults)))
	}

	for _, r := range rules {
		if err := r.trigger.Validate(); err != nil {
			problems = append(problems, fmt.Errorf("rule %s: %w", r, err))
			continue
		}
		_, fromOK := g.statuses[r.from]
		_, toOK := g.statuses[r.to]
		if !fromOK || !toOK {
			problems = append(problems, errs.NewValueIsInvalidErrorWithCause(
				"rule", fmt.Errorf("rule %s references an unknown status", r)))
			continue
		}
		key := edgeKey{from: r.from, to: r.to}
		if _, dup := g.edges[key]; dup {
			problems = append(problems, errs.NewValueIsInvalidErrorWithCause(
				"rule", fmt.Errorf("duplicate rule %s -> %s", r.from, r.to)))
			continue
		}
		g.edges[key] = r
		g.rules = append(g.rules, r)
		g.outgoing[r.from] = append(g.outgoing[r.from], r)
	}

	if err := errors.Join(problems...); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Graph) Validate() error {
	if g == nil || g.defaultID == "" {
		return ErrGraphIsNotConstructed
	}
	return nil
}

// DefaultStatus returns the initial status of new orders.
func (g *Graph) DefaultStatus() Status {
	return g.statuses[g.defaultID]
}

// Status looks a status up by id, including inactive ones.
func (g *Graph) Status(id StatusID) (Status, bool) {
	s, ok := g.statuses[id]
	return s, ok
}

// Statuses returns all statuses in declaration order.
func (g *Graph) Statuses() []Status {
	out := make([]Status, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.statuses[id])
	}
	return out
}

// Rules returns all rules in declaration order, inactive ones included.
func (g *Graph) Rules() []Rule {
	return slices.Clone(g.rules)
}

// Rule returns the edge from -> to if one is declared, active or not.
func (g *Graph) Rule(from, to StatusID) (Rule, bool) {
	r, ok := g.edges[edgeKey{from: from, to: to}]
	return r, ok
}

// LegalRules returns the usable outgoing edges of from: active rules between
// active statuses.
func (g *Graph) LegalRules(from StatusID) []Rule {
	src, ok := g.statuses[from]
	if !ok || !src.isActive {
		return nil
	}
	var out []Rule
	for _, r := range g.outgoing[from] {
		if r.isActive && g.statuses[r.to].isActive {
			out = append(out, r)
		}
	}
	return out
}

// LegalTargets returns the statuses reachable from from in one legal step.
func (g *Graph) LegalTargets(from StatusID) []Status {
	rules := g.LegalRules(from)
	out := make([]Status, 0, len(rules))
	for _, r := range rules {
		out = append(out, g.statuses[r.to])
	}
	return out
}

// LegalTargetIDs is LegalTargets reduced to ids.
func (g *Graph) LegalTargetIDs(from StatusID) []StatusID {
	rules := g.LegalRules(from)
	out := make([]StatusID, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.to)
	}
	return out
}

func (g *Graph) IsLegalTransition(from, to StatusID) bool {
	_, ok := g.legalRule(from, to)
	return ok
}

// LegalRule returns the edge from -> to only if it is currently legal.
func (g *Graph) LegalRule(from, to StatusID) (Rule, bool) {
	return g.legalRule(from, to)
}

func (g *Graph) legalRule(from, to StatusID) (Rule, bool) {
	r, ok := g.edges[edgeKey{from: from, to: to}]
	if !ok || !r.isActive {
		return Rule{}, false
	}
	if !g.statuses[from].isActive || !g.statuses[to].isActive {
		return Rule{}, false
	}
	return r, true
}

// IsTerminal reports whether no legal transition leaves id.
func (g *Graph) IsTerminal(id StatusID) bool {
	return len(g.LegalRules(id)) == 0
}

// RulesByTrigger returns the active rules of the given trigger type.
func (g *Graph) RulesByTrigger(t TriggerType) []Rule {
	var out []Rule
	for _, r := range g.rules {
		if r.trigger == t && r.isActive {
			out = append(out, r)
		}
	}
	return out
}
