package workflow

import (
	"fmt"
	"strings"

	"tradeerp/internal/pkg/errs"
)

// StatusID is the stable key of a status. Display names may change, ids may not.
type StatusID string

func (id StatusID) String() string {
	return string(id)
}

// Status is a node of the workflow graph.
type Status struct {
	id          StatusID
	displayName string
	isDefault   bool
	isActive    bool
}

// NewStatus validates and builds a status node.
func NewStatus(id StatusID, displayName string, isDefault, isActive bool) (Status, error) {
	raw := strings.TrimSpace(string(id))
	if raw == "" {
		return Status{}, errs.NewValueIsRequiredError("status id")
	}
	if strings.ContainsAny(raw, " \t\n") {
		return Status{}, errs.NewValueIsInvalidErrorWithCause("status id", fmt.Errorf("%q contains whitespace", raw))
	}
	if strings.TrimSpace(displayName) == "" {
		displayName = raw
	}
	return Status{
		id:          StatusID(raw),
		displayName: displayName,
		isDefault:   isDefault,
		isActive:    isActive,
	}, nil
}

func (s Status) ID() StatusID          { return s.id }
func (s Status) DisplayName() string   { return s.displayName }
func (s Status) IsDefault() bool       { return s.isDefault }
func (s Status) IsActive() bool        { return s.isActive }
func (s Status) IsZero() bool          { return s.id == "" }
func (s Status) IsEqual(o Status) bool { return s.id == o.id }
