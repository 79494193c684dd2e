package order

import (
	"errors"
	"slices"
	"strings"
	"time"

	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/core/domain/model/workflow"
	"tradeerp/internal/pkg/errs"
)

// HistoryEntry records one accepted status transition. Entries are never
// mutated or deleted; the latest entry defines the current status.
type HistoryEntry struct {
	id         kernel.UUID
	orderID    kernel.UUID
	from       workflow.StatusID
	to         workflow.StatusID
	at         time.Time
	actorID    string
	actorRoles []kernel.Role
	reason     string
}

// NewHistoryEntry builds the record of a transition taken by actor at the given time.
func NewHistoryEntry(
	orderID kernel.UUID,
	from, to workflow.StatusID,
	actor kernel.Actor,
	reason string,
	at time.Time,
) (HistoryEntry, error) {
	return RestoreHistoryEntry(RestoreHistoryEntryParams{
		ID:         kernel.NewUUID(),
		OrderID:    orderID,
		From:       from,
		To:         to,
		At:         at,
		ActorID:    actor.ID(),
		ActorRoles: actor.Roles(),
		Reason:     reason,
	})
}

// RestoreHistoryEntryParams carries persisted history state.
type RestoreHistoryEntryParams struct {
	ID         kernel.UUID
	OrderID    kernel.UUID
	From       workflow.StatusID
	To         workflow.StatusID
	At         time.Time
	ActorID    string
	ActorRoles []kernel.Role
	Reason     string
}

func RestoreHistoryEntry(p RestoreHistoryEntryParams) (HistoryEntry, error) {
	var problems []error
	problems = append(problems, p.ID.Validate(), p.OrderID.Validate())
	if p.From == "" {
		problems = append(problems, errs.NewValueIsRequiredError("from status"))
	}
	if p.To == "" {
		problems = append(problems, errs.NewValueIsRequiredError("to status"))
	}
	if p.At.IsZero() {
		problems = append(problems, errs.NewValueIsRequiredError("transition time"))
	}
	if strings.TrimSpace(p.ActorID) == "" {
		problems = append(problems, errs.NewValueIsRequiredError("actor"))
	}
	if err := errors.Join(problems...); err != nil {
		return HistoryEntry{}, err
	}

	return HistoryEntry{
		id:         p.ID,
		orderID:    p.OrderID,
		from:       p.From,
		to:         p.To,
		at:         p.At.UTC(),
		actorID:    strings.TrimSpace(p.ActorID),
		actorRoles: slices.Clone(p.ActorRoles),
		reason:     strings.TrimSpace(p.Reason),
	}, nil
}

func (h HistoryEntry) ID() kernel.UUID         { return h.id }
func (h HistoryEntry) OrderID() kernel.UUID    { return h.orderID }
func (h HistoryEntry) From() workflow.StatusID { return h.from }
func (h HistoryEntry) To() workflow.StatusID   { return h.to }
func (h HistoryEntry) At() time.Time           { return h.at }
func (h HistoryEntry) ActorID() string         { return h.actorID }
func (h HistoryEntry) Reason() string          { return h.reason }
func (h HistoryEntry) IsZero() bool            { return h.id.IsZero() }

func (h HistoryEntry) ActorRoles() []kernel.Role {
	return slices.Clone(h.actorRoles)
}
