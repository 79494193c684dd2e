package kernel

import (
	"fmt"
	"slices"
	"strings"

	"tradeerp/internal/pkg/errs"
)

// SystemActorID identifies transitions driven by lifecycle events and jobs.
const SystemActorID = "system"

// Role is an opaque role identifier such as "sales" or "manager".
// Role resolution belongs to the surrounding application.
type Role string

// NewRole trims and validates a role identifier.
func NewRole(raw string) (Role, error) {
	role := strings.TrimSpace(raw)
	if role == "" {
		return "", errs.NewValueIsRequiredError("role")
	}
	if strings.ContainsAny(role, " \t\n,") {
		return "", errs.NewValueIsInvalidErrorWithCause("role", fmt.Errorf("%q contains whitespace or commas", role))
	}
	return Role(role), nil
}

func (r Role) String() string {
	return string(r)
}

// Actor is the user or process requesting a change.
type Actor struct {
	id    string
	roles []Role
}

// NewActor builds an actor from a non-empty identifier and its roles.
func NewActor(id string, roles ...Role) (Actor, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Actor{}, errs.NewValueIsRequiredError("actor")
	}
	for _, role := range roles {
		if _, err := NewRole(string(role)); err != nil {
			return Actor{}, err
		}
	}
	return Actor{id: id, roles: slices.Clone(roles)}, nil
}

// SystemActor returns the actor used for event- and time-driven transitions.
func SystemActor() Actor {
	return Actor{id: SystemActorID}
}

func (a Actor) ID() string {
	return a.id
}

func (a Actor) Roles() []Role {
	return slices.Clone(a.roles)
}

func (a Actor) IsSystem() bool {
	return a.id == SystemActorID
}

// HasAnyRole reports whether the actor holds at least one of the given roles.
func (a Actor) HasAnyRole(roles []Role) bool {
	for _, r := range roles {
		if slices.Contains(a.roles, r) {
			return true
		}
	}
	return false
}

// RoleStrings converts roles for persistence and messaging.
func RoleStrings(roles []Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
