// Package permission computes, for an actor and an appointment, the matrix
// of actions the actor may perform. The resolver is pure: callers supply the
// current time and timezone so lock state is derived, never stored.
package permission

import (
	"time"

	"github.com/emaximovel/agenda/internal/agenda"
	"github.com/emaximovel/agenda/internal/scheduler"
)

// Set is the resolved permission matrix for one actor over one appointment.
type Set struct {
	SuperAdmin bool
	Creator    bool
	Admin      bool
	CoreEditor bool
	Shared     bool
	Locked     bool

	CanEditCore   bool
	CanEditStatus bool
	CanShare      bool
	CanDelete     bool
	// CanChangeOwner only opens the owner picker; the lifecycle engine still
	// enforces the locked reassignment rule against the proposed owner.
	CanChangeOwner bool
}

// CanSaveAnything reports whether the actor may touch the appointment at all.
func (s Set) CanSaveAnything() bool {
	return s.CanEditCore || s.CanEditStatus || s.CoreEditor || s.Shared
}

// Resolver derives permission sets. SuperAdminEmail names the single account
// that bypasses lock and ownership restrictions entirely.
type Resolver struct {
	SuperAdminEmail string
	Location        *time.Location
}

// Resolve computes the permission matrix. existing is nil for creation.
func (r Resolver) Resolve(actor agenda.Actor, existing *agenda.Appointment, now time.Time) Set {
	loc := r.Location
	if loc == nil {
		loc = time.Local
	}

	set := Set{
		SuperAdmin: r.SuperAdminEmail != "" && actor.Email == r.SuperAdminEmail,
		Admin:      actor.IsAdmin(),
	}
	if set.SuperAdmin {
		set.Creator = true
		set.CoreEditor = true
		set.CanEditCore = true
		set.CanEditStatus = true
		set.CanShare = existing == nil || !existing.IsEvent
		set.CanDelete = true
		set.CanChangeOwner = true
		return set
	}

	set.Creator = existing == nil || existing.CreatedBy == actor.Email
	set.CoreEditor = set.Admin || set.Creator
	set.Shared = existing != nil && existing.SharedWithContains(actor.Email)
	set.Locked = existing != nil && scheduler.Locked(existing.Date, existing.StartTime, now, loc)

	isEvent := existing != nil && existing.IsEvent

	set.CanEditCore = set.CoreEditor && !set.Locked
	// Status survives the lock for everyone with access: the outcome of a
	// visit is recorded after it started, by the creator, an admin or a
	// shared collaborator alike.
	set.CanEditStatus = set.CoreEditor || set.Shared
	set.CanShare = set.CoreEditor && !set.Locked && !isEvent
	set.CanDelete = set.CoreEditor && !set.Locked
	set.CanChangeOwner = set.Admin
	return set
}

// CanEditClientRow reports whether the actor may edit one client row: the
// row's own author or any core editor, and never on a locked appointment.
func (r Resolver) CanEditClientRow(set Set, actor agenda.Actor, row agenda.Client) bool {
	if set.SuperAdmin {
		return true
	}
	if set.Locked {
		return false
	}
	return set.CoreEditor || row.AddedBy == actor.Email
}

// OwnerReassignmentAllowed enforces the locked ownership rule: once locked,
// an admin who is not the creator may not move the appointment to a new
// owner or broker; only the creator or super-admin may.
func (r Resolver) OwnerReassignmentAllowed(set Set, ownerChanged, brokerChanged bool) bool {
	if set.SuperAdmin {
		return true
	}
	if !ownerChanged && !brokerChanged {
		return true
	}
	if !set.Locked {
		return true
	}
	return set.Creator
}
