// Package policy is the single authorization decision point. Every core
// operation asks Authorize before touching data; the rules live here and
// nowhere else.
package policy

import (
	id "grameengo/pkg/domain"
	dErrors "grameengo/pkg/domain-errors"
)

type Action string

const (
	ActionApplicationCreate     Action = "application.create"
	ActionApplicationRead       Action = "application.read"
	ActionApplicationList       Action = "application.list"
	ActionApplicationTransition Action = "application.transition"
	ActionAnalyticsRead         Action = "analytics.read"
	ActionMFICreate             Action = "mfi.create"
	ActionNotificationRead      Action = "notification.read"
)

// Resource describes the application an action targets. Nil for actions
// that do not target one record.
type Resource struct {
	OwnerID id.UserID
	MFIID   id.MFIID
}

// Decision is the outcome of Authorize. Reason is empty when allowed.
type Decision struct {
	Allowed bool
	Reason  string
}

var allow = Decision{Allowed: true}

func deny(reason string) Decision { return Decision{Reason: reason} }

// Err converts a denial into an *dErrors.AuthorizationError, nil when
// allowed.
func (d Decision) Err(action Action) error {
	if d.Allowed {
		return nil
	}
	return dErrors.NewAuthorization(string(action), d.Reason)
}

// Authorize decides whether actor may perform action on res.
//
//   - borrowers create, read and list their own applications only
//   - officers and admins read, list and transition every application; an
//     officer scoped to one MFI only sees that MFI's applications
//   - analytics: staff only, scoped like listing
//   - MFI creation: admin only
//   - every authenticated actor reads their own notifications
func Authorize(actor id.Actor, action Action, res *Resource) Decision {
	if !actor.Role.IsValid() || actor.ID.IsNil() {
		return deny(dErrors.ReasonWrongRole)
	}

	switch action {
	case ActionApplicationCreate:
		if actor.Role != id.RoleBorrower {
			return deny(dErrors.ReasonWrongRole)
		}
		if res != nil && res.OwnerID != actor.ID {
			return deny(dErrors.ReasonNotOwner)
		}
		return allow

	case ActionApplicationRead:
		if actor.Role == id.RoleBorrower {
			if res == nil || res.OwnerID != actor.ID {
				return deny(dErrors.ReasonNotOwner)
			}
			return allow
		}
		return staffScope(actor, res)

	case ActionApplicationList, ActionNotificationRead:
		return allow

	case ActionApplicationTransition:
		if !actor.Role.IsStaff() {
			return deny(dErrors.ReasonWrongRole)
		}
		return staffScope(actor, res)

	case ActionAnalyticsRead:
		if !actor.Role.IsStaff() {
			return deny(dErrors.ReasonWrongRole)
		}
		return allow

	case ActionMFICreate:
		if actor.Role != id.RoleAdmin {
			return deny(dErrors.ReasonWrongRole)
		}
		return allow
	}
	return deny(dErrors.ReasonWrongRole)
}

func staffScope(actor id.Actor, res *Resource) Decision {
	if actor.HasMFIScope() && res != nil && res.MFIID != actor.MFIID {
		return deny(dErrors.ReasonOutOfScope)
	}
	return allow
}

// Require is Authorize returning an error.
func Require(actor id.Actor, action Action, res *Resource) error {
	return Authorize(actor, action, res).Err(action)
}

// Filter restricts which applications a list or aggregate sees. Zero
// fields mean unrestricted.
type Filter struct {
	BorrowerID id.UserID
	MFIID      id.MFIID
}

// Matches reports whether an application owned by borrower at mfi passes.
func (f Filter) Matches(borrower id.UserID, mfi id.MFIID) bool {
	if !f.BorrowerID.IsNil() && f.BorrowerID != borrower {
		return false
	}
	if !f.MFIID.IsNil() && f.MFIID != mfi {
		return false
	}
	return true
}

// IsPlatformWide reports whether the filter lets everything through.
func (f Filter) IsPlatformWide() bool { return f.BorrowerID.IsNil() && f.MFIID.IsNil() }

// Scope is the list filter for actor: borrowers see their own applications,
// MFI-scoped officers see their institution, everyone else sees all.
func Scope(actor id.Actor) Filter {
	switch {
	case actor.Role == id.RoleBorrower:
		return Filter{BorrowerID: actor.ID}
	case actor.HasMFIScope():
		return Filter{MFIID: actor.MFIID}
	}
	return Filter{}
}
