// Package authz is the membership authorization gate: pure capability
// checks over an explicit (auction policy, membership, item) tuple. It holds
// no state and performs no I/O; services load fresh snapshots and
// re-evaluate on every mutating request, because roles can change between
// reads.
package authz

import (
	"time"

	auctionmodels "bidhall/internal/auction/models"
	itemmodels "bidhall/internal/item/models"
)

// CanBid reports whether the member may bid on the item: they must be a
// member, must not be the item's creator, and the item must not have ended.
func CanBid(a *auctionmodels.Auction, m *auctionmodels.Membership, it *itemmodels.Item, now time.Time) bool {
	if m == nil {
		return false
	}
	if m.UserID == it.CreatorID {
		return false
	}
	return !it.IsEnded(a, now)
}

// CanEditItem reports whether the member may edit the item. The creator
// always may; the OWNER always may; an ADMIN may only when the item opts in
// via its editable-by-admins flag.
func CanEditItem(m *auctionmodels.Membership, it *itemmodels.Item) bool {
	if m == nil {
		return false
	}
	if m.UserID == it.CreatorID {
		return true
	}
	switch m.Role {
	case auctionmodels.RoleOwner:
		return true
	case auctionmodels.RoleAdmin:
		return it.EditableByAdmins
	default:
		return false
	}
}

// CanCreateItem reports whether the member may list a new item.
func CanCreateItem(m *auctionmodels.Membership) bool {
	return m != nil && m.Role.CanListItems()
}

// CanInvite reports whether the member may invite others: staff always may,
// regular members only when the auction allows member invites.
func CanInvite(a *auctionmodels.Auction, m *auctionmodels.Membership) bool {
	if m == nil {
		return false
	}
	return m.Role.IsStaff() || a.MemberCanInvite
}

// CanManageMembers reports whether the member may change roles or remove
// members.
func CanManageMembers(m *auctionmodels.Membership) bool {
	return m != nil && m.Role.IsStaff()
}

// CanCloseAuction reports whether the member may close the auction. Close is
// owner-only.
func CanCloseAuction(m *auctionmodels.Membership) bool {
	return m != nil && m.Role == auctionmodels.RoleOwner
}

// CanChangeRole reports whether actor may change target's role. The OWNER
// role is never reassigned, and nobody edits their own role.
func CanChangeRole(actor, target *auctionmodels.Membership) bool {
	if !CanManageMembers(actor) || target == nil {
		return false
	}
	if target.Role == auctionmodels.RoleOwner {
		return false
	}
	return actor.UserID != target.UserID
}

// CanRemoveMember reports whether actor may remove target. The OWNER cannot
// be removed; members do not remove themselves through the management API.
func CanRemoveMember(actor, target *auctionmodels.Membership) bool {
	return CanChangeRole(actor, target)
}
