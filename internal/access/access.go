// Package access decides what a caller may do with offer, catalog, logo and
// profile records. Every decision is a lookup in one table indexed by
// resource, tier and action.
package access

import "offers-marketplace/internal/domain"

// Tier is the caller's rank, lowest first.
type Tier int

const (
	TierAnonymous Tier = iota
	TierAuthenticated
	TierBrand
	TierStaff
	TierSuperuser
	tierCount
)

func (t Tier) String() string {
	switch t {
	case TierAnonymous:
		return "anonymous"
	case TierAuthenticated:
		return "authenticated"
	case TierBrand:
		return "brand"
	case TierStaff:
		return "staff"
	case TierSuperuser:
		return "superuser"
	}
	return "unknown"
}

// TierOf ranks a caller. Superuser wins over staff, staff over the brand role.
func TierOf(c domain.Caller) Tier {
	switch {
	case !c.Authenticated:
		return TierAnonymous
	case c.Superuser:
		return TierSuperuser
	case c.Staff:
		return TierStaff
	case c.Role == domain.RoleBrand:
		return TierBrand
	default:
		return TierAuthenticated
	}
}

type Action int

const (
	ActionViewModule Action = iota
	ActionCreate
	ActionRead
	ActionUpdate
	ActionDelete
	actionCount
)

func (a Action) String() string {
	switch a {
	case ActionViewModule:
		return "view_module"
	case ActionCreate:
		return "create"
	case ActionRead:
		return "read"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	}
	return "unknown"
}

type Resource int

const (
	ResourceOffer Resource = iota
	ResourceCatalog
	ResourceLogo
	ResourceProfile
	resourceCount
)

func (r Resource) String() string {
	switch r {
	case ResourceOffer:
		return "offer"
	case ResourceCatalog:
		return "catalog"
	case ResourceLogo:
		return "logo"
	case ResourceProfile:
		return "profile"
	}
	return "unknown"
}

type rule uint8

const (
	deny rule = iota
	allow
	ownerOnly
)

var rules = [resourceCount][tierCount][actionCount]rule{
	ResourceOffer: {
		//                  view   create read       update     delete
		TierAnonymous:     {deny, deny, deny, deny, deny},
		TierAuthenticated: {allow, deny, ownerOnly, ownerOnly, ownerOnly},
		TierBrand:         {allow, allow, ownerOnly, ownerOnly, ownerOnly},
		TierStaff:         {allow, allow, allow, allow, allow},
		TierSuperuser:     {allow, allow, allow, allow, allow},
	},
	ResourceCatalog: {
		TierAnonymous:     {deny, deny, allow, deny, deny},
		TierAuthenticated: {allow, deny, allow, deny, deny},
		TierBrand:         {allow, allow, allow, deny, deny},
		TierStaff:         {allow, allow, allow, allow, allow},
		TierSuperuser:     {allow, allow, allow, allow, allow},
	},
	ResourceLogo: {
		TierAnonymous:     {deny, deny, deny, deny, deny},
		TierAuthenticated: {allow, deny, allow, deny, deny},
		TierBrand:         {allow, deny, allow, deny, deny},
		TierStaff:         {allow, allow, allow, allow, allow},
		TierSuperuser:     {allow, allow, allow, allow, allow},
	},
	// Accounts file their own profile; only operators change subscription status.
	ResourceProfile: {
		TierAnonymous:     {deny, deny, deny, deny, deny},
		TierAuthenticated: {allow, allow, ownerOnly, deny, deny},
		TierBrand:         {allow, allow, ownerOnly, deny, deny},
		TierStaff:         {allow, allow, allow, allow, allow},
		TierSuperuser:     {allow, allow, allow, allow, allow},
	},
}

// Allowed reports whether c may perform action on a record of res owned by
// ownerID. ownerID is ignored for rules that do not depend on ownership and
// may be empty for actions that have no target record.
func Allowed(c domain.Caller, res Resource, action Action, ownerID string) bool {
	if res < 0 || res >= resourceCount || action < 0 || action >= actionCount {
		return false
	}
	switch rules[res][TierOf(c)][action] {
	case allow:
		return true
	case ownerOnly:
		return isOwner(c, ownerID)
	default:
		return false
	}
}

func isOwner(c domain.Caller, ownerID string) bool {
	return c.Authenticated && c.AccountID != "" && c.AccountID == ownerID
}

// Scope narrows an offer listing.
type Scope struct {
	// All is set when every row is visible.
	All bool
	// OwnerID restricts rows to one author when All is false. Empty means no rows.
	OwnerID string
}

// None reports whether the scope admits no rows at all.
func (s Scope) None() bool {
	return !s.All && s.OwnerID == ""
}

// Admits reports whether an offer authored by ownerID falls inside the scope.
func (s Scope) Admits(ownerID string) bool {
	return s.All || (s.OwnerID != "" && s.OwnerID == ownerID)
}

// OfferScope returns which offers c may enumerate.
func OfferScope(c domain.Caller) Scope {
	switch TierOf(c) {
	case TierSuperuser, TierStaff:
		return Scope{All: true}
	case TierBrand:
		return Scope{OwnerID: c.AccountID}
	default:
		return Scope{}
	}
}

// CanAssignAuthor reports whether c may choose an offer's authoring user.
// Everyone else has the author forced to themselves.
func CanAssignAuthor(c domain.Caller) bool {
	return TierOf(c) == TierSuperuser
}

// Deny turns a negative decision into the matching error: anonymous callers
// get ErrUnauthorized, everyone else ErrForbidden.
func Deny(c domain.Caller) error {
	if !c.Authenticated {
		return domain.ErrUnauthorized
	}
	return domain.ErrForbidden
}

// Check is Allowed followed by Deny.
func Check(c domain.Caller, res Resource, action Action, ownerID string) error {
	if Allowed(c, res, action, ownerID) {
		return nil
	}
	return Deny(c)
}
