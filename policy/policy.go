// Package policy decides whether a caller may perform an operation. Every
// service asks it before touching storage.
package policy

import (
	"github.com/ABH36/Machine-test/apperr"
	"github.com/ABH36/Machine-test/models"
)

// Principal is the caller identity. The zero value is an anonymous caller.
type Principal struct {
	UserID int
	Role   models.Role
}

func (p Principal) Authenticated() bool {
	return p.UserID != 0
}

type Capability uint8

const (
	CapAuthenticated Capability = 1 << iota
	CapUser
	CapVendor
	CapAdmin
	CapOwnsResource
)

type CapabilitySet uint8

func (s CapabilitySet) Has(c Capability) bool {
	return s&CapabilitySet(c) != 0
}

// Resource describes the target of an action. OwnerID is the owning vendor of
// a product; Role is the role of a target user or a requested registration role.
type Resource struct {
	OwnerID int
	Role    models.Role
}

// Capabilities derives the capability set of p against r.
func Capabilities(p Principal, r Resource) CapabilitySet {
	var s CapabilitySet
	if !p.Authenticated() {
		return s
	}
	s |= CapabilitySet(CapAuthenticated)
	switch p.Role {
	case models.RoleUser:
		s |= CapabilitySet(CapUser)
	case models.RoleVendor:
		s |= CapabilitySet(CapVendor)
	case models.RoleAdmin:
		s |= CapabilitySet(CapAdmin)
	}
	if r.OwnerID != 0 && r.OwnerID == p.UserID {
		s |= CapabilitySet(CapOwnsResource)
	}
	return s
}

type Action string

const (
	ActionRegister           Action = "register"
	ActionViewProducts       Action = "products.view"
	ActionCreateProduct      Action = "products.create"
	ActionUpdateProduct      Action = "products.update"
	ActionDeleteProduct      Action = "products.delete"
	ActionListVendorProducts Action = "products.list_vendor"
	ActionPlaceOrder         Action = "orders.place"
	ActionListOwnOrders      Action = "orders.list_own"
	ActionListVendorOrders   Action = "orders.list_vendor"
	ActionSetOrderStatus     Action = "orders.set_status"
	ActionListUsers          Action = "users.list"
	ActionDeleteUser         Action = "users.delete"
	ActionViewStats          Action = "stats.view"
	ActionUploadAsset        Action = "assets.upload"
)

type Decision struct {
	Allowed bool
	Kind    apperr.Kind
	Reason  string
}

var allow = Decision{Allowed: true}

func deny(kind apperr.Kind, reason string) Decision {
	return Decision{Kind: kind, Reason: reason}
}

// Err converts a denial into an *apperr.Error; it returns nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return apperr.New(d.Kind, "%s", d.Reason)
}

type rule func(caps CapabilitySet, r Resource) Decision

func public(CapabilitySet, Resource) Decision { return allow }

func authenticated(caps CapabilitySet, _ Resource) Decision {
	if !caps.Has(CapAuthenticated) {
		return deny(apperr.KindUnauthorized, "Not authorized, no token")
	}
	return allow
}

func vendorOnly(reason string) rule {
	return func(caps CapabilitySet, r Resource) Decision {
		if d := authenticated(caps, r); !d.Allowed {
			return d
		}
		if !caps.Has(CapVendor) {
			return deny(apperr.KindForbidden, reason)
		}
		return allow
	}
}

func ownedByVendor(caps CapabilitySet, r Resource) Decision {
	if d := vendorOnly("Only vendors can modify products")(caps, r); !d.Allowed {
		return d
	}
	if !caps.Has(CapOwnsResource) {
		return deny(apperr.KindForbidden, "Not authorized to modify this product")
	}
	return allow
}

func vendorOrAdmin(caps CapabilitySet, r Resource) Decision {
	if d := authenticated(caps, r); !d.Allowed {
		return d
	}
	if !caps.Has(CapVendor) && !caps.Has(CapAdmin) {
		return deny(apperr.KindForbidden, "Only vendors or admins can update order status")
	}
	return allow
}

func adminOnly(caps CapabilitySet, r Resource) Decision {
	if d := authenticated(caps, r); !d.Allowed {
		return d
	}
	if !caps.Has(CapAdmin) {
		return deny(apperr.KindForbidden, "Admin access required")
	}
	return allow
}

func deleteUser(caps CapabilitySet, r Resource) Decision {
	if d := adminOnly(caps, r); !d.Allowed {
		return d
	}
	if r.Role == models.RoleAdmin {
		return deny(apperr.KindForbidden, "Cannot delete an admin account")
	}
	return allow
}

func register(_ CapabilitySet, r Resource) Decision {
	switch r.Role {
	case models.RoleUser, models.RoleVendor:
		return allow
	case models.RoleAdmin:
		return deny(apperr.KindForbidden, "Cannot register as admin directly")
	default:
		return deny(apperr.KindValidation, "Unknown role")
	}
}

var rules = map[Action]rule{
	ActionRegister:           register,
	ActionViewProducts:       public,
	ActionCreateProduct:      vendorOnly("Only vendors can create products"),
	ActionUpdateProduct:      ownedByVendor,
	ActionDeleteProduct:      ownedByVendor,
	ActionListVendorProducts: vendorOnly("Only vendors can list their products"),
	ActionPlaceOrder:         authenticated,
	ActionListOwnOrders:      authenticated,
	ActionListVendorOrders:   authenticated,
	ActionSetOrderStatus:     vendorOrAdmin,
	ActionListUsers:          adminOnly,
	ActionDeleteUser:         deleteUser,
	ActionViewStats:          adminOnly,
	ActionUploadAsset:        authenticated,
}

// Evaluate applies the rule for action. Unknown actions are denied.
func Evaluate(p Principal, action Action, r Resource) Decision {
	rule, ok := rules[action]
	if !ok {
		return deny(apperr.KindForbidden, "Unknown action")
	}
	return rule(Capabilities(p, r), r)
}

// Precheck runs the role part of action's rule with the caller as the owner of
// the target. It rejects anonymous and wrong-role callers before any lookup or
// request parsing; ownership is checked again once the target is known.
func Precheck(p Principal, action Action) error {
	return Authorize(p, action, Resource{OwnerID: p.UserID})
}

// Authorize is Evaluate(...).Err().
func Authorize(p Principal, action Action, r Resource) error {
	return Evaluate(p, action, r).Err()
}
