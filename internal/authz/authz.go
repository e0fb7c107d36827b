package authz

import "sort"

// Recognized role vocabulary, carried on the X-Role header by the transport.
const (
	RoleContentAdmin     = "content_admin"
	RoleBuyer            = "buyer"
	RoleFulfillmentAdmin = "fulfillment_admin"
)

// Op names a core operation for permission checks.
type Op string

const (
	OpCreateProduct   Op = "product.create"
	OpListProducts    Op = "product.list"
	OpGetProduct      Op = "product.get"
	OpGetVariant      Op = "variant.get"
	OpCheckout        Op = "order.create"
	OpListOrders      Op = "order.list"
	OpGetOrder        Op = "order.get"
	OpTransitionOrder Op = "order.transition"
	OpCancelOrder     Op = "order.cancel"
)

// permissions maps each operation to its allowed roles. Catalog reads are
// open to anyone, so they have no entry here and public lists them instead.
var permissions = map[Op]map[string]bool{
	OpCreateProduct:   {RoleContentAdmin: true},
	OpCheckout:        {RoleBuyer: true},
	OpListOrders:      {RoleBuyer: true, RoleFulfillmentAdmin: true},
	OpGetOrder:        {RoleBuyer: true, RoleFulfillmentAdmin: true},
	OpTransitionOrder: {RoleFulfillmentAdmin: true},
	OpCancelOrder:     {RoleBuyer: true, RoleFulfillmentAdmin: true},
}

var public = map[Op]bool{
	OpListProducts: true,
	OpGetProduct:   true,
	OpGetVariant:   true,
}

// Allowed reports whether role may perform op.
func Allowed(op Op, role string) bool {
	if public[op] {
		return true
	}
	return permissions[op][role]
}

// Roles returns the sorted role set allowed for op, for error details.
func Roles(op Op) []string {
	out := make([]string, 0, len(permissions[op]))
	for r := range permissions[op] {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
