package workflow

// Role is the business role of the acting user
type Role string

const (
	RolePurchasing Role = "purchasing"
	RoleLegal      Role = "legal"
	RoleOperations Role = "operations"
	RoleSupplier   Role = "supplier"
)

var validRoles = map[Role]bool{
	RolePurchasing: true,
	RoleLegal:      true,
	RoleOperations: true,
	RoleSupplier:   true,
}

// IsValid returns true if the role is known
func (r Role) IsValid() bool {
	return validRoles[r]
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// Actor identifies who is performing an action. CompanyID is only
// meaningful for supplier actors.
type Actor struct {
	ID        int64 `json:"id"`
	Role      Role  `json:"role"`
	CompanyID int64 `json:"company_id,omitempty"`
}

// IsSupplierFor reports whether the actor is a supplier user of the given company
func (a Actor) IsSupplierFor(supplierID int64) bool {
	return a.Role == RoleSupplier && a.CompanyID != 0 && a.CompanyID == supplierID
}
