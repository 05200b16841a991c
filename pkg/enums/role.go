package enums

import "slices"

// UserRole is the platform-wide role stored on users.role.
type UserRole string

const (
	UserRoleAdmin             UserRole = "admin"
	UserRoleCompany           UserRole = "company"
	UserRoleCorporateEmployee UserRole = "corporateEmployee"
	UserRoleHomeChef          UserRole = "homeChef"
	UserRoleDeliveryPerson    UserRole = "deliveryPerson"
)

var validUserRoles = []UserRole{
	UserRoleAdmin,
	UserRoleCompany,
	UserRoleCorporateEmployee,
	UserRoleHomeChef,
	UserRoleDeliveryPerson,
}

func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	return slices.Contains(validUserRoles, r)
}

// RequiresCompany reports whether users with this role must reference a company.
func (r UserRole) RequiresCompany() bool {
	return r == UserRoleCorporateEmployee
}

// RequiresSpecialty reports whether users with this role must declare a specialty.
func (r UserRole) RequiresSpecialty() bool {
	return r == UserRoleHomeChef
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	return parse(validUserRoles, "user role", value)
}
