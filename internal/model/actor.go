package model

// Actor is the authenticated identity performing a request.
// It is resolved once by the auth middleware and passed explicitly into every service call.
type Actor struct {
	ID         int
	Role       Role
	Department Department
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// HasDepartment is false for accounts created without a department.
func (a Actor) HasDepartment() bool {
	return a.Department != ""
}
