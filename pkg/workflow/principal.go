package workflow

import "github.com/grad-lab/capstone-backend/dao/model"

// Principal is the pre-authenticated caller identity. It is passed explicitly
// into every operation; the engine never reads ambient auth state.
type Principal struct {
	UserID    uint
	Username  string
	Role      model.Role
	FacultyID uint
}

// IsHead reports whether the caller may take department-head decisions.
func (p Principal) IsHead() bool {
	return p.Role == model.RoleDeptHead || p.Role == model.RoleDean || p.Role == model.RoleAdmin
}

// IsFaculty reports whether the caller holds any faculty-grade role.
func (p Principal) IsFaculty() bool {
	return p.Role >= model.RoleFaculty
}
