// Constants mapped to database columns.
// Gin rejects zero values on fields tagged `binding:"required"`, so the first
// constant of every enum starts at iota + 1 to keep zero out of the legal range.
package model

// Role is the platform-wide role carried in the JWT.
// The ladder is ordered: a department head also passes faculty checks.
type Role uint8

const (
	RoleStudent  Role = iota + 1 // student account
	RoleFaculty                  // lecturer / advisor account
	RoleDeptHead                 // head of department
	RoleDean                     // dean / defense secretary
	RoleAdmin                    // platform administrator
)

func (r Role) String() string {
	switch r {
	case RoleStudent:
		return "student"
	case RoleFaculty:
		return "faculty"
	case RoleDeptHead:
		return "dept_head"
	case RoleDean:
		return "dean"
	case RoleAdmin:
		return "admin"
	}
	return "unknown"
}

// UserStatus is the account status.
type UserStatus uint8

const (
	UserStatusPending  UserStatus = iota + 1 // created, not yet activated
	UserStatusActive
	UserStatusInactive
)

// MemberRole is the role a user holds inside one proposed project.
type MemberRole string

const (
	MemberRoleStudent MemberRole = "student"
	MemberRoleAdvisor MemberRole = "advisor"
)
