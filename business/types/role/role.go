// Package role represents the workspace role type in the system.
package role

import "fmt"

// The set of roles that can be used.
var (
	Owner  = newRole("OWNER", 40)
	Admin  = newRole("ADMIN", 30)
	Member = newRole("MEMBER", 20)
	Viewer = newRole("VIEWER", 10)
)

// =============================================================================

// Set of known roles.
var roles = make(map[string]Role)

// Role represents a role a user holds inside a workspace.
type Role struct {
	value string
	level int
}

func newRole(role string, level int) Role {
	r := Role{role, level}
	roles[role] = r
	return r
}

// String returns the name of the role.
func (r Role) String() string {
	return r.value
}

// Equal provides support for the go-cmp package and testing.
func (r Role) Equal(r2 Role) bool {
	return r.value == r2.value
}

// AtLeast reports whether the role grants at least the access of min. The
// ordering is VIEWER < MEMBER < ADMIN < OWNER.
func (r Role) AtLeast(min Role) bool {
	return r.level >= min.level
}

// MarshalText provides support for logging and any marshal needs.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.value), nil
}

// =============================================================================

// Parse parses the string value and returns a role if one exists.
func Parse(value string) (Role, error) {
	role, exists := roles[value]
	if !exists {
		return Role{}, fmt.Errorf("invalid role %q", value)
	}

	return role, nil
}

// MustParse parses the string value and returns a role if one exists. If
// an error occurs the function panics.
func MustParse(value string) Role {
	role, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return role
}
