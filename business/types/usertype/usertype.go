// Package usertype represents the user type discriminator in the system.
package usertype

import "fmt"

// The set of user types that can be used.
var (
	PlatformAdmin    = newUserType("PLATFORM_ADMIN")
	WorkspaceAdmin   = newUserType("WORKSPACE_ADMIN")
	TeamMember       = newUserType("TEAM_MEMBER")
	ExternalCustomer = newUserType("EXTERNAL_CUSTOMER")
)

// =============================================================================

// Set of known user types.
var userTypes = make(map[string]UserType)

// UserType represents a user type in the system.
type UserType struct {
	value string
}

func newUserType(userType string) UserType {
	ut := UserType{userType}
	userTypes[userType] = ut
	return ut
}

// String returns the name of the user type.
func (ut UserType) String() string {
	return ut.value
}

// Equal provides support for the go-cmp package and testing.
func (ut UserType) Equal(ut2 UserType) bool {
	return ut.value == ut2.value
}

// MarshalText provides support for logging and any marshal needs.
func (ut UserType) MarshalText() ([]byte, error) {
	return []byte(ut.value), nil
}

// =============================================================================

// Parse parses the string value and returns a user type if one exists.
func Parse(value string) (UserType, error) {
	userType, exists := userTypes[value]
	if !exists {
		return UserType{}, fmt.Errorf("invalid user type %q", value)
	}

	return userType, nil
}

// MustParse parses the string value and returns a user type if one exists. If
// an error occurs the function panics.
func MustParse(value string) UserType {
	userType, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return userType
}
