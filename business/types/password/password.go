// Package password represents a password in the system and carries the
// complexity policy applied to every new credential.
package password

import (
	"errors"
	"unicode"
	"unicode/utf8"
)

// MinLength is the minimum number of characters a password must have.
const MinLength = 12

// The set of policy violations Validate can report.
var (
	ErrTooShort  = errors.New("password must be at least 12 characters long")
	ErrNoUpper   = errors.New("password must contain an uppercase letter")
	ErrNoLower   = errors.New("password must contain a lowercase letter")
	ErrNoDigit   = errors.New("password must contain a digit")
	ErrNoSpecial = errors.New("password must contain a special character")
)

// =============================================================================

// Password represents a password in the system that satisfies the policy.
type Password struct {
	value string
}

// String returns "xxxxxxxx" so a password can never leak into logs.
func (p Password) String() string {
	return "xxxxxxxx"
}

// Equal provides support for the go-cmp package and testing.
func (p Password) Equal(p2 Password) bool {
	return p.value == p2.value
}

// Value returns the raw password for hashing.
func (p Password) Value() string {
	return p.value
}

// =============================================================================

// Validate checks the value against the complexity policy and returns every
// violated rule, not just the first. An empty slice means the password is
// acceptable.
func Validate(value string) []error {
	var violations []error

	if utf8.RuneCountInString(value) < MinLength {
		violations = append(violations, ErrTooShort)
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range value {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	if !hasUpper {
		violations = append(violations, ErrNoUpper)
	}
	if !hasLower {
		violations = append(violations, ErrNoLower)
	}
	if !hasDigit {
		violations = append(violations, ErrNoDigit)
	}
	if !hasSpecial {
		violations = append(violations, ErrNoSpecial)
	}

	return violations
}

// Parse parses the string value and returns a password if the value complies
// with the full policy. The returned error aggregates every violation.
func Parse(value string) (Password, error) {
	if violations := Validate(value); len(violations) > 0 {
		return Password{}, errors.Join(violations...)
	}

	return Password{value}, nil
}

// MustParse parses the string value and returns a password if the value
// complies with the policy. If an error occurs the function panics.
func MustParse(value string) Password {
	pwd, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return pwd
}
