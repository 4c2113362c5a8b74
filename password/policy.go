package password

import (
	"errors"
	"regexp"
)

// Strength policy character classes. A password must contain at least one
// character from each class and meet the minimum length.
var (
	uppercasePattern = regexp.MustCompile(`[A-Z]`)
	lowercasePattern = regexp.MustCompile(`[a-z]`)
	digitPattern     = regexp.MustCompile(`[0-9]`)
	specialPattern   = regexp.MustCompile(`[^A-Za-z0-9]`)
)

// PolicyMessage is the user-facing description of the full policy. Naming the
// rule is acceptable for validation errors; the policy is not sensitive.
const PolicyMessage = "Password must be at least 8 characters with uppercase, lowercase, number, and special character"

// Policy checks password strength. The zero value is not usable; use
// DefaultPolicy or construct with a MinLength.
type Policy struct {
	MinLength int
}

// DefaultPolicy returns the standard policy: minimum 8 characters, one
// uppercase, one lowercase, one digit, one special character.
func DefaultPolicy() Policy {
	return Policy{MinLength: 8}
}

// Check returns nil if the password satisfies the policy. The same policy is
// applied at registration and at reset redemption.
func (p Policy) Check(password string) error {
	if len(password) < p.MinLength {
		return errors.New(PolicyMessage)
	}
	if !uppercasePattern.MatchString(password) ||
		!lowercasePattern.MatchString(password) ||
		!digitPattern.MatchString(password) ||
		!specialPattern.MatchString(password) {
		return errors.New(PolicyMessage)
	}
	return nil
}

// IsStrong reports whether the password satisfies the policy.
func (p Policy) IsStrong(password string) bool {
	return p.Check(password) == nil
}
