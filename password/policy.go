package password

import (
	"errors"
	"fmt"
	"unicode"
)

// Policy validates candidate passwords before hashing. The zero value
// accepts anything; use [DefaultPolicy] for sane floors.
type Policy struct {
	MinLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireDigit   bool
	RequireSpecial bool
}

// DefaultPolicy returns the policy applied to reset and change operations
// when the caller does not override it.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:    10,
		RequireUpper: true,
		RequireLower: true,
		RequireDigit: true,
	}
}

// Validate checks candidate against the policy. The returned error message
// names the first unmet requirement and is safe to surface to end users.
func (p Policy) Validate(candidate string) error {
	if len(candidate) < p.MinLength {
		return fmt.Errorf("password must be at least %d characters", p.MinLength)
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range candidate {
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

	if p.RequireUpper && !hasUpper {
		return errors.New("password must contain an uppercase letter")
	}
	if p.RequireLower && !hasLower {
		return errors.New("password must contain a lowercase letter")
	}
	if p.RequireDigit && !hasDigit {
		return errors.New("password must contain a digit")
	}
	if p.RequireSpecial && !hasSpecial {
		return errors.New("password must contain a special character")
	}

	return nil
}
