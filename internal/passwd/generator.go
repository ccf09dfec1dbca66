package passwd

import (
	"fmt"

	password "github.com/sethvargo/go-password/password"
)

const maxGenerateAttempts = 50

// Generate returns a random password that satisfies r.
func Generate(r Rule) (string, error) {
	length := r.MinLength
	if length < 12 {
		length = 12
	}
	if r.MaxLength > 0 && length > r.MaxLength {
		length = r.MaxLength
	}

	var digits, symbols int
	if r.ContainDigit {
		digits = 3
	}
	if r.ContainPunctuation {
		symbols = 2
	}
	// Repeats are only forbidden by the policy when the check is enabled.
	allowRepeat := !(r.NotRepeatedSymbol && r.NotContinuousCount > 0)

	var lastErr error
	for i := 0; i < maxGenerateAttempts; i++ {
		candidate, err := password.Generate(length, digits, symbols, !r.ContainUppercase, allowRepeat)
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		if lastErr = r.Validate(candidate); lastErr == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("failed to generate a password matching the rule: %w", lastErr)
}
