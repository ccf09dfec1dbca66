// Package passwd implements password policies of the local data source plugin.
package passwd

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/hashicorp/go-multierror"
)

// Punctuation is the set of characters counted as punctuation.
const Punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

var keyboardRows = []string{"1234567890", "qwertyuiop", "asdfghjkl", "zxcvbnm"}

// Rule is a password policy.
type Rule struct {
	MinLength          int  `json:"min_length"`
	MaxLength          int  `json:"max_length"`
	ContainLowercase   bool `json:"contain_lowercase"`
	ContainUppercase   bool `json:"contain_uppercase"`
	ContainDigit       bool `json:"contain_digit"`
	ContainPunctuation bool `json:"contain_punctuation"`

	// Sequence checks apply to runs of NotContinuousCount characters; zero disables them.
	NotContinuousCount  int  `json:"not_continuous_count"`
	NotKeyboardOrder    bool `json:"not_keyboard_order"`
	NotContinuousLetter bool `json:"not_continuous_letter"`
	NotContinuousDigit  bool `json:"not_continuous_digit"`
	NotRepeatedSymbol   bool `json:"not_repeated_symbol"`
}

// DefaultRule is the policy of a freshly created local data source.
func DefaultRule() Rule {
	return Rule{
		MinLength:          12,
		MaxLength:          32,
		ContainLowercase:   true,
		ContainUppercase:   true,
		ContainDigit:       true,
		ContainPunctuation: true,
	}
}

// Check validates the rule itself.
func (r Rule) Check() error {
	var result *multierror.Error
	if r.MinLength < 8 || r.MinLength > 32 {
		result = multierror.Append(result, fmt.Errorf("min_length must be between 8 and 32"))
	}
	if r.MaxLength < r.MinLength || r.MaxLength > 64 {
		result = multierror.Append(result, fmt.Errorf("max_length must be between min_length and 64"))
	}
	if !r.ContainLowercase && !r.ContainUppercase && !r.ContainDigit && !r.ContainPunctuation {
		result = multierror.Append(result, fmt.Errorf("at least one character class is required"))
	}
	if r.NotContinuousCount != 0 && (r.NotContinuousCount < 3 || r.NotContinuousCount > 10) {
		result = multierror.Append(result, fmt.Errorf("not_continuous_count must be between 3 and 10"))
	}
	return result.ErrorOrNil()
}

// Validate returns every rule the password violates, nil if it complies.
func (r Rule) Validate(password string) error {
	var result *multierror.Error

	n := len([]rune(password))
	if n < r.MinLength {
		result = multierror.Append(result, fmt.Errorf("length must be at least %d", r.MinLength))
	}
	if r.MaxLength > 0 && n > r.MaxLength {
		result = multierror.Append(result, fmt.Errorf("length must be at most %d", r.MaxLength))
	}

	var lower, upper, digit, punct bool
	for _, c := range password {
		switch {
		case unicode.IsLower(c):
			lower = true
		case unicode.IsUpper(c):
			upper = true
		case unicode.IsDigit(c):
			digit = true
		case strings.ContainsRune(Punctuation, c):
			punct = true
		}
	}
	if r.ContainLowercase && !lower {
		result = multierror.Append(result, fmt.Errorf("must contain a lowercase letter"))
	}
	if r.ContainUppercase && !upper {
		result = multierror.Append(result, fmt.Errorf("must contain an uppercase letter"))
	}
	if r.ContainDigit && !digit {
		result = multierror.Append(result, fmt.Errorf("must contain a digit"))
	}
	if r.ContainPunctuation && !punct {
		result = multierror.Append(result, fmt.Errorf("must contain a punctuation character"))
	}

	if k := r.NotContinuousCount; k > 0 {
		lowered := strings.ToLower(password)
		if r.NotKeyboardOrder && hasKeyboardRun(lowered, k) {
			result = multierror.Append(result, fmt.Errorf("must not contain %d keys in keyboard order", k))
		}
		if r.NotContinuousLetter && hasSequence(lowered, k, unicode.IsLetter) {
			result = multierror.Append(result, fmt.Errorf("must not contain %d consecutive letters", k))
		}
		if r.NotContinuousDigit && hasSequence(lowered, k, unicode.IsDigit) {
			result = multierror.Append(result, fmt.Errorf("must not contain %d consecutive digits", k))
		}
		if r.NotRepeatedSymbol && hasRepeat(password, k) {
			result = multierror.Append(result, fmt.Errorf("must not repeat a character %d times", k))
		}
	}

	if result == nil {
		return nil
	}
	result.ErrorFormat = formatList
	return result
}

// Tips describes the rule for display next to a password input.
func (r Rule) Tips() []string {
	var classes []string
	if r.ContainLowercase {
		classes = append(classes, "lowercase letters")
	}
	if r.ContainUppercase {
		classes = append(classes, "uppercase letters")
	}
	if r.ContainDigit {
		classes = append(classes, "digits")
	}
	if r.ContainPunctuation {
		classes = append(classes, "punctuation")
	}

	tips := []string{fmt.Sprintf("length between %d and %d characters", r.MinLength, r.MaxLength)}
	if len(classes) > 0 {
		tips = append(tips, "must contain "+strings.Join(classes, ", "))
	}
	if k := r.NotContinuousCount; k > 0 {
		if r.NotKeyboardOrder {
			tips = append(tips, fmt.Sprintf("no %d keys in keyboard order", k))
		}
		if r.NotContinuousLetter {
			tips = append(tips, fmt.Sprintf("no %d consecutive letters", k))
		}
		if r.NotContinuousDigit {
			tips = append(tips, fmt.Sprintf("no %d consecutive digits", k))
		}
		if r.NotRepeatedSymbol {
			tips = append(tips, fmt.Sprintf("no character repeated %d times", k))
		}
	}
	return tips
}

func formatList(errs []error) string {
	parts := make([]string, len(errs))
	for i, err := range errs {
		parts[i] = err.Error()
	}
	return strings.Join(parts, "; ")
}

// hasSequence reports an ascending or descending run of k characters of one class.
func hasSequence(s string, k int, class func(rune) bool) bool {
	rs := []rune(s)
	up, down := 1, 1
	for i := 1; i < len(rs); i++ {
		if !class(rs[i]) || !class(rs[i-1]) {
			up, down = 1, 1
			continue
		}
		switch rs[i] - rs[i-1] {
		case 1:
			up, down = up+1, 1
		case -1:
			up, down = 1, down+1
		default:
			up, down = 1, 1
		}
		if up >= k || down >= k {
			return true
		}
	}
	return false
}

func hasKeyboardRun(s string, k int) bool {
	rs := []rune(s)
	for i := 0; i+k <= len(rs); i++ {
		window := string(rs[i : i+k])
		reversed := reverse(window)
		for _, row := range keyboardRows {
			if strings.Contains(row, window) || strings.Contains(row, reversed) {
				return true
			}
		}
	}
	return false
}

func hasRepeat(s string, k int) bool {
	rs := []rune(s)
	run := 1
	for i := 1; i < len(rs); i++ {
		if rs[i] == rs[i-1] {
			run++
			if run >= k {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}

func reverse(s string) string {
	rs := []rune(s)
	for i, j := 0, len(rs)-1; i < j; i, j = i+1, j-1 {
		rs[i], rs[j] = rs[j], rs[i]
	}
	return string(rs)
}
