package models

// Overridable is a contact value that either inherits from the directory
// record or carries a tenant-specific override.
type Overridable[T any] struct {
	Inherited bool `json:"is_inherited"`
	Value     T    `json:"value"`
}

// Inherit returns an Overridable that follows the directory value.
func Inherit[T any]() Overridable[T] {
	return Overridable[T]{Inherited: true}
}

// Override returns an Overridable pinned to v.
func Override[T any](v T) Overridable[T] {
	return Overridable[T]{Value: v}
}

// Effective resolves o against the directory value.
func Effective[T any](o Overridable[T], fallback T) T {
	if o.Inherited {
		return fallback
	}
	return o.Value
}

// Phone groups the number with its country code; both share one inheritance flag.
type Phone struct {
	Number      string `json:"phone"`
	CountryCode string `json:"phone_country_code"`
}

const DefaultPhoneCountryCode = "86"
