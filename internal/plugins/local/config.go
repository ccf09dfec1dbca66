// Package local holds the configuration of the local (credential storing) data source plugin.
package local

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/identity-tenancy-api/internal/models/shared"
	"github.com/identity-tenancy-api/internal/passwd"
)

// NeverExpire is the ValidTime of passwords that do not expire.
const NeverExpire = -1

var allowedValidTimes = map[int]bool{30: true, 60: true, 90: true, 180: true, 365: true, NeverExpire: true}

// NotificationTemplate is the message sent through one method for one scene.
type NotificationTemplate struct {
	Method  shared.NotificationMethod `json:"method"`
	Scene   string                    `json:"scene"`
	Title   string                    `json:"title,omitempty"`
	Sender  string                    `json:"sender"`
	Content string                    `json:"content"`
}

// NotificationConfig lists the methods a notice goes out through.
type NotificationConfig struct {
	EnabledMethods []shared.NotificationMethod `json:"enabled_methods"`
	Templates      []NotificationTemplate      `json:"templates"`
}

// PasswordInitialConfig controls how first passwords are generated and
// delivered, and whether they must be changed.
type PasswordInitialConfig struct {
	ForceChangeAtFirstLogin       bool                          `json:"force_change_at_first_login"`
	CannotUsePreviousPassword     bool                          `json:"cannot_use_previous_password"`
	ReservedPreviousPasswordCount int                           `json:"reserved_previous_password_count"`
	GenerateMethod                shared.PasswordGenerateMethod `json:"generate_method"`
	FixedPassword                 string                        `json:"fixed_password,omitempty"`
	Notification                  NotificationConfig            `json:"notification"`
}

// PasswordExpireConfig sets the password lifetime. ValidTime is one of 30,
// 60, 90, 180, 365 or NeverExpire.
type PasswordExpireConfig struct {
	RemindBeforeExpire []int              `json:"remind_before_expire"`
	ValidTime          int                `json:"valid_time"` // days
	Notification       NotificationConfig `json:"notification"`
}

// LoginLimitConfig locks an account after MaxRetries failed logins.
type LoginLimitConfig struct {
	MaxRetries int `json:"max_retries"`
	LockTime   int `json:"lock_time"` // seconds
}

// Config is the local plugin configuration. Password sections are only
// meaningful when EnablePassword is set.
type Config struct {
	EnablePassword  bool                   `json:"enable_password"`
	PasswordRule    *passwd.Rule           `json:"password_rule,omitempty"`
	PasswordInitial *PasswordInitialConfig `json:"password_initial,omitempty"`
	PasswordExpire  *PasswordExpireConfig  `json:"password_expire,omitempty"`
	LoginLimit      *LoginLimitConfig      `json:"login_limit,omitempty"`
}

func (c *Config) PluginID() shared.PluginID {
	return shared.PluginLocal
}

// DefaultConfig returns the configuration new local data sources start from.
func DefaultConfig() *Config {
	rule := passwd.DefaultRule()
	return &Config{
		EnablePassword: true,
		PasswordRule:   &rule,
		PasswordInitial: &PasswordInitialConfig{
			ForceChangeAtFirstLogin:       true,
			CannotUsePreviousPassword:     true,
			ReservedPreviousPasswordCount: 3,
			GenerateMethod:                shared.PasswordGenerateMethodRandom,
			Notification: NotificationConfig{
				EnabledMethods: []shared.NotificationMethod{shared.NotificationMethodEmail},
				Templates: []NotificationTemplate{
					{
						Method:  shared.NotificationMethodEmail,
						Scene:   "user_initialize",
						Title:   "Your account has been created",
						Sender:  "identity",
						Content: "Hello {{ username }}, your account has been created. Initial password: {{ password }}",
					},
					{
						Method:  shared.NotificationMethodSMS,
						Scene:   "user_initialize",
						Sender:  "identity",
						Content: "Hello {{ username }}, your initial password is {{ password }}",
					},
				},
			},
		},
		PasswordExpire: &PasswordExpireConfig{
			RemindBeforeExpire: []int{1, 7},
			ValidTime:          90,
			Notification: NotificationConfig{
				EnabledMethods: []shared.NotificationMethod{shared.NotificationMethodEmail},
			},
		},
		LoginLimit: &LoginLimitConfig{
			MaxRetries: 10,
			LockTime:   30 * 60,
		},
	}
}

// DisabledConfig is used by sources whose users never log in with a password.
func DisabledConfig() *Config {
	return &Config{EnablePassword: false}
}

func (c *Config) Validate() error {
	if !c.EnablePassword {
		return nil
	}

	var result *multierror.Error
	if c.PasswordRule == nil {
		result = multierror.Append(result, fmt.Errorf("password_rule is required when password is enabled"))
	} else if err := c.PasswordRule.Check(); err != nil {
		result = multierror.Append(result, fmt.Errorf("password_rule: %w", err))
	}

	if c.PasswordInitial == nil {
		result = multierror.Append(result, fmt.Errorf("password_initial is required when password is enabled"))
	} else {
		pi := c.PasswordInitial
		switch pi.GenerateMethod {
		case shared.PasswordGenerateMethodRandom:
		case shared.PasswordGenerateMethodFixed:
			if pi.FixedPassword == "" {
				result = multierror.Append(result, fmt.Errorf("fixed_password is required when generate_method is fixed"))
			} else if c.PasswordRule != nil {
				if err := c.PasswordRule.Validate(pi.FixedPassword); err != nil {
					result = multierror.Append(result, fmt.Errorf("fixed_password does not meet the password rules: %w", err))
				}
			}
		default:
			result = multierror.Append(result, fmt.Errorf("unknown generate_method %q", pi.GenerateMethod))
		}
		for _, m := range pi.Notification.EnabledMethods {
			if !m.Valid() {
				result = multierror.Append(result, fmt.Errorf("unknown notification method %q", m))
			}
		}
	}

	if c.PasswordExpire == nil {
		result = multierror.Append(result, fmt.Errorf("password_expire is required when password is enabled"))
	} else if !allowedValidTimes[c.PasswordExpire.ValidTime] {
		result = multierror.Append(result, fmt.Errorf("invalid password valid_time %d", c.PasswordExpire.ValidTime))
	}

	if c.LoginLimit == nil {
		result = multierror.Append(result, fmt.Errorf("login_limit is required when password is enabled"))
	} else if c.LoginLimit.MaxRetries < 0 || c.LoginLimit.LockTime < 0 {
		result = multierror.Append(result, fmt.Errorf("login_limit values must not be negative"))
	}

	return result.ErrorOrNil()
}

// NotificationEnabled reports whether initial passwords are delivered to users.
func (c *Config) NotificationEnabled() bool {
	return c.EnablePassword && c.PasswordInitial != nil && len(c.PasswordInitial.Notification.EnabledMethods) > 0
}
