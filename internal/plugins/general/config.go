// Package general implements the HTTP-backed directory data source plugin.
package general

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/identity-tenancy-api/internal/models/shared"
)

type AuthMethod string

const (
	AuthMethodNone        AuthMethod = "none"
	AuthMethodBearerToken AuthMethod = "bearer_token"
	AuthMethodBasicAuth   AuthMethod = "basic_auth"
)

var allowedPageSizes = map[int]bool{100: true, 200: true, 500: true, 1000: true, 2000: true, 5000: true}

type QueryParam struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type ServerConfig struct {
	ServerBaseURL            string       `json:"server_base_url"`
	UserAPIPath              string       `json:"user_api_path"`
	UserAPIQueryParams       []QueryParam `json:"user_api_query_params"`
	DepartmentAPIPath        string       `json:"department_api_path"`
	DepartmentAPIQueryParams []QueryParam `json:"department_api_query_params"`
	PageSize                 int          `json:"page_size"`
	RequestTimeout           int          `json:"request_timeout"` // seconds
	Retries                  int          `json:"retries"`
}

type AuthConfig struct {
	Method      AuthMethod `json:"method"`
	BearerToken string     `json:"bearer_token,omitempty"`
	Username    string     `json:"username,omitempty"`
	Password    string     `json:"password,omitempty"`
}

type Config struct {
	ServerConfig ServerConfig `json:"server_config"`
	AuthConfig   AuthConfig   `json:"auth_config"`
}

func (c *Config) PluginID() shared.PluginID {
	return shared.PluginGeneral
}

func (c *Config) Validate() error {
	var result *multierror.Error

	sc := c.ServerConfig
	u, err := url.Parse(sc.ServerBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		result = multierror.Append(result, fmt.Errorf("server_base_url must be an http(s) url"))
	} else if strings.HasSuffix(sc.ServerBaseURL, "/") {
		result = multierror.Append(result, fmt.Errorf("server_base_url must not end with '/'"))
	}
	if !strings.HasPrefix(sc.UserAPIPath, "/") {
		result = multierror.Append(result, fmt.Errorf("user_api_path must start with '/'"))
	}
	if !strings.HasPrefix(sc.DepartmentAPIPath, "/") {
		result = multierror.Append(result, fmt.Errorf("department_api_path must start with '/'"))
	}
	if !allowedPageSizes[sc.PageSize] {
		result = multierror.Append(result, fmt.Errorf("page_size %d is not allowed", sc.PageSize))
	}
	if sc.RequestTimeout < 5 || sc.RequestTimeout > 120 {
		result = multierror.Append(result, fmt.Errorf("request_timeout must be between 5 and 120 seconds"))
	}
	if sc.Retries < 0 || sc.Retries > 3 {
		result = multierror.Append(result, fmt.Errorf("retries must be between 0 and 3"))
	}

	ac := c.AuthConfig
	switch ac.Method {
	case AuthMethodNone:
	case AuthMethodBearerToken:
		if ac.BearerToken == "" {
			result = multierror.Append(result, fmt.Errorf("bearer_token is required for bearer_token auth"))
		}
	case AuthMethodBasicAuth:
		if ac.Username == "" || ac.Password == "" {
			result = multierror.Append(result, fmt.Errorf("username and password are required for basic_auth"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("unknown auth method %q", ac.Method))
	}

	return result.ErrorOrNil()
}

// UserAPIURL is the full url of the user listing endpoint.
func (c *Config) UserAPIURL() string {
	return c.ServerConfig.ServerBaseURL + c.ServerConfig.UserAPIPath
}

// DepartmentAPIURL is the full url of the department listing endpoint.
func (c *Config) DepartmentAPIURL() string {
	return c.ServerConfig.ServerBaseURL + c.ServerConfig.DepartmentAPIPath
}
