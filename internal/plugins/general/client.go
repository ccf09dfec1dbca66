package general

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// ConnectionResult summarizes the first page of each directory endpoint.
type ConnectionResult struct {
	UserCount       int64  `json:"user_count"`
	DepartmentCount int64  `json:"department_count"`
	SampleUser      string `json:"sample_user,omitempty"`
	SampleDept      string `json:"sample_department,omitempty"`
}

// Client talks to the remote directory described by a Config.
type Client struct {
	cfg  *Config
	http *resty.Client
}

func NewClient(cfg *Config) *Client {
	c := resty.New().
		SetTimeout(time.Duration(cfg.ServerConfig.RequestTimeout) * time.Second).
		SetRetryCount(cfg.ServerConfig.Retries).
		SetHeader("Accept", "application/json")

	switch cfg.AuthConfig.Method {
	case AuthMethodBearerToken:
		c.SetAuthToken(cfg.AuthConfig.BearerToken)
	case AuthMethodBasicAuth:
		c.SetBasicAuth(cfg.AuthConfig.Username, cfg.AuthConfig.Password)
	}

	return &Client{cfg: cfg, http: c}
}

// TestConnection fetches one page from the user and department endpoints and
// checks that both answer with the paginated {count, results} envelope.
func (c *Client) TestConnection(ctx context.Context) (*ConnectionResult, error) {
	users, err := c.firstPage(ctx, c.cfg.UserAPIURL(), c.cfg.ServerConfig.UserAPIQueryParams)
	if err != nil {
		return nil, fmt.Errorf("user api: %w", err)
	}
	depts, err := c.firstPage(ctx, c.cfg.DepartmentAPIURL(), c.cfg.ServerConfig.DepartmentAPIQueryParams)
	if err != nil {
		return nil, fmt.Errorf("department api: %w", err)
	}

	result := &ConnectionResult{
		UserCount:       users.Get("count").Int(),
		DepartmentCount: depts.Get("count").Int(),
	}
	if first := users.Get("results.0"); first.Exists() {
		result.SampleUser = first.Raw
	}
	if first := depts.Get("results.0"); first.Exists() {
		result.SampleDept = first.Raw
	}
	return result, nil
}

func (c *Client) firstPage(ctx context.Context, endpoint string, params []QueryParam) (gjson.Result, error) {
	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("page", "1").
		SetQueryParam("page_size", strconv.Itoa(c.cfg.ServerConfig.PageSize))
	for _, p := range params {
		req.SetQueryParam(p.Key, p.Value)
	}

	resp, err := req.Get(endpoint)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		return gjson.Result{}, fmt.Errorf("unexpected status %s", resp.Status())
	}

	body := resp.Body()
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("response is not valid json")
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.Get("count").Exists() || !parsed.Get("results").IsArray() {
		return gjson.Result{}, fmt.Errorf("response must contain count and results")
	}
	return parsed, nil
}
