package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/identity-tenancy-api/internal/config"
	"github.com/identity-tenancy-api/internal/models"
)

// EventQueue is the list the worker consumes tenant lifecycle events from.
const EventQueue = "tenant:events:queue"

const defaultDisplayNameTTL = 10 * time.Minute

type Client struct {
	Client         *redis.Client
	displayNameTTL time.Duration
}

// NewClient creates a new Redis client
func NewClient(cfg *config.RedisConfig) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return Wrap(client, cfg.DisplayNameTTL), nil
}

// Wrap adapts an existing client.
func Wrap(client *redis.Client, displayNameTTL time.Duration) *Client {
	if displayNameTTL <= 0 {
		displayNameTTL = defaultDisplayNameTTL
	}
	return &Client{Client: client, displayNameTTL: displayNameTTL}
}

func displayNameKey(tenantID string) string {
	return fmt.Sprintf("tenant:%s:display_name_config", tenantID)
}

// GetDisplayNameConfig returns the cached config or (nil, nil) on a miss.
func (c *Client) GetDisplayNameConfig(ctx context.Context, tenantID string) (*models.TenantUserDisplayNameExpressionConfig, error) {
	raw, err := c.Client.Get(ctx, displayNameKey(tenantID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read display name config: %w", err)
	}
	cfg := &models.TenantUserDisplayNameExpressionConfig{}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode display name config: %w", err)
	}
	return cfg, nil
}

func (c *Client) SetDisplayNameConfig(ctx context.Context, cfg *models.TenantUserDisplayNameExpressionConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode display name config: %w", err)
	}
	return c.Client.Set(ctx, displayNameKey(cfg.TenantID), raw, c.displayNameTTL).Err()
}

// InvalidateTenantCache removes all cached data for a tenant
func (c *Client) InvalidateTenantCache(ctx context.Context, tenantID string) error {
	iter := c.Client.Scan(ctx, 0, fmt.Sprintf("tenant:%s:*", tenantID), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan tenant keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.Client.Del(ctx, keys...).Err()
}

// Enqueue pushes a job onto the head of queue; consumers pop from the tail.
func (c *Client) Enqueue(ctx context.Context, queue string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}
	return c.Client.LPush(ctx, queue, raw).Err()
}

// Dequeue blocks up to timeout for the next job. It returns (nil, nil) when
// the wait times out.
func (c *Client) Dequeue(ctx context.Context, queue string, timeout time.Duration) ([]byte, error) {
	result, err := c.Client.BRPop(ctx, timeout, queue).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(result) < 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply %v", result)
	}
	return []byte(result[1]), nil
}

// Close closes the Redis client
func (c *Client) Close() error {
	return c.Client.Close()
}
