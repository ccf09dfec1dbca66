// Package worker consumes tenant lifecycle events from the Redis queue.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/identity-tenancy-api/internal/models"
	"github.com/identity-tenancy-api/internal/services/tenant"
)

// Queue is the blocking pop side of the event queue.
type Queue interface {
	Dequeue(ctx context.Context, queue string, timeout time.Duration) ([]byte, error)
}

// ConfigWarmer loads a tenant's display-name config, filling the cache.
type ConfigWarmer interface {
	GetConfig(ctx context.Context, tenantID string) (*models.TenantUserDisplayNameExpressionConfig, error)
}

// CacheInvalidator drops everything cached for a tenant.
type CacheInvalidator interface {
	InvalidateTenantCache(ctx context.Context, tenantID string) error
}

// ErrMalformedEvent marks a payload that can never be processed.
var ErrMalformedEvent = errors.New("malformed event")

type Processor struct {
	queue       Queue
	warmer      ConfigWarmer
	invalidator CacheInvalidator
	log         *zap.Logger

	// PollTimeout bounds each BRPOP so shutdown is noticed promptly.
	PollTimeout time.Duration
	// RetryDelay is the pause after a queue read error.
	RetryDelay time.Duration
}

func NewProcessor(queue Queue, warmer ConfigWarmer, invalidator CacheInvalidator, log *zap.Logger) *Processor {
	return &Processor{
		queue:       queue,
		warmer:      warmer,
		invalidator: invalidator,
		log:         log,
		PollTimeout: 5 * time.Second,
		RetryDelay:  time.Second,
	}
}

// Handle decodes and applies one event.
func (p *Processor) Handle(ctx context.Context, raw []byte) error {
	var event tenant.Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if event.TenantID == "" {
		return fmt.Errorf("%w: missing tenant_id", ErrMalformedEvent)
	}

	switch event.Type {
	case tenant.EventTenantCreated:
		if _, err := p.warmer.GetConfig(ctx, event.TenantID); err != nil {
			return fmt.Errorf("failed to warm display name config of %s: %w", event.TenantID, err)
		}
	case tenant.EventTenantDeleted:
		if err := p.invalidator.InvalidateTenantCache(ctx, event.TenantID); err != nil {
			return fmt.Errorf("failed to invalidate cache of %s: %w", event.TenantID, err)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrMalformedEvent, event.Type)
	}

	p.log.Info("event processed",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("tenant_id", event.TenantID),
	)
	return nil
}

// Run pops and handles events until ctx is cancelled. Failed events are
// logged and dropped.
func (p *Processor) Run(ctx context.Context) error {
	p.log.Info("worker ready", zap.String("queue", tenant.EventQueue))
	for {
		if ctx.Err() != nil {
			p.log.Info("worker stopping")
			return nil
		}

		raw, err := p.queue.Dequeue(ctx, tenant.EventQueue, p.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.log.Error("failed to read from queue", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(p.RetryDelay):
			}
			continue
		}
		if raw == nil {
			continue
		}

		if err := p.Handle(ctx, raw); err != nil {
			if errors.Is(err, ErrMalformedEvent) {
				p.log.Warn("skipping event", zap.ByteString("payload", raw), zap.Error(err))
			} else {
				p.log.Error("failed to process event", zap.Error(err))
			}
		}
	}
}
